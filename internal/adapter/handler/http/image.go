package http

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/adapter/storage"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/domain"
)

const (
	maxImageSize   = 10 << 20
	imageFormField = "image"
)

// readImage pulls the multipart image field and recompresses it as JPEG.
func readImage(c *gin.Context) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImageSize+1<<20)

	header, err := c.FormFile(imageFormField)
	if err != nil {
		return nil, fmt.Errorf("%w: multipart field %q is required", domain.ErrValidation, imageFormField)
	}
	if header.Size > maxImageSize {
		return nil, fmt.Errorf("%w: image exceeds %d MB", domain.ErrValidation, maxImageSize>>20)
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return storage.Compress(data)
}
