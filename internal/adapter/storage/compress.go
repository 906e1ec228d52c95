package storage

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/domain"
)

const (
	MaxImageEdge = 1200
	JPEGQuality  = 80
)

// Compress decodes a JPEG, PNG or GIF, scales it so its longest edge is at
// most MaxImageEdge and re-encodes it as JPEG.
func Compress(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: unsupported image: %v", domain.ErrValidation, err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	switch {
	case width >= height && width > MaxImageEdge:
		img = resize.Resize(MaxImageEdge, 0, img, resize.Lanczos3)
	case height > width && height > MaxImageEdge:
		img = resize.Resize(0, MaxImageEdge, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
