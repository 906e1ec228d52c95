package ports

import "context"

// ImageStore keeps bike photos. Upload returns a public URL; Delete reports
// false when the URL does not belong to the store.
type ImageStore interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, publicURL string) (bool, error)
}
