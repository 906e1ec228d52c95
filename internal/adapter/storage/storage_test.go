package storage

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	puts    []*s3.PutObjectInput
	deletes []*s3.DeleteObjectInput
	err     error
}

func (f *fakeObjects) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, f.err
}

func (f *fakeObjects) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, in)
	return &s3.DeleteObjectOutput{}, f.err
}

func TestS3ImageStoreUploadAndDelete(t *testing.T) {
	objects := &fakeObjects{}
	store := NewS3ImageStoreWithClient(objects, Options{Bucket: "shop", PublicURL: "https://cdn.example.com/"})

	url, err := store.Upload(context.Background(), []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/bikes/"))
	assert.True(t, strings.HasSuffix(url, ".jpg"))
	require.Len(t, objects.puts, 1)
	assert.Equal(t, "shop", *objects.puts[0].Bucket)
	assert.Equal(t, "image/jpeg", *objects.puts[0].ContentType)

	removed, err := store.Delete(context.Background(), url)
	require.NoError(t, err)
	assert.True(t, removed)
	require.Len(t, objects.deletes, 1)
	assert.Equal(t, strings.TrimPrefix(url, "https://cdn.example.com/"), *objects.deletes[0].Key)
}

func TestS3ImageStoreIgnoresForeignURL(t *testing.T) {
	objects := &fakeObjects{}
	store := NewS3ImageStoreWithClient(objects, Options{Bucket: "shop", PublicURL: "https://cdn.example.com"})

	removed, err := store.Delete(context.Background(), "https://elsewhere.example.com/bikes/a.jpg")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Empty(t, objects.deletes)
}

func TestS3ImageStoreFailureIsUnavailable(t *testing.T) {
	objects := &fakeObjects{err: errors.New("timeout")}
	store := NewS3ImageStoreWithClient(objects, Options{Endpoint: "http://minio:9000", Bucket: "shop"})

	_, err := store.Upload(context.Background(), []byte("x"), "image/png")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	_, err = store.Delete(context.Background(), "http://minio:9000/shop/bikes/a.png")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestNopImageStore(t *testing.T) {
	store := NewNopImageStore()
	_, err := store.Upload(context.Background(), nil, "image/jpeg")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	removed, err := store.Delete(context.Background(), "https://cdn.example.com/bikes/a.jpg")
	assert.NoError(t, err)
	assert.False(t, removed)
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 10 {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCompress(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantW, wantH  int
	}{
		{name: "landscape scaled", width: 2400, height: 1200, wantW: 1200, wantH: 600},
		{name: "portrait scaled", width: 600, height: 1800, wantW: 400, wantH: 1200},
		{name: "small kept", width: 300, height: 200, wantW: 300, wantH: 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Compress(encodePNG(t, tt.width, tt.height))
			require.NoError(t, err)

			cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
			require.NoError(t, err)
			assert.Equal(t, tt.wantW, cfg.Width)
			assert.Equal(t, tt.wantH, cfg.Height)
		})
	}
}

func TestCompressRejectsGarbage(t *testing.T) {
	_, err := Compress([]byte("not an image"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}
