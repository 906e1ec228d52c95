package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/domain"
)

// ObjectAPI is the part of the S3 client the image store needs.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type Options struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	PublicURL string
	Prefix    string
}

// S3ImageStore keeps bike photos in an S3 compatible bucket (AWS, Spaces,
// MinIO) under Prefix and hands out URLs rooted at PublicURL.
type S3ImageStore struct {
	client    ObjectAPI
	bucket    string
	prefix    string
	publicURL string
}

func NewS3ImageStore(ctx context.Context, opts Options) (*S3ImageStore, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")),
		config.WithRegion(opts.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load storage config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3ImageStoreWithClient(client, opts), nil
}

func NewS3ImageStoreWithClient(client ObjectAPI, opts Options) *S3ImageStore {
	publicURL := strings.TrimSuffix(opts.PublicURL, "/")
	if publicURL == "" {
		publicURL = fmt.Sprintf("%s/%s", strings.TrimSuffix(opts.Endpoint, "/"), opts.Bucket)
	}
	prefix := strings.Trim(opts.Prefix, "/")
	if prefix == "" {
		prefix = "bikes"
	}
	return &S3ImageStore{
		client:    client,
		bucket:    opts.Bucket,
		prefix:    prefix,
		publicURL: publicURL,
	}
}

func (s *S3ImageStore) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	key := fmt.Sprintf("%s/%s%s", s.prefix, uuid.NewString(), extensionFor(contentType))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("%w: upload image: %v", domain.ErrStoreUnavailable, err)
	}

	return s.publicURL + "/" + key, nil
}

// Delete removes the object behind publicURL. URLs outside the store are
// left alone and reported as not removed.
func (s *S3ImageStore) Delete(ctx context.Context, publicURL string) (bool, error) {
	key, ok := strings.CutPrefix(publicURL, s.publicURL+"/")
	if !ok || key == "" {
		return false, nil
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return false, fmt.Errorf("%w: delete image %s: %v", domain.ErrStoreUnavailable, key, err)
	}
	return true, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	}
	return ""
}

// NopImageStore stands in when no bucket is configured.
type NopImageStore struct{}

func NewNopImageStore() NopImageStore {
	return NopImageStore{}
}

func (NopImageStore) Upload(context.Context, []byte, string) (string, error) {
	return "", fmt.Errorf("%w: image storage is not configured", domain.ErrStoreUnavailable)
}

func (NopImageStore) Delete(context.Context, string) (bool, error) {
	return false, nil
}
