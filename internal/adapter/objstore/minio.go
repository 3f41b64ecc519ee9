// Package objstore adapts MinIO-compatible object storage as the source of
// uploaded file bytes. Uploads themselves happen outside this service; the
// ingestion pipeline only reads.
package objstore

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioFetcher implements port.FileFetcher over a single bucket.
type MinioFetcher struct {
	client *minio.Client
	bucket string
}

// Config holds MinIO connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewMinioFetcher connects to the object store.
func NewMinioFetcher(cfg Config) (*MinioFetcher, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect object store: %w", err)
	}
	return &MinioFetcher{client: client, bucket: cfg.Bucket}, nil
}

// Fetch returns the raw bytes stored under objectKey. Any failure here is a
// hard failure for the file's ingestion.
func (f *MinioFetcher) Fetch(ctx context.Context, objectKey string) ([]byte, error) {
	obj, err := f.client.GetObject(ctx, f.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %q: %w", objectKey, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read object %q: %w", objectKey, err)
	}
	return data, nil
}
