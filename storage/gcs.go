package storage

import (
	"context"
	"fmt"
	"io"
	"os"

	"manimserve/config"
	"manimserve/logger"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSBackend uploads to a Google Cloud Storage bucket. Objects are expected
// to be readable through the bucket's own IAM policy.
type GCSBackend struct {
	client *gcs.Client
	bucket string
}

func NewGCSBackend(ctx context.Context, cfg config.GCSConfig, opts ...option.ClientOption) (*GCSBackend, error) {
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient: %w", err)
	}
	return &GCSBackend{client: client, bucket: cfg.Bucket}, nil
}

func (b *GCSBackend) Name() string { return config.BackendGCS }

func (b *GCSBackend) Put(ctx context.Context, localPath, key, contentType string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	wc := b.client.Bucket(b.bucket).Object(key).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := io.Copy(wc, f); err != nil {
		wc.Close()
		return "", fmt.Errorf("io.Copy: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("Writer.Close: %w", err)
	}

	logger.Infof("Successfully uploaded object '%s' to bucket '%s'", key, b.bucket)
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", b.bucket, key), nil
}

func (b *GCSBackend) Check(ctx context.Context) error {
	if _, err := b.client.Bucket(b.bucket).Attrs(ctx); err != nil {
		return fmt.Errorf("bucket attrs %s: %w", b.bucket, err)
	}
	return nil
}

func (b *GCSBackend) Close() error { return b.client.Close() }
