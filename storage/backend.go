// Package storage uploads rendered media to the configured object store and
// returns public URLs for it.
package storage

import (
	"context"
	"fmt"

	"manimserve/config"
)

// Backend stores a local file under key and returns its public URL.
// Implementations are constructed once at startup and shared by all requests.
type Backend interface {
	Name() string
	Put(ctx context.Context, localPath, key, contentType string) (string, error)
	// Check verifies the destination is reachable with the configured
	// credentials.
	Check(ctx context.Context) error
	Close() error
}

// New builds the backend selected by cfg.StorageBackend.
func New(ctx context.Context, cfg config.Config) (Backend, error) {
	switch cfg.StorageBackend {
	case config.BackendS3:
		return NewS3Backend(cfg.S3), nil
	case config.BackendGCS:
		b, err := NewGCSBackend(ctx, cfg.GCS)
		if err != nil {
			return nil, fmt.Errorf("failed to create GCS backend: %w", err)
		}
		return b, nil
	case config.BackendSFTP:
		return NewSFTPBackend(cfg.SFTP, cfg.PublicBaseURL), nil
	case config.BackendLocal:
		base := cfg.PublicBaseURL
		if base == "" {
			base = "http://localhost:" + cfg.Port
		}
		return NewLocalBackend(cfg.ServeDir, base)
	default:
		return nil, fmt.Errorf("unknown backend type: %s", cfg.StorageBackend)
	}
}
