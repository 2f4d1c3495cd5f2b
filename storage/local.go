package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"manimserve/config"
	"manimserve/logger"
)

// MediaRoute is where the HTTP server exposes the local backend's directory.
const MediaRoute = "/media/"

// LocalBackend copies files into a directory served by this process.
type LocalBackend struct {
	dir     string
	baseURL string
}

func NewLocalBackend(dir, publicBaseURL string) (*LocalBackend, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create serve dir %s: %w", dir, err)
	}
	return &LocalBackend{dir: dir, baseURL: strings.TrimRight(publicBaseURL, "/")}, nil
}

func (b *LocalBackend) Name() string { return config.BackendLocal }

// Dir is the directory to serve under MediaRoute.
func (b *LocalBackend) Dir() string { return b.dir }

func (b *LocalBackend) Put(ctx context.Context, localPath, key, contentType string) (string, error) {
	clean := filepath.Clean("/" + key)[1:]
	if clean == "" {
		return "", fmt.Errorf("invalid key %q", key)
	}
	fullPath := filepath.Join(b.dir, filepath.FromSlash(clean))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directories: %w", err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", fullPath, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("failed to write to file %s: %w", fullPath, err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to write to file %s: %w", fullPath, err)
	}

	logger.Infof("Successfully saved file '%s' to '%s'", key, fullPath)
	return b.baseURL + MediaRoute + filepath.ToSlash(clean), nil
}

func (b *LocalBackend) Check(ctx context.Context) error {
	info, err := os.Stat(b.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", b.dir)
	}
	return nil
}

func (b *LocalBackend) Close() error { return nil }
