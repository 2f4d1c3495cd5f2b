package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setS3Env(t *testing.T) {
	t.Helper()
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("AWS_ACCESS_KEY_ID", " AKIAEXAMPLE ")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("AWS_S3_BUCKET_NAME", "renders")
	t.Setenv("AWS_REGION", "")
}

func TestFromEnvDefaults(t *testing.T) {
	setS3Env(t)
	t.Setenv("RENDER_TIMEOUT", "")
	t.Setenv("MAX_CONCURRENT_RENDERS", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, BackendS3, cfg.StorageBackend)
	require.Equal(t, "AKIAEXAMPLE", cfg.S3.AccessKeyID, "values are trimmed")
	require.Equal(t, "us-east-1", cfg.S3.Region)
	require.Equal(t, 60*time.Second, cfg.RenderTimeout)
	require.Equal(t, 30*time.Second, cfg.WebhookTimeout)
	require.Equal(t, 2, cfg.MaxConcurrentRenders)
	require.Equal(t, "manim", cfg.ManimBin)
}

func TestFromEnvMissingS3Credentials(t *testing.T) {
	setS3Env(t)
	t.Setenv("AWS_SECRET_ACCESS_KEY", "   ")

	_, err := FromEnv()
	require.ErrorIs(t, err, ErrMissingStorageConfig)
}

func TestFromEnvBackends(t *testing.T) {
	t.Run("local", func(t *testing.T) {
		t.Setenv("STORAGE_BACKEND", "LOCAL")
		t.Setenv("MANIMSERVE_SERVE_DIR", t.TempDir())
		cfg, err := FromEnv()
		require.NoError(t, err)
		require.Equal(t, BackendLocal, cfg.StorageBackend)
	})
	t.Run("gcs without bucket", func(t *testing.T) {
		t.Setenv("STORAGE_BACKEND", "gcs")
		t.Setenv("GCS_BUCKET", "")
		_, err := FromEnv()
		require.ErrorIs(t, err, ErrMissingStorageConfig)
	})
	t.Run("sftp needs auth", func(t *testing.T) {
		t.Setenv("STORAGE_BACKEND", "sftp")
		t.Setenv("SFTP_HOST", "files.example.com")
		t.Setenv("SFTP_USER", "render")
		t.Setenv("SFTP_REMOTE_DIR", "/srv/media")
		t.Setenv("SFTP_PASSWORD", "")
		t.Setenv("SFTP_PRIVATE_KEY", "")
		t.Setenv("PUBLIC_BASE_URL", "https://media.example.com")
		_, err := FromEnv()
		require.ErrorIs(t, err, ErrMissingStorageConfig)
	})
	t.Run("unknown", func(t *testing.T) {
		t.Setenv("STORAGE_BACKEND", "floppy")
		_, err := FromEnv()
		require.ErrorIs(t, err, ErrMissingStorageConfig)
	})
}

func TestFromEnvDurationsAndLimits(t *testing.T) {
	setS3Env(t)
	t.Setenv("RENDER_TIMEOUT", "90")
	t.Setenv("WEBHOOK_TIMEOUT", "5s")
	t.Setenv("MAX_CONCURRENT_RENDERS", "4")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, 90*time.Second, cfg.RenderTimeout)
	require.Equal(t, 5*time.Second, cfg.WebhookTimeout)
	require.Equal(t, 4, cfg.MaxConcurrentRenders)

	t.Setenv("MAX_CONCURRENT_RENDERS", "zero")
	_, err = FromEnv()
	require.Error(t, err)
}

func TestDataDirPaths(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MANIMSERVE_DATA_DIR", dir)
	require.Equal(t, dir, GetDataDir())
	require.Equal(t, filepath.Join(dir, "renders.db"), GetRecordsDBPath())

	t.Setenv("MANIMSERVE_DATA_DIR", "")
	require.Equal(t, "./data", GetDataDir())
}

func TestLoadWithoutStorage(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "s3")
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("MANIM_BIN", "/opt/manim/bin/manim")

	cfg, err := LoadWithoutStorage()
	require.NoError(t, err)
	require.Equal(t, "/opt/manim/bin/manim", cfg.ManimBin)

	_, err = FromEnv()
	require.ErrorIs(t, err, ErrMissingStorageConfig)
}
