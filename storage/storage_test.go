package storage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"manimserve/config"
)

type putCall struct {
	localPath, key, contentType string
}

type recordingBackend struct {
	mu      sync.Mutex
	calls   []putCall
	failFor string // key prefix that fails
}

func (b *recordingBackend) Name() string { return "recording" }

func (b *recordingBackend) Put(ctx context.Context, localPath, key, contentType string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failFor != "" && strings.HasPrefix(key, b.failFor) {
		return "", errors.New("bucket on fire")
	}
	b.calls = append(b.calls, putCall{localPath, key, contentType})
	return "https://cdn.example.com/" + key, nil
}

func (b *recordingBackend) Check(ctx context.Context) error { return nil }
func (b *recordingBackend) Close() error                    { return nil }

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func fixedUploader(b Backend) *Uploader {
	u := NewUploader(b)
	u.now = func() time.Time { return time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC) }
	return u
}

func TestUploadKeyAndContentType(t *testing.T) {
	b := &recordingBackend{}
	u := fixedUploader(b)
	video := writeFile(t, t.TempDir(), "Demo.mp4", "video")

	url, err := u.Upload(context.Background(), video, "videos/Demo.mp4")
	require.NoError(t, err)
	require.Len(t, b.calls, 1)
	require.Regexp(t, regexp.MustCompile(`^videos/Demo_20250102_150405_[0-9a-f]{8}\.mp4$`), b.calls[0].key)
	require.Equal(t, "video/mp4", b.calls[0].contentType)
	require.Equal(t, "https://cdn.example.com/"+b.calls[0].key, url)

	_, err = u.Upload(context.Background(), video, "videos/Demo.mp4")
	require.NoError(t, err)
	require.NotEqual(t, b.calls[0].key, b.calls[1].key, "same scene twice gets distinct keys")
}

func TestUploadPair(t *testing.T) {
	dir := t.TempDir()
	video := writeFile(t, dir, "Demo.mp4", "video")
	thumb := writeFile(t, dir, "thumbnail.png", "png")

	b := &recordingBackend{}
	res, err := fixedUploader(b).UploadPair(context.Background(), video, thumb)
	require.NoError(t, err)
	require.Contains(t, res.VideoURL, "/videos/Demo_")
	require.Contains(t, res.ThumbnailURL, "/thumbnails/thumbnail_")
	require.Equal(t, "image/png", b.calls[1].contentType)
}

func TestUploadPairThumbnailOptional(t *testing.T) {
	dir := t.TempDir()
	video := writeFile(t, dir, "Demo.mp4", "video")

	b := &recordingBackend{}
	res, err := fixedUploader(b).UploadPair(context.Background(), video, "")
	require.NoError(t, err)
	require.Empty(t, res.ThumbnailURL)

	res, err = fixedUploader(b).UploadPair(context.Background(), video, filepath.Join(dir, "missing.png"))
	require.NoError(t, err)
	require.Empty(t, res.ThumbnailURL)

	b.failFor = "thumbnails/"
	thumb := writeFile(t, dir, "thumbnail.png", "png")
	res, err = fixedUploader(b).UploadPair(context.Background(), video, thumb)
	require.NoError(t, err)
	require.NotEmpty(t, res.VideoURL)
	require.Empty(t, res.ThumbnailURL)
}

func TestUploadPairVideoFailure(t *testing.T) {
	video := writeFile(t, t.TempDir(), "Demo.mp4", "video")
	b := &recordingBackend{failFor: "videos/"}
	_, err := fixedUploader(b).UploadPair(context.Background(), video, "")
	require.ErrorContains(t, err, "bucket on fire")
}

func TestLocalBackend(t *testing.T) {
	serve := filepath.Join(t.TempDir(), "serve")
	b, err := NewLocalBackend(serve, "http://localhost:8000/")
	require.NoError(t, err)
	require.NoError(t, b.Check(context.Background()))

	src := writeFile(t, t.TempDir(), "Demo.mp4", "video-bytes")
	url, err := b.Put(context.Background(), src, "videos/Demo_1.mp4", "video/mp4")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8000/media/videos/Demo_1.mp4", url)

	data, err := os.ReadFile(filepath.Join(serve, "videos", "Demo_1.mp4"))
	require.NoError(t, err)
	require.Equal(t, "video-bytes", string(data))

	url, err = b.Put(context.Background(), src, "../../escape.mp4", "video/mp4")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8000/media/escape.mp4", url)
	require.FileExists(t, filepath.Join(serve, "escape.mp4"))
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.Config{StorageBackend: config.BackendLocal, ServeDir: t.TempDir(), Port: "9000"}
	b, err := New(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, config.BackendLocal, b.Name())

	cfg.StorageBackend = config.BackendS3
	cfg.S3 = config.S3Config{AccessKeyID: "a", SecretAccessKey: "b", Region: "us-east-1", Bucket: "renders"}
	b, err = New(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, "https://renders.s3.amazonaws.com/videos/x.mp4", b.(*S3Backend).objectURL("videos/x.mp4"))

	cfg.StorageBackend = "floppy"
	_, err = New(context.Background(), cfg)
	require.Error(t, err)
}

func TestS3CheckAgainstCompatibleEndpoint(t *testing.T) {
	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Method + " " + r.URL.Path
		if strings.HasPrefix(r.URL.Path, "/renders") {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := config.S3Config{AccessKeyID: "a", SecretAccessKey: "b", Region: "us-east-1", Bucket: "renders", Endpoint: srv.URL}
	b := NewS3Backend(cfg)
	require.NoError(t, b.Check(context.Background()))
	require.True(t, strings.HasPrefix(seen, "HEAD /renders"), seen)
	require.Equal(t, srv.URL+"/renders/videos/x.mp4", b.objectURL("videos/x.mp4"))

	cfg.Bucket = "missing"
	require.Error(t, NewS3Backend(cfg).Check(context.Background()))
}

func TestSFTPBackendRequiresAuth(t *testing.T) {
	b := NewSFTPBackend(config.SFTPConfig{Host: "127.0.0.1", User: "render", RemoteDir: "/srv"}, "https://media.example.com/")
	require.Equal(t, "22", b.cfg.Port)
	_, err := b.clientConfig()
	require.ErrorContains(t, err, "no auth method")

	b = NewSFTPBackend(config.SFTPConfig{Host: "127.0.0.1", User: "render", Password: "pw"}, "")
	cc, err := b.clientConfig()
	require.NoError(t, err)
	require.Equal(t, "render", cc.User)
}
