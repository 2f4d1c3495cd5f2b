package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"manimserve/logger"
	"manimserve/models"
)

// Uploader names objects and hands them to a Backend. It is immutable after
// construction and safe for concurrent use.
type Uploader struct {
	backend Backend
	now     func() time.Time
}

func NewUploader(backend Backend) *Uploader {
	return &Uploader{backend: backend, now: time.Now}
}

func (u *Uploader) Backend() Backend { return u.backend }

// contentTypeFor mirrors the only two kinds of file a render produces.
func contentTypeFor(localPath string) string {
	if strings.EqualFold(filepath.Ext(localPath), ".mp4") {
		return "video/mp4"
	}
	return "image/png"
}

// objectKey turns "videos/Demo.mp4" into
// "videos/Demo_20250102_150405_1a2b3c4d.mp4" so concurrent renders of the
// same scene never overwrite each other.
func (u *Uploader) objectKey(desired string) string {
	dir, file := path.Split(desired)
	ext := path.Ext(file)
	base := strings.TrimSuffix(file, ext)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s%s_%s_%s%s", dir, base, u.now().UTC().Format("20060102_150405"), suffix, ext)
}

// Upload stores localPath under a unique key derived from desiredKey and
// returns its public URL.
func (u *Uploader) Upload(ctx context.Context, localPath, desiredKey string) (string, error) {
	key := u.objectKey(desiredKey)
	url, err := u.backend.Put(ctx, localPath, key, contentTypeFor(localPath))
	if err != nil {
		return "", fmt.Errorf("upload to %s failed: %w", u.backend.Name(), err)
	}
	return url, nil
}

// UploadPair uploads the video and, if it exists on disk, the thumbnail.
// A thumbnail upload failure is logged and leaves ThumbnailURL empty.
func (u *Uploader) UploadPair(ctx context.Context, videoPath, thumbnailPath string) (models.UploadResult, error) {
	videoURL, err := u.Upload(ctx, videoPath, "videos/"+filepath.Base(videoPath))
	if err != nil {
		return models.UploadResult{}, err
	}
	result := models.UploadResult{VideoURL: videoURL}

	if thumbnailPath == "" {
		return result, nil
	}
	if _, err := os.Stat(thumbnailPath); err != nil {
		logger.Debugf("thumbnail %s not on disk, skipping upload", thumbnailPath)
		return result, nil
	}
	thumbURL, err := u.Upload(ctx, thumbnailPath, "thumbnails/"+filepath.Base(thumbnailPath))
	if err != nil {
		logger.Warnf("thumbnail upload failed, continuing without it: %v", err)
		return result, nil
	}
	result.ThumbnailURL = thumbURL
	return result, nil
}
