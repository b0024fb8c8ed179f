package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/artwall/artwall/internal/config"
	"github.com/artwall/artwall/pkg/storage"
)

// Kind selects the resize profile applied to an upload.
type Kind string

const (
	KindChat    Kind = "chat"
	KindProfile Kind = "profile"
	KindCover   Kind = "cover"
	KindStory   Kind = "story"
	KindPost    Kind = "post"
)

const urlTTL = 24 * time.Hour

// Uploader resizes incoming images and writes them to storage.
// Non-image story media (video) passes through untouched.
type Uploader struct {
	storage storage.Storage
	cfg     config.MediaConfig
}

// NewUploader creates an uploader backed by the given storage.
func NewUploader(st storage.Storage, cfg config.MediaConfig) *Uploader {
	return &Uploader{storage: st, cfg: cfg}
}

// UploadImage decodes, resizes to the profile's max width, re-encodes
// as JPEG, stores the result, and returns its URL.
func (u *Uploader) UploadImage(ctx context.Context, kind Kind, ownerID string, r io.Reader) (string, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	width := u.widthFor(kind)
	if width > 0 && img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(u.cfg.JPEGQuality)); err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}

	key := fmt.Sprintf("%s/%s/%s.jpg", kind, ownerID, uuid.New().String())
	if err := u.storage.Write(ctx, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), "image/jpeg"); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}

	return u.storage.GetURL(ctx, key, urlTTL)
}

// UploadRaw stores a file without transformation. Used for story video.
func (u *Uploader) UploadRaw(ctx context.Context, kind Kind, ownerID, filename, contentType string, r io.Reader, size int64) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".bin"
	}

	key := fmt.Sprintf("%s/%s/%s%s", kind, ownerID, uuid.New().String(), ext)
	if err := u.storage.Write(ctx, key, r, size, contentType); err != nil {
		return "", fmt.Errorf("store file: %w", err)
	}

	return u.storage.GetURL(ctx, key, urlTTL)
}

// Remove deletes stored media by its URL, best effort. URLs that do not
// point into this storage are ignored.
func (u *Uploader) Remove(ctx context.Context, url string) error {
	key := keyFromURL(url)
	if key == "" {
		return nil
	}
	return u.storage.Delete(ctx, key)
}

func (u *Uploader) widthFor(kind Kind) int {
	switch kind {
	case KindProfile:
		return u.cfg.ProfileImageWidth
	case KindCover:
		return u.cfg.CoverImageWidth
	default:
		return u.cfg.ChatImageWidth
	}
}

// keyFromURL recovers the storage key from a URL produced by GetURL.
// Keys have the shape "{kind}/{ownerID}/{file}", so the last three
// path segments form the key.
func keyFromURL(url string) string {
	trimmed := url
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	parts := strings.Split(strings.Trim(trimmed, "/"), "/")
	if len(parts) < 3 {
		return ""
	}
	return strings.Join(parts[len(parts)-3:], "/")
}
