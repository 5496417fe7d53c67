package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/freshmart/storefront-backend/pkg/config"
	pkgerrors "github.com/freshmart/storefront-backend/pkg/errors"
	"github.com/freshmart/storefront-backend/pkg/logger"
	"github.com/google/uuid"
)

const defaultMaxBytes = 2 * 1024 * 1024

// Service stores product images on local disk.
type Service interface {
	// SaveImage validates and stores an upload, returning the stored file name.
	SaveImage(ctx context.Context, file io.Reader) (string, error)
	RemoveImage(ctx context.Context, name string) error
	// ListImages returns the stored images, skipping in-flight uploads.
	ListImages(ctx context.Context) ([]StoredImage, error)
}

// StoredImage is one file in the upload directory.
type StoredImage struct {
	Name    string
	ModTime time.Time
}

type service struct {
	dir      string
	maxBytes int64
	logg     *logger.Logger
}

// NewService prepares the upload directory.
func NewService(cfg config.UploadConfig, logg *logger.Logger) (Service, error) {
	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "upload dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create upload dir")
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &service{dir: dir, maxBytes: maxBytes, logg: logg}, nil
}

func (s *service) SaveImage(ctx context.Context, file io.Reader) (string, error) {
	if file == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "image is required")
	}
	data, err := io.ReadAll(io.LimitReader(file, s.maxBytes+1))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read image")
	}
	if int64(len(data)) > s.maxBytes {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("Image must be %s or smaller", humanSize(s.maxBytes)))
	}
	if len(data) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "image is empty")
	}

	mimeType, ext := sniffImage(data)
	if ext == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "Image must be "+allowedImageDescription()).
			WithDetails(map[string]any{"detected": mimeType})
	}

	name := uuid.NewString() + ext
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create upload file")
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write upload file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "close upload file")
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		_ = os.Remove(tmpName)
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store upload file")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"image": name, "mime_type": mimeType, "bytes": len(data)})
	s.logg.Info(logCtx, "media.image.stored")
	return name, nil
}

// RemoveImage deletes a stored image. Missing files are ignored.
func (s *service) RemoveImage(ctx context.Context, name string) error {
	clean := strings.TrimSpace(name)
	if clean == "" || filepath.Base(clean) != clean || strings.HasPrefix(clean, ".") {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid image name")
	}
	if err := os.Remove(filepath.Join(s.dir, clean)); err != nil && !os.IsNotExist(err) {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove image")
	}
	return nil
}

func (s *service) ListImages(ctx context.Context) ([]StoredImage, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list images")
	}
	images := make([]StoredImage, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "stat image")
		}
		images = append(images, StoredImage{Name: entry.Name(), ModTime: info.ModTime()})
	}
	return images, nil
}

func humanSize(n int64) string {
	const mb = 1024 * 1024
	if n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}
