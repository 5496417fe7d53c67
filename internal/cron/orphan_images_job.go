package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/freshmart/storefront-backend/internal/media"
	"github.com/freshmart/storefront-backend/pkg/logger"
	"go.uber.org/multierr"
)

const defaultOrphanImageAge = 24 * time.Hour

type imageReferences interface {
	ImageNames(ctx context.Context) ([]string, error)
}

type imageStore interface {
	ListImages(ctx context.Context) ([]media.StoredImage, error)
	RemoveImage(ctx context.Context, name string) error
}

// OrphanImagesJob removes uploaded images no product points at. Files younger
// than minAge are kept so an upload whose product row is still being written
// survives.
type OrphanImagesJob struct {
	logg    *logger.Logger
	catalog imageReferences
	images  imageStore
	minAge  time.Duration
	now     func() time.Time
}

func NewOrphanImagesJob(logg *logger.Logger, catalog imageReferences, images imageStore, minAge time.Duration) (*OrphanImagesJob, error) {
	if catalog == nil {
		return nil, errors.New("catalog repository required")
	}
	if images == nil {
		return nil, errors.New("image store required")
	}
	if minAge <= 0 {
		minAge = defaultOrphanImageAge
	}
	return &OrphanImagesJob{logg: logg, catalog: catalog, images: images, minAge: minAge, now: time.Now}, nil
}

func (j *OrphanImagesJob) Name() string { return "orphan_images" }

func (j *OrphanImagesJob) Run(ctx context.Context) error {
	referenced, err := j.catalog.ImageNames(ctx)
	if err != nil {
		return fmt.Errorf("load product images: %w", err)
	}
	inUse := make(map[string]struct{}, len(referenced))
	for _, name := range referenced {
		inUse[name] = struct{}{}
	}

	stored, err := j.images.ListImages(ctx)
	if err != nil {
		return fmt.Errorf("list images: %w", err)
	}

	cutoff := j.now().Add(-j.minAge)
	var (
		removed int
		errs    error
	)
	for _, img := range stored {
		if _, ok := inUse[img.Name]; ok || img.ModTime.After(cutoff) {
			continue
		}
		if err := j.images.RemoveImage(ctx, img.Name); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("remove %s: %w", img.Name, err))
			continue
		}
		removed++
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"scanned": len(stored),
		"removed": removed,
	}), "maintenance.orphan_images_removed")
	return errs
}
