package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/freshmart/storefront-backend/pkg/logger"
)

const defaultCartMirrorRetention = 30 * 24 * time.Hour

type cartMirrorPruner interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// CartMirrorJob drops mirrored cart rows nobody has touched within the retention window.
type CartMirrorJob struct {
	logg      *logger.Logger
	repo      cartMirrorPruner
	retention time.Duration
	now       func() time.Time
}

func NewCartMirrorJob(logg *logger.Logger, repo cartMirrorPruner, retention time.Duration) (*CartMirrorJob, error) {
	if repo == nil {
		return nil, errors.New("cart mirror repository required")
	}
	if retention <= 0 {
		retention = defaultCartMirrorRetention
	}
	return &CartMirrorJob{logg: logg, repo: repo, retention: retention, now: time.Now}, nil
}

func (j *CartMirrorJob) Name() string { return "cart_mirror_prune" }

func (j *CartMirrorJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	deleted, err := j.repo.PruneBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune cart mirror: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	}), "maintenance.cart_mirror_pruned")
	return nil
}
