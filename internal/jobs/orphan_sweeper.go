package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"top100/internal/metrics"
	"top100/internal/models"
	"top100/internal/storage"
)

// SweepStore lists and removes upload bookkeeping rows.
type SweepStore interface {
	ListSweepableUploads(ctx context.Context, grace time.Duration, limit int) ([]models.Upload, error)
	DeleteUpload(ctx context.Context, id uuid.UUID) error
}

// OrphanSweeper deletes stored images that no saved profile adopted.
type OrphanSweeper struct {
	store   SweepStore
	objects storage.ObjectStore
	grace   time.Duration
	batch   int
	logger  *slog.Logger
}

// NewOrphanSweeper creates a sweeper. Pending uploads younger than grace are kept.
func NewOrphanSweeper(store SweepStore, objects storage.ObjectStore, grace time.Duration, logger *slog.Logger) *OrphanSweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrphanSweeper{store: store, objects: objects, grace: grace, batch: 100, logger: logger}
}

// Run sweeps one batch and returns how many uploads were removed.
func (s *OrphanSweeper) Run(ctx context.Context) (int, error) {
	uploads, err := s.store.ListSweepableUploads(ctx, s.grace, s.batch)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, u := range uploads {
		if ctx.Err() != nil {
			return swept, ctx.Err()
		}

		if err := s.objects.Delete(ctx, u.ObjectKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("orphan sweeper: failed to delete object", "key", u.ObjectKey, "error", err)
			continue
		}
		if err := s.store.DeleteUpload(ctx, u.ID); err != nil {
			s.logger.Warn("orphan sweeper: failed to delete upload record", "id", u.ID, "error", err)
			continue
		}
		swept++
	}

	if swept > 0 {
		metrics.Uploads.WithLabelValues("swept").Add(float64(swept))
		s.logger.Info("orphan sweeper: removed uploads", "count", swept)
	}
	return swept, nil
}
