// Package scheduler drives periodic re-ingestion of registered feed sources.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"catalog-feed-service/models"
	"catalog-feed-service/repository"
	"catalog-feed-service/services"
)

// DefaultInterval is how often registered feeds are re-ingested.
const DefaultInterval = 12 * time.Hour

// Scheduler sweeps the feed registry on a fixed interval: every active
// source is reconciled from its URL, and products of inactive sources are
// deleted. A failure on one source never stops the sweep.
type Scheduler struct {
	repo     repository.CatalogRepository
	ingestor services.IngestService
	logger   *zap.Logger
	interval time.Duration
}

// New creates a Scheduler with the default 12-hour interval.
func New(repo repository.CatalogRepository, ingestor services.IngestService, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		repo:     repo,
		ingestor: ingestor,
		logger:   logger,
		interval: DefaultInterval,
	}
}

// SetInterval overrides the default sweep interval.
func (s *Scheduler) SetInterval(d time.Duration) {
	s.interval = d
}

// Run starts the sweep loop, blocking until ctx is cancelled. The first
// sweep happens one full interval after start, matching the cron-style
// schedule the registry promises through next_update.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one full pass over the registry.
func (s *Scheduler) Sweep(ctx context.Context) {
	s.logger.Info("feed sweep started")

	active, err := s.repo.ListSourcesByStatus(ctx, models.SourceStatusActive)
	if err != nil {
		s.logger.Error("list active sources", zap.Error(err))
		return
	}
	for i := range active {
		if ctx.Err() != nil {
			return
		}
		src := active[i]
		if err := s.ingestor.RefreshSource(ctx, &src); err != nil {
			// No retry here: the source is picked up again next sweep.
			s.logger.Error("source refresh failed",
				zap.Uint("source_id", src.ID),
				zap.String("url", src.URL),
				zap.Error(err),
			)
		}
	}

	inactive, err := s.repo.ListSourcesByStatus(ctx, models.SourceStatusInactive)
	if err != nil {
		s.logger.Error("list inactive sources", zap.Error(err))
		return
	}
	for i := range inactive {
		if ctx.Err() != nil {
			return
		}
		// Idempotent: deleting an already-empty product set is a no-op.
		if err := s.repo.DeleteSourceProducts(ctx, inactive[i].ID); err != nil {
			s.logger.Error("inactive source cleanup failed",
				zap.Uint("source_id", inactive[i].ID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("feed sweep finished",
		zap.Int("active", len(active)),
		zap.Int("inactive", len(inactive)),
	)
}
