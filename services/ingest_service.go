package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"catalog-feed-service/models"
	"catalog-feed-service/parser"
	"catalog-feed-service/progress"
	"catalog-feed-service/repository"
)

// FeedFetcher retrieves a raw feed document.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// PassResult summarizes one reconciliation pass.
type PassResult struct {
	SuccessCount int `json:"success_count"`
	ErrorCount   int `json:"error_count"`
	TotalCount   int `json:"total_count"`
}

// IngestService runs feed ingestion passes: fetch, parse, and reconcile
// records against the catalog for one source at a time.
type IngestService interface {
	// IngestFromURL registers a new feed source and starts an asynchronous
	// full-refresh pass, returning the source and an opaque run id whose
	// progress can be observed through the Tracker.
	IngestFromURL(ctx context.Context, url string) (*models.FeedSource, string, *ServiceError)
	// IngestUpload synchronously reconciles an uploaded feed document using
	// upsert semantics, without a registered source.
	IngestUpload(ctx context.Context, raw []byte) (*PassResult, *ServiceError)
	// RefreshSource runs a full-refresh pass for an existing source,
	// blocking until the pass finishes.
	RefreshSource(ctx context.Context, source *models.FeedSource) error
	// StartRefresh runs RefreshSource in the background.
	StartRefresh(source *models.FeedSource)
}

// sourceLocks enforces at most one in-flight pass per source id.
type sourceLocks struct {
	mu   sync.Mutex
	busy map[uint]struct{}
}

func newSourceLocks() *sourceLocks {
	return &sourceLocks{busy: make(map[uint]struct{})}
}

func (l *sourceLocks) acquire(id uint) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, taken := l.busy[id]; taken {
		return false
	}
	l.busy[id] = struct{}{}
	return true
}

func (l *sourceLocks) release(id uint) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.busy, id)
}

type ingestServiceImpl struct {
	repo            repository.CatalogRepository
	fetcher         FeedFetcher
	tracker         *progress.Tracker
	locks           *sourceLocks
	refreshInterval time.Duration
	logger          *zap.Logger
}

// NewIngestService creates a new IngestService. refreshInterval is the
// schedule period used to stamp next_update after each pass.
func NewIngestService(
	repo repository.CatalogRepository,
	fetcher FeedFetcher,
	tracker *progress.Tracker,
	refreshInterval time.Duration,
	logger *zap.Logger,
) IngestService {
	return &ingestServiceImpl{
		repo:            repo,
		fetcher:         fetcher,
		tracker:         tracker,
		locks:           newSourceLocks(),
		refreshInterval: refreshInterval,
		logger:          logger,
	}
}

func (s *ingestServiceImpl) IngestFromURL(ctx context.Context, url string) (*models.FeedSource, string, *ServiceError) {
	if _, err := s.repo.FindSourceByURL(ctx, url); err == nil {
		return nil, "", &ServiceError{StatusCode: http.StatusBadRequest, Message: ErrDuplicateURL.Error()}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("source lookup failed", zap.String("url", url), zap.Error(err))
		return nil, "", &ServiceError{StatusCode: http.StatusInternalServerError, Message: "failed to check feed URL"}
	}

	next := time.Now().Add(s.refreshInterval)
	source := &models.FeedSource{
		URL:        url,
		Status:     models.SourceStatusActive,
		NextUpdate: &next,
	}
	if err := s.repo.CreateSource(ctx, source); err != nil {
		// The lookup above is not atomic with the insert; a concurrent
		// registration of the same URL loses here on the unique index.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", &ServiceError{StatusCode: http.StatusBadRequest, Message: ErrDuplicateURL.Error()}
		}
		s.logger.Error("source create failed", zap.String("url", url), zap.Error(err))
		return nil, "", &ServiceError{StatusCode: http.StatusInternalServerError, Message: "failed to register feed URL"}
	}

	runID := uuid.NewString()
	s.tracker.Start(runID)

	// The pass outlives the HTTP request that triggered it.
	go func() {
		if err := s.runTracked(context.Background(), source, runID); err != nil {
			s.logger.Error("ingestion pass failed",
				zap.Uint("source_id", source.ID),
				zap.String("run_id", runID),
				zap.Error(err),
			)
		}
	}()

	return source, runID, nil
}

func (s *ingestServiceImpl) IngestUpload(ctx context.Context, raw []byte) (*PassResult, *ServiceError) {
	records, err := parser.Parse(raw)
	if err != nil {
		return nil, &ServiceError{StatusCode: http.StatusBadRequest, Message: "invalid feed document: " + err.Error()}
	}

	// A started pass runs to completion. The request context would cancel
	// the remaining product transactions if the client disconnects mid-pass,
	// leaving the upload half applied.
	result := s.writeRecords(context.WithoutCancel(ctx), nil, records, nil)
	s.logger.Info("upload processed",
		zap.Int("success", result.SuccessCount),
		zap.Int("errors", result.ErrorCount),
	)
	return &result, nil
}

func (s *ingestServiceImpl) RefreshSource(ctx context.Context, source *models.FeedSource) error {
	return s.run(ctx, source, nil)
}

func (s *ingestServiceImpl) StartRefresh(source *models.FeedSource) {
	go func() {
		if err := s.run(context.Background(), source, nil); err != nil {
			s.logger.Error("background refresh failed",
				zap.Uint("source_id", source.ID),
				zap.Error(err),
			)
		}
	}()
}

// runTracked runs one pass, mirroring its phases into the progress tracker.
func (s *ingestServiceImpl) runTracked(ctx context.Context, source *models.FeedSource, runID string) error {
	err := s.run(ctx, source, func(st progress.State) {
		s.tracker.Set(runID, st)
	})
	if err != nil {
		s.tracker.Fail(runID, "failed: "+err.Error())
	}
	return err
}

// run executes one full-refresh reconciliation pass for a source. report is
// optional. At most one pass runs per source; a concurrent attempt is
// rejected, never queued.
func (s *ingestServiceImpl) run(ctx context.Context, source *models.FeedSource, report func(progress.State)) error {
	if !s.locks.acquire(source.ID) {
		return ErrIngestionInProgress
	}
	defer s.locks.release(source.ID)

	// Once the pass holds the source lock it runs to completion. Caller
	// cancellation mid-pass would strand the source between the delete and
	// the inserts.
	ctx = context.WithoutCancel(ctx)

	if report == nil {
		report = func(progress.State) {}
	}
	report(progress.State{Progress: 0, Status: progress.PhaseDownloading})

	raw, err := s.fetcher.Fetch(ctx, source.URL)
	if err != nil {
		return err
	}

	report(progress.State{Progress: 20, Status: progress.PhaseParsing})

	records, err := parser.Parse(raw)
	if err != nil {
		return err
	}

	// Full refresh: drop the source's current product set so every record in
	// this pass is an insert, and products absent from the feed disappear.
	report(progress.State{Progress: 30, Status: progress.PhaseDeleting, TotalCount: len(records)})
	if err := s.repo.DeleteSourceProducts(ctx, source.ID); err != nil {
		return err
	}

	result := s.writeRecords(ctx, &source.ID, records, report)

	count, err := s.repo.CountSourceProducts(ctx, source.ID)
	if err != nil {
		s.logger.Warn("product recount failed", zap.Uint("source_id", source.ID), zap.Error(err))
		count = int64(result.SuccessCount)
	}
	next := time.Now().Add(s.refreshInterval)
	if err := s.repo.FinishIngest(ctx, source.ID, int(count), next); err != nil {
		s.logger.Warn("source bookkeeping update failed", zap.Uint("source_id", source.ID), zap.Error(err))
	}

	report(progress.State{
		Progress:     100,
		Status:       progress.PhaseCompleted,
		CurrentCount: result.SuccessCount,
		TotalCount:   result.TotalCount,
	})
	s.logger.Info("ingestion pass finished",
		zap.Uint("source_id", source.ID),
		zap.Int("success", result.SuccessCount),
		zap.Int("errors", result.ErrorCount),
	)
	return nil
}

// writeRecords reconciles parsed records one product transaction at a time.
// A failing record is counted and skipped; it never rolls back earlier
// records or blocks later ones.
func (s *ingestServiceImpl) writeRecords(ctx context.Context, sourceID *uint, records []models.ProductRecord, report func(progress.State)) PassResult {
	result := PassResult{TotalCount: len(records)}

	for i := range records {
		rec := &records[i]

		if rec.ID <= 0 {
			result.ErrorCount++
			s.logger.Warn("record without a usable product id skipped",
				zap.String("product_code", rec.ProductCode),
			)
			continue
		}

		skipped, err := s.repo.SaveProduct(ctx, rec.Product(sourceID), rec.VariantRows())
		if err != nil {
			result.ErrorCount++
			s.logger.Warn("product write failed",
				zap.Int64("product_id", rec.ID),
				zap.Error(err),
			)
			continue
		}
		if skipped > 0 {
			s.logger.Warn("variants skipped",
				zap.Int64("product_id", rec.ID),
				zap.Int("skipped", skipped),
			)
		}
		result.SuccessCount++

		if report != nil && i%10 == 0 {
			result.reportLoading(report, i)
		}
	}
	return result
}

func (r PassResult) reportLoading(report func(progress.State), current int) {
	pct := 30
	if r.TotalCount > 0 {
		pct = 30 + current*70/r.TotalCount
	}
	report(progress.State{
		Progress:     pct,
		Status:       progress.PhaseLoading,
		CurrentCount: current,
		TotalCount:   r.TotalCount,
	})
}
