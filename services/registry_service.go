package services

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"catalog-feed-service/models"
	"catalog-feed-service/repository"
)

// RegistryService manages the set of registered feed sources.
type RegistryService interface {
	List(ctx context.Context) ([]models.FeedSource, *ServiceError)
	// ToggleStatus flips a source between active and inactive. Going
	// inactive deletes the source's products (the row stays); going active
	// kicks off a background re-ingestion.
	ToggleStatus(ctx context.Context, id uint) (string, *ServiceError)
	// Remove deletes the source's products and the source row in a single
	// transaction.
	Remove(ctx context.Context, id uint) *ServiceError
}

type registryServiceImpl struct {
	repo     repository.CatalogRepository
	ingestor IngestService
	logger   *zap.Logger
}

// NewRegistryService creates a new RegistryService. ingestor is used to
// re-ingest a source when it is toggled back to active.
func NewRegistryService(repo repository.CatalogRepository, ingestor IngestService, logger *zap.Logger) RegistryService {
	return &registryServiceImpl{repo: repo, ingestor: ingestor, logger: logger}
}

// List returns all sources with their product counts refreshed from the
// products table, so the numbers stay honest even right after a toggle.
func (s *registryServiceImpl) List(ctx context.Context) ([]models.FeedSource, *ServiceError) {
	sources, err := s.repo.ListSources(ctx)
	if err != nil {
		s.logger.Error("source list failed", zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "failed to list feed sources"}
	}
	for i := range sources {
		count, err := s.repo.CountSourceProducts(ctx, sources[i].ID)
		if err != nil {
			s.logger.Warn("product count failed", zap.Uint("source_id", sources[i].ID), zap.Error(err))
			continue
		}
		sources[i].ProductCount = int(count)
	}
	return sources, nil
}

func (s *registryServiceImpl) ToggleStatus(ctx context.Context, id uint) (string, *ServiceError) {
	source, err := s.repo.FindSourceByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", &ServiceError{StatusCode: http.StatusNotFound, Message: ErrSourceNotFound.Error()}
		}
		s.logger.Error("source lookup failed", zap.Uint("source_id", id), zap.Error(err))
		return "", &ServiceError{StatusCode: http.StatusInternalServerError, Message: "failed to load feed source"}
	}

	newStatus := models.SourceStatusActive
	if source.Status == models.SourceStatusActive {
		newStatus = models.SourceStatusInactive
	}

	if err := s.repo.UpdateSourceStatus(ctx, id, newStatus); err != nil {
		s.logger.Error("status update failed", zap.Uint("source_id", id), zap.Error(err))
		return "", &ServiceError{StatusCode: http.StatusInternalServerError, Message: "failed to update feed status"}
	}

	switch newStatus {
	case models.SourceStatusInactive:
		if err := s.repo.DeleteSourceProducts(ctx, id); err != nil {
			s.logger.Error("product cleanup failed", zap.Uint("source_id", id), zap.Error(err))
			return "", &ServiceError{StatusCode: http.StatusInternalServerError, Message: "failed to remove products for deactivated feed"}
		}
	case models.SourceStatusActive:
		source.Status = newStatus
		s.ingestor.StartRefresh(source)
	}

	s.logger.Info("source status toggled", zap.Uint("source_id", id), zap.String("status", newStatus))
	return newStatus, nil
}

func (s *registryServiceImpl) Remove(ctx context.Context, id uint) *ServiceError {
	if _, err := s.repo.FindSourceByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ServiceError{StatusCode: http.StatusNotFound, Message: ErrSourceNotFound.Error()}
		}
		s.logger.Error("source lookup failed", zap.Uint("source_id", id), zap.Error(err))
		return &ServiceError{StatusCode: http.StatusInternalServerError, Message: "failed to load feed source"}
	}

	if err := s.repo.DeleteSource(ctx, id); err != nil {
		s.logger.Error("source delete failed", zap.Uint("source_id", id), zap.Error(err))
		return &ServiceError{StatusCode: http.StatusInternalServerError, Message: "failed to delete feed source"}
	}

	s.logger.Info("source removed", zap.Uint("source_id", id))
	return nil
}
