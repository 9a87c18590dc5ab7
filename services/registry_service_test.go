package services_test

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"catalog-feed-service/models"
	"catalog-feed-service/services"
)

// mockIngestor records refresh requests made by the registry.
type mockIngestor struct {
	mu        sync.Mutex
	refreshed []uint
}

func (m *mockIngestor) IngestFromURL(_ context.Context, _ string) (*models.FeedSource, string, *services.ServiceError) {
	return nil, "", nil
}

func (m *mockIngestor) IngestUpload(_ context.Context, _ []byte) (*services.PassResult, *services.ServiceError) {
	return nil, nil
}

func (m *mockIngestor) RefreshSource(_ context.Context, src *models.FeedSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshed = append(m.refreshed, src.ID)
	return nil
}

func (m *mockIngestor) StartRefresh(src *models.FeedSource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshed = append(m.refreshed, src.ID)
}

func (m *mockIngestor) refreshCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.refreshed)
}

func newTestRegistry(repo *fakeCatalogRepo, ing *mockIngestor) services.RegistryService {
	return services.NewRegistryService(repo, ing, zap.NewNop())
}

func TestList_RefreshesProductCounts(t *testing.T) {
	repo := newFakeRepo()
	src := seedActiveSource(repo, "https://supplier.example.com/feed.xml")
	repo.products[1] = &models.Product{ID: 1, XMLURLID: &src.ID}
	repo.products[2] = &models.Product{ID: 2, XMLURLID: &src.ID}
	// Stored counter is stale on purpose.
	repo.sources[src.ID].ProductCount = 99

	svc := newTestRegistry(repo, &mockIngestor{})
	sources, svcErr := svc.List(context.Background())

	assert.Nil(t, svcErr)
	assert.Len(t, sources, 1)
	assert.Equal(t, 2, sources[0].ProductCount)
}

func TestToggleStatus_InactiveDeletesProductsKeepsRow(t *testing.T) {
	repo := newFakeRepo()
	src := seedActiveSource(repo, "https://supplier.example.com/feed.xml")
	repo.products[1] = &models.Product{ID: 1, XMLURLID: &src.ID}

	svc := newTestRegistry(repo, &mockIngestor{})
	status, svcErr := svc.ToggleStatus(context.Background(), src.ID)

	assert.Nil(t, svcErr)
	assert.Equal(t, models.SourceStatusInactive, status)
	assert.Zero(t, repo.productCount())

	stored, err := repo.FindSourceByID(context.Background(), src.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.SourceStatusInactive, stored.Status)
}

func TestToggleStatus_ActiveTriggersRefresh(t *testing.T) {
	repo := newFakeRepo()
	src := seedActiveSource(repo, "https://supplier.example.com/feed.xml")
	repo.sources[src.ID].Status = models.SourceStatusInactive

	ing := &mockIngestor{}
	svc := newTestRegistry(repo, ing)
	status, svcErr := svc.ToggleStatus(context.Background(), src.ID)

	assert.Nil(t, svcErr)
	assert.Equal(t, models.SourceStatusActive, status)
	assert.Equal(t, 1, ing.refreshCount())
}

func TestToggleStatus_UnknownSource(t *testing.T) {
	svc := newTestRegistry(newFakeRepo(), &mockIngestor{})

	status, svcErr := svc.ToggleStatus(context.Background(), 404)

	assert.Empty(t, status)
	assert.NotNil(t, svcErr)
	assert.Equal(t, http.StatusNotFound, svcErr.StatusCode)
}

func TestRemove_DeletesProductsAndSource(t *testing.T) {
	repo := newFakeRepo()
	src := seedActiveSource(repo, "https://supplier.example.com/feed.xml")
	repo.products[1] = &models.Product{ID: 1, XMLURLID: &src.ID}
	repo.variants[1] = []models.Variant{{ProductID: 1, Name1: "Beden", Value1: "M"}}

	svc := newTestRegistry(repo, &mockIngestor{})
	svcErr := svc.Remove(context.Background(), src.ID)

	assert.Nil(t, svcErr)
	assert.Zero(t, repo.productCount())
	_, err := repo.FindSourceByID(context.Background(), src.ID)
	assert.Error(t, err)
}

func TestRemove_UnknownSource(t *testing.T) {
	svc := newTestRegistry(newFakeRepo(), &mockIngestor{})

	svcErr := svc.Remove(context.Background(), 404)

	assert.NotNil(t, svcErr)
	assert.Equal(t, http.StatusNotFound, svcErr.StatusCode)
}

func TestToggleRoundTripRestoresProducts(t *testing.T) {
	repo := newFakeRepo()
	src := seedActiveSource(repo, "https://supplier.example.com/feed.xml")
	repo.products[1] = &models.Product{ID: 1, XMLURLID: &src.ID}

	ing := &mockIngestor{}
	svc := newTestRegistry(repo, ing)

	// active -> inactive empties the source's products.
	_, svcErr := svc.ToggleStatus(context.Background(), src.ID)
	assert.Nil(t, svcErr)
	assert.Zero(t, repo.productCount())

	// inactive -> active schedules a re-ingestion that restores them.
	_, svcErr = svc.ToggleStatus(context.Background(), src.ID)
	assert.Nil(t, svcErr)
	assert.Equal(t, 1, ing.refreshCount())
}
