package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"catalog-feed-service/models"
	"catalog-feed-service/services"
)

type stubRepo struct {
	mu       sync.Mutex
	active   []models.FeedSource
	inactive []models.FeedSource
	listErr  error
	cleaned  []uint
}

func (r *stubRepo) CreateSource(ctx context.Context, src *models.FeedSource) error { return nil }
func (r *stubRepo) FindSourceByID(ctx context.Context, id uint) (*models.FeedSource, error) {
	return nil, nil
}
func (r *stubRepo) FindSourceByURL(ctx context.Context, url string) (*models.FeedSource, error) {
	return nil, nil
}
func (r *stubRepo) ListSources(ctx context.Context) ([]models.FeedSource, error) { return nil, nil }
func (r *stubRepo) ListSourcesByStatus(ctx context.Context, status string) ([]models.FeedSource, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	if status == models.SourceStatusActive {
		return r.active, nil
	}
	return r.inactive, nil
}
func (r *stubRepo) UpdateSourceStatus(ctx context.Context, id uint, status string) error { return nil }
func (r *stubRepo) FinishIngest(ctx context.Context, id uint, count int, next time.Time) error {
	return nil
}
func (r *stubRepo) CountSourceProducts(ctx context.Context, id uint) (int64, error) { return 0, nil }
func (r *stubRepo) DeleteSourceProducts(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleaned = append(r.cleaned, id)
	return nil
}
func (r *stubRepo) DeleteSource(ctx context.Context, id uint) error { return nil }
func (r *stubRepo) SaveProduct(ctx context.Context, product *models.Product, variants []models.Variant) (int, error) {
	return 0, nil
}

type stubIngestor struct {
	mu        sync.Mutex
	refreshed []uint
	failFor   map[uint]error
}

func (s *stubIngestor) IngestFromURL(ctx context.Context, url string) (*models.FeedSource, string, *services.ServiceError) {
	return nil, "", nil
}
func (s *stubIngestor) IngestUpload(ctx context.Context, raw []byte) (*services.PassResult, *services.ServiceError) {
	return nil, nil
}
func (s *stubIngestor) RefreshSource(ctx context.Context, source *models.FeedSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshed = append(s.refreshed, source.ID)
	if err, ok := s.failFor[source.ID]; ok {
		return err
	}
	return nil
}
func (s *stubIngestor) StartRefresh(source *models.FeedSource) {}

func (s *stubIngestor) refreshCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.refreshed)
}

func TestSweepRefreshesActiveSources(t *testing.T) {
	repo := &stubRepo{
		active: []models.FeedSource{
			{ID: 1, URL: "https://a.example/feed.xml", Status: models.SourceStatusActive},
			{ID: 2, URL: "https://b.example/feed.xml", Status: models.SourceStatusActive},
		},
	}
	ingestor := &stubIngestor{}
	sched := New(repo, ingestor, zap.NewNop())

	sched.Sweep(context.Background())

	assert.Equal(t, []uint{1, 2}, ingestor.refreshed)
	assert.Empty(t, repo.cleaned)
}

func TestSweepCleansInactiveSources(t *testing.T) {
	repo := &stubRepo{
		inactive: []models.FeedSource{
			{ID: 7, Status: models.SourceStatusInactive},
			{ID: 9, Status: models.SourceStatusInactive},
		},
	}
	ingestor := &stubIngestor{}
	sched := New(repo, ingestor, zap.NewNop())

	sched.Sweep(context.Background())

	assert.Empty(t, ingestor.refreshed)
	assert.Equal(t, []uint{7, 9}, repo.cleaned)
}

func TestSweepContinuesAfterRefreshFailure(t *testing.T) {
	repo := &stubRepo{
		active: []models.FeedSource{
			{ID: 1, URL: "https://a.example/feed.xml", Status: models.SourceStatusActive},
			{ID: 2, URL: "https://b.example/feed.xml", Status: models.SourceStatusActive},
			{ID: 3, URL: "https://c.example/feed.xml", Status: models.SourceStatusActive},
		},
		inactive: []models.FeedSource{{ID: 4, Status: models.SourceStatusInactive}},
	}
	ingestor := &stubIngestor{failFor: map[uint]error{2: errors.New("fetch timeout")}}
	sched := New(repo, ingestor, zap.NewNop())

	sched.Sweep(context.Background())

	assert.Equal(t, []uint{1, 2, 3}, ingestor.refreshed)
	assert.Equal(t, []uint{4}, repo.cleaned)
}

func TestSweepStopsOnListError(t *testing.T) {
	repo := &stubRepo{listErr: errors.New("connection refused")}
	ingestor := &stubIngestor{}
	sched := New(repo, ingestor, zap.NewNop())

	sched.Sweep(context.Background())

	assert.Empty(t, ingestor.refreshed)
	assert.Empty(t, repo.cleaned)
}

func TestRunSweepsOnInterval(t *testing.T) {
	repo := &stubRepo{
		active: []models.FeedSource{{ID: 1, URL: "https://a.example/feed.xml", Status: models.SourceStatusActive}},
	}
	ingestor := &stubIngestor{}
	sched := New(repo, ingestor, zap.NewNop())
	sched.SetInterval(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return ingestor.refreshCount() >= 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
