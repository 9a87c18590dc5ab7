// Package progress tracks per-run ingestion status cells.
package progress

import (
	"context"
	"sync"
	"time"
)

// Phase labels reported while a feed is ingested.
const (
	PhaseDownloading = "downloading feed"
	PhaseParsing     = "parsing feed"
	PhaseDeleting    = "removing old products"
	PhaseLoading     = "loading products"
	PhaseCompleted   = "completed"
)

// State is one observable snapshot of an in-flight ingestion run.
type State struct {
	Progress     int    `json:"progress"`
	Status       string `json:"status"`
	CurrentCount int    `json:"current_count"`
	TotalCount   int    `json:"total_count"`
	Failed       bool   `json:"failed,omitempty"`
}

type cell struct {
	state State
	// Zero while the run is in flight; set once the run reaches 100 so the
	// janitor can evict the cell after the retention window.
	expiresAt time.Time
}

// Tracker is a keyed store of run status cells. A completed cell is retained
// for a short window so late pollers still see the final state, then evicted.
// An absent cell means "not started" or "already cleaned up", never an error.
type Tracker struct {
	mu   sync.RWMutex
	runs map[string]*cell
	ttl  time.Duration
}

// NewTracker creates a Tracker retaining completed cells for ttl.
func NewTracker(ttl time.Duration) *Tracker {
	return &Tracker{
		runs: make(map[string]*cell),
		ttl:  ttl,
	}
}

// Start registers a new run cell at zero progress.
func (t *Tracker) Start(runID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runs[runID] = &cell{state: State{Status: PhaseDownloading}}
}

// Set updates a run's cell. Progress never moves backwards within a run;
// a stale lower value keeps the previous percentage. Reaching 100 arms the
// retention window.
func (t *Tracker) Set(runID string, s State) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.runs[runID]
	if !ok {
		c = &cell{}
		t.runs[runID] = c
	}
	if s.Progress < c.state.Progress {
		s.Progress = c.state.Progress
	}
	if s.Progress > 100 {
		s.Progress = 100
	}
	c.state = s
	if s.Progress >= 100 && c.expiresAt.IsZero() {
		c.expiresAt = time.Now().Add(t.ttl)
	}
}

// Fail marks a run as failed. The cell keeps its last percentage, reports the
// failure text, and is evicted after the retention window like a completed
// run.
func (t *Tracker) Fail(runID, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.runs[runID]
	if !ok {
		return
	}
	c.state.Status = msg
	c.state.Failed = true
	if c.expiresAt.IsZero() {
		c.expiresAt = time.Now().Add(t.ttl)
	}
}

// Get returns the current state for a run, if the cell still exists.
func (t *Tracker) Get(runID string) (State, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.runs[runID]
	if !ok {
		return State{}, false
	}
	return c.state, true
}

// Run drives TTL eviction of completed cells, blocking until ctx is
// cancelled.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			t.evict(now)
		}
	}
}

func (t *Tracker) evict(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, c := range t.runs {
		if !c.expiresAt.IsZero() && now.After(c.expiresAt) {
			delete(t.runs, id)
		}
	}
}
