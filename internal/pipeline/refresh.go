package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/quake-feed-service/internal/domain"
	"github.com/couchcryptid/quake-feed-service/internal/observability"
)

// Runner is the operation a Refresher drives; *Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, endpoint string, settings domain.FilterSettings) ([]domain.PresentedRecord, error)
}

// Snapshot states.
const (
	StateIdle    = "idle"
	StateResults = "results"
	StateEmpty   = "empty"
	StateError   = "error"
)

// Snapshot is the outcome of one refresh.
type Snapshot struct {
	Seq       uint64
	Settings  domain.FilterSettings
	Records   []domain.PresentedRecord
	Err       error
	FetchedAt time.Time
}

// State tells "no results" apart from a failed fetch.
func (s Snapshot) State() string {
	switch {
	case s.Seq == 0:
		return StateIdle
	case s.Err != nil:
		return StateError
	case len(s.Records) == 0:
		return StateEmpty
	default:
		return StateResults
	}
}

// Refresher holds the latest feed result for a caller. Every Refresh is
// numbered; a completion that is not from the newest request, or whose
// context was cancelled, is discarded rather than stored.
type Refresher struct {
	runner   Runner
	endpoint string
	metrics  *observability.Metrics
	logger   *slog.Logger

	mu     sync.Mutex
	seq    uint64
	latest Snapshot
}

// NewRefresher creates a Refresher for the given feed endpoint.
func NewRefresher(runner Runner, endpoint string, metrics *observability.Metrics, logger *slog.Logger) *Refresher {
	return &Refresher{
		runner:   runner,
		endpoint: endpoint,
		metrics:  metrics,
		logger:   logger,
	}
}

// Refresh runs the pipeline and stores the result if no newer Refresh was
// issued meanwhile and the caller is still waiting for it. The returned bool
// is false for a discarded result.
func (r *Refresher) Refresh(ctx context.Context, settings domain.FilterSettings) (Snapshot, bool) {
	r.mu.Lock()
	r.seq++
	seq := r.seq
	r.mu.Unlock()

	records, err := r.runner.Run(ctx, r.endpoint, settings)
	snap := Snapshot{
		Seq:       seq,
		Settings:  settings,
		Records:   records,
		Err:       err,
		FetchedAt: clock.Now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if ctx.Err() != nil {
		r.metrics.StaleResults.Inc()
		r.logger.Debug("discarding abandoned refresh", "seq", seq, "error", ctx.Err())
		return snap, false
	}
	if seq != r.seq {
		r.metrics.StaleResults.Inc()
		r.logger.Debug("discarding stale refresh", "seq", seq, "latest_seq", r.seq)
		return snap, false
	}
	r.latest = snap
	return snap, true
}

// Latest returns the most recent stored snapshot, or an idle one.
func (r *Refresher) Latest() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest
}
