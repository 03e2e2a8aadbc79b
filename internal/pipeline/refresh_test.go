package pipeline_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-feed-service/internal/domain"
	"github.com/couchcryptid/quake-feed-service/internal/observability"
	"github.com/couchcryptid/quake-feed-service/internal/pipeline"
)

// gatedCall is one in-flight Run waiting for the test to release it.
type gatedCall struct {
	settings domain.FilterSettings
	release  chan []domain.PresentedRecord
}

// gatedRunner blocks each Run until the test releases it with a result.
type gatedRunner struct {
	started chan gatedCall
}

func newGatedRunner() *gatedRunner {
	return &gatedRunner{started: make(chan gatedCall)}
}

func (g *gatedRunner) Run(_ context.Context, _ string, s domain.FilterSettings) ([]domain.PresentedRecord, error) {
	call := gatedCall{settings: s, release: make(chan []domain.PresentedRecord)}
	g.started <- call
	return <-call.release, nil
}

func freezeClock(t *testing.T) *clockwork.FakeClock {
	t.Helper()
	fc := clockwork.NewFakeClockAt(time.Date(2021, time.January, 1, 0, 5, 0, 0, time.UTC))
	pipeline.SetClock(fc)
	t.Cleanup(func() { pipeline.SetClock(nil) })
	return fc
}

func TestRefresher_StoresResult(t *testing.T) {
	fc := freezeClock(t)
	p := pipeline.New(&mockFetcher{body: sampleFeed}, nil, nil, discardLogger(), observability.NewMetricsForTesting())
	r := pipeline.NewRefresher(p, testEndpoint, observability.NewMetricsForTesting(), discardLogger())

	assert.Equal(t, pipeline.StateIdle, r.Latest().State())

	snap, fresh := r.Refresh(context.Background(), testSettings())
	require.True(t, fresh)
	assert.Equal(t, uint64(1), snap.Seq)
	assert.Equal(t, pipeline.StateResults, snap.State())
	assert.Equal(t, fc.Now(), snap.FetchedAt)
	assert.Equal(t, snap, r.Latest())
}

func TestRefresher_ErrorAndEmptyAreDistinct(t *testing.T) {
	freezeClock(t)

	offline := pipeline.New(&mockFetcher{body: sampleFeed}, mockConnectivity{connected: false}, nil, discardLogger(), observability.NewMetricsForTesting())
	r := pipeline.NewRefresher(offline, testEndpoint, observability.NewMetricsForTesting(), discardLogger())
	snap, _ := r.Refresh(context.Background(), testSettings())
	assert.Equal(t, pipeline.StateError, snap.State())
	assert.ErrorIs(t, snap.Err, domain.ErrNoConnectivity)

	empty := pipeline.New(&mockFetcher{body: `{"features":[]}`}, nil, nil, discardLogger(), observability.NewMetricsForTesting())
	r = pipeline.NewRefresher(empty, testEndpoint, observability.NewMetricsForTesting(), discardLogger())
	snap, _ = r.Refresh(context.Background(), testSettings())
	assert.Equal(t, pipeline.StateEmpty, snap.State())
	assert.NoError(t, snap.Err)
}

func TestRefresher_DiscardsStaleCompletion(t *testing.T) {
	freezeClock(t)
	runner := newGatedRunner()
	metrics := observability.NewMetricsForTesting()
	r := pipeline.NewRefresher(runner, testEndpoint, metrics, discardLogger())

	type outcome struct {
		snap  pipeline.Snapshot
		fresh bool
	}
	first := make(chan outcome, 1)
	second := make(chan outcome, 1)

	older := domain.FilterSettings{MinMagnitude: "1", OrderBy: domain.OrderByTime, ResultLimit: "5"}
	newer := domain.FilterSettings{MinMagnitude: "5", OrderBy: domain.OrderByTime, ResultLimit: "5"}

	go func() {
		s, ok := r.Refresh(context.Background(), older)
		first <- outcome{s, ok}
	}()
	olderCall := <-runner.started
	require.Equal(t, older, olderCall.settings)

	go func() {
		s, ok := r.Refresh(context.Background(), newer)
		second <- outcome{s, ok}
	}()
	newerCall := <-runner.started
	require.Equal(t, newer, newerCall.settings)

	// The newer request finishes first, then the older one arrives late.
	newerCall.release <- []domain.PresentedRecord{{PrimaryLocation: "newer"}}
	got2 := <-second
	olderCall.release <- []domain.PresentedRecord{{PrimaryLocation: "older"}}
	got1 := <-first

	assert.True(t, got2.fresh)
	assert.False(t, got1.fresh)
	assert.Equal(t, "newer", r.Latest().Records[0].PrimaryLocation)
	assert.Equal(t, newer, r.Latest().Settings)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.StaleResults), 0)
}

// cancelAwareRunner fails with the context error once the caller has gone away.
type cancelAwareRunner struct {
	records []domain.PresentedRecord
}

func (c cancelAwareRunner) Run(ctx context.Context, _ string, _ domain.FilterSettings) ([]domain.PresentedRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	return c.records, nil
}

func TestRefresher_DiscardsAbandonedRequest(t *testing.T) {
	freezeClock(t)
	metrics := observability.NewMetricsForTesting()
	runner := cancelAwareRunner{records: []domain.PresentedRecord{{PrimaryLocation: "Cairo, Egypt"}}}
	r := pipeline.NewRefresher(runner, testEndpoint, metrics, discardLogger())

	good, fresh := r.Refresh(context.Background(), testSettings())
	require.True(t, fresh)
	require.Equal(t, pipeline.StateResults, good.State())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	snap, fresh := r.Refresh(ctx, testSettings())

	assert.False(t, fresh)
	assert.ErrorIs(t, snap.Err, context.Canceled)
	assert.Equal(t, good, r.Latest(), "abandoned request must not replace the stored result")
	assert.Equal(t, pipeline.StateResults, r.Latest().State())
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.StaleResults), 0)
}
