package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/quake-feed-service/internal/domain"
	"github.com/couchcryptid/quake-feed-service/internal/observability"
)

// Fetcher retrieves the raw feed body for a request URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// ConnectivityChecker reports whether the network is usable before a fetch.
type ConnectivityChecker interface {
	Connected(ctx context.Context) bool
}

// Publisher forwards presented records to a downstream sink.
type Publisher interface {
	Publish(ctx context.Context, records []domain.PresentedRecord) error
}

// Pipeline runs build-fetch-parse-present for one request at a time per call.
// It keeps no per-request state, so concurrent Run calls are independent.
type Pipeline struct {
	fetcher      Fetcher
	connectivity ConnectivityChecker
	publisher    Publisher
	logger       *slog.Logger
	metrics      *observability.Metrics
	ready        atomic.Bool
}

// New creates a Pipeline. A nil connectivity checker skips the precheck and
// a nil publisher disables the sink.
func New(f Fetcher, c ConnectivityChecker, pub Publisher, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		fetcher:      f,
		connectivity: c,
		publisher:    pub,
		logger:       logger,
		metrics:      metrics,
	}
}

// CheckReadiness returns nil once a run has completed against the feed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no successful feed fetch yet")
	}
	return nil
}

// Run fetches the feed for settings and returns the presented records.
// An empty, non-nil slice means the feed had no usable events; any error is
// a fetch-stage failure and comes with no records.
func (p *Pipeline) Run(ctx context.Context, endpoint string, settings domain.FilterSettings) ([]domain.PresentedRecord, error) {
	start := time.Now()
	requestURL := domain.BuildQueryURL(endpoint, settings)

	if p.connectivity != nil && !p.connectivity.Connected(ctx) {
		p.metrics.PipelineRuns.WithLabelValues("no_connectivity").Inc()
		p.logger.Warn("no network connectivity, skipping fetch", "url", requestURL)
		return nil, &domain.FetchError{Kind: domain.KindNoConnectivity, URL: requestURL}
	}

	body, err := p.fetcher.Fetch(ctx, requestURL)
	if err != nil {
		p.metrics.PipelineRuns.WithLabelValues("error").Inc()
		p.logger.Error("fetch feed failed", "url", requestURL, "error", err)
		return nil, fmt.Errorf("fetch feed: %w", err)
	}

	feed := domain.ParseFeed(body)
	if feed.Err != nil {
		p.metrics.FeedErrors.Inc()
		p.logger.Warn("feed unreadable, returning no records", "error", feed.Err, "bytes", len(body))
	}
	for _, s := range feed.Skipped {
		p.logger.Warn("skipping malformed feature", "index", s.Index, "error", s.Err)
	}
	p.metrics.FeaturesSkipped.Add(float64(len(feed.Skipped)))

	records := domain.PresentAll(feed.Records)
	p.publish(ctx, records)

	result := "results"
	if len(records) == 0 {
		result = "empty"
	}
	p.metrics.PipelineRuns.WithLabelValues(result).Inc()
	p.metrics.RecordsPresented.Add(float64(len(records)))
	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)

	p.logger.Info("feed run complete",
		"records", len(records),
		"skipped", len(feed.Skipped),
		"min_magnitude", settings.MinMagnitude,
		"order_by", settings.OrderBy,
		"limit", settings.ResultLimit,
		"duration", time.Since(start),
	)
	return records, nil
}

// publish is best effort: sink failures are logged and never reach the caller.
func (p *Pipeline) publish(ctx context.Context, records []domain.PresentedRecord) {
	if p.publisher == nil || len(records) == 0 {
		return
	}
	if err := p.publisher.Publish(ctx, records); err != nil {
		p.metrics.PublishErrors.Inc()
		p.logger.Warn("publish records failed", "error", err, "records", len(records))
		return
	}
	p.metrics.RecordsPublished.Add(float64(len(records)))
}
