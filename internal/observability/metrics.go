package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the feed pipeline.
type Metrics struct {
	// Fetch metrics.
	FetchRequests *prometheus.CounterVec // labels: outcome={success,invalid_url,connect_timeout,read_timeout,http_status,transport,cancelled}
	FetchDuration prometheus.Histogram

	// Pipeline metrics.
	PipelineRuns     *prometheus.CounterVec // labels: result={results,empty,error,no_connectivity}
	RecordsPresented prometheus.Counter
	FeaturesSkipped  prometheus.Counter
	FeedErrors       prometheus.Counter
	RunDuration      prometheus.Histogram
	StaleResults     prometheus.Counter

	// Sink metrics.
	RecordsPublished prometheus.Counter
	PublishErrors    prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake_feed",
			Name:      "fetch_requests_total",
			Help:      "Feed HTTP requests by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quake_feed",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a feed request including the body read.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
		}),
		PipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake_feed",
			Name:      "pipeline_runs_total",
			Help:      "Pipeline runs by result.",
		}, []string{"result"}),
		RecordsPresented: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_feed",
			Name:      "records_presented_total",
			Help:      "Total earthquake records returned to callers.",
		}),
		FeaturesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_feed",
			Name:      "features_skipped_total",
			Help:      "Feed features dropped for missing or mistyped fields.",
		}),
		FeedErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_feed",
			Name:      "feed_errors_total",
			Help:      "Feed bodies that could not be read as a feature collection.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quake_feed",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete build-fetch-parse-present run.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
		}),
		StaleResults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_feed",
			Name:      "stale_results_total",
			Help:      "Refresh results discarded because a newer refresh was issued or the caller went away.",
		}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_feed",
			Name:      "records_published_total",
			Help:      "Presented records written to the sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_feed",
			Name:      "publish_errors_total",
			Help:      "Failed sink publish attempts.",
		}),
	}

	prometheus.MustRegister(
		m.FetchRequests,
		m.FetchDuration,
		m.PipelineRuns,
		m.RecordsPresented,
		m.FeaturesSkipped,
		m.FeedErrors,
		m.RunDuration,
		m.StaleResults,
		m.RecordsPublished,
		m.PublishErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FetchRequests:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "quake_feed", Name: "fetch_requests_total"}, []string{"outcome"}),
		FetchDuration:    prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "quake_feed", Name: "fetch_duration_seconds"}),
		PipelineRuns:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "quake_feed", Name: "pipeline_runs_total"}, []string{"result"}),
		RecordsPresented: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quake_feed", Name: "records_presented_total"}),
		FeaturesSkipped:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quake_feed", Name: "features_skipped_total"}),
		FeedErrors:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quake_feed", Name: "feed_errors_total"}),
		RunDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "quake_feed", Name: "run_duration_seconds"}),
		StaleResults:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quake_feed", Name: "stale_results_total"}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quake_feed", Name: "records_published_total"}),
		PublishErrors:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quake_feed", Name: "publish_errors_total"}),
	}
}
