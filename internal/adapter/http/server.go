package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/quake-feed-service/internal/domain"
	"github.com/couchcryptid/quake-feed-service/internal/pipeline"
)

// Server exposes the earthquake feed as JSON alongside health, readiness,
// and metrics endpoints.
type Server struct {
	httpServer *http.Server
	refresher  *pipeline.Refresher
	defaults   domain.FilterSettings
	logger     *slog.Logger
}

// responseSlack is the write allowance on top of the worst-case feed fetch.
const responseSlack = 5 * time.Second

// WriteTimeout returns the response deadline for a handler that waits on a
// feed fetch taking at most fetchBudget.
func WriteTimeout(fetchBudget time.Duration) time.Duration {
	return fetchBudget + responseSlack
}

// NewServer creates an HTTP server with /earthquakes, /earthquakes/latest,
// /healthz, /readyz, and /metrics routes. Query parameters on /earthquakes
// override the given default filter settings. fetchBudget is the longest a
// single pipeline run may take.
func NewServer(addr string, fetchBudget time.Duration, ready sharedobs.ReadinessChecker, refresher *pipeline.Refresher, defaults domain.FilterSettings, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: WriteTimeout(fetchBudget),
			IdleTimeout:  60 * time.Second,
		},
		refresher: refresher,
		defaults:  defaults,
		logger:    logger,
	}

	mux.HandleFunc("GET /earthquakes", s.handleEarthquakes)
	mux.HandleFunc("GET /earthquakes/latest", s.handleLatest)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type feedResponse struct {
	State     string                   `json:"state"`
	Stale     bool                     `json:"stale,omitempty"`
	Settings  *domain.FilterSettings   `json:"settings,omitempty"`
	Records   []domain.PresentedRecord `json:"records"`
	Error     *errorBody               `json:"error,omitempty"`
	FetchedAt *time.Time               `json:"fetched_at,omitempty"`
}

type errorBody struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func (s *Server) handleEarthquakes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	settings := domain.FilterSettings{
		MinMagnitude: q.Get("minmag"),
		OrderBy:      q.Get("orderby"),
		ResultLimit:  q.Get("limit"),
	}.WithDefaults(s.defaults)

	if err := settings.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	snap, fresh := s.refresher.Refresh(r.Context(), settings)
	resp := toResponse(snap)
	resp.Stale = !fresh

	status := http.StatusOK
	if snap.Err != nil {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleLatest(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toResponse(s.refresher.Latest()))
}

func toResponse(snap pipeline.Snapshot) feedResponse {
	resp := feedResponse{
		State:   snap.State(),
		Records: snap.Records,
	}
	if resp.Records == nil {
		resp.Records = []domain.PresentedRecord{}
	}
	if snap.Seq == 0 {
		return resp
	}
	resp.Settings = &snap.Settings
	resp.FetchedAt = &snap.FetchedAt
	if snap.Err != nil {
		resp.Error = describeError(snap.Err)
	}
	return resp
}

func describeError(err error) *errorBody {
	body := &errorBody{Kind: "unknown", Message: err.Error(), Retryable: true}
	var fe *domain.FetchError
	if errors.As(err, &fe) {
		body.Kind = fe.Kind.String()
		body.Retryable = fe.Retryable()
	}
	return body
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
