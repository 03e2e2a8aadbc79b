package usgs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/quake-feed-service/internal/domain"
	"github.com/couchcryptid/quake-feed-service/internal/observability"
)

const (
	DefaultConnectTimeout = 15 * time.Second
	DefaultReadTimeout    = 10 * time.Second

	userAgent = "quake-feed-service"
)

// FetchBudget is the worst-case duration of one pipeline run: the
// connectivity probe, dial and TLS handshake each bounded by connectTimeout,
// then headers and body each bounded by readTimeout.
func FetchBudget(connectTimeout, readTimeout time.Duration) time.Duration {
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	return 3*connectTimeout + 2*readTimeout
}

// Client performs single GET requests against the feed. It implements
// pipeline.Fetcher.
type Client struct {
	httpClient  *http.Client
	readTimeout time.Duration
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// NewClient creates a feed client. Non-positive timeouts fall back to the
// defaults. Keep-alives are disabled so every call opens and closes its own
// connection.
func NewClient(connectTimeout, readTimeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	dialer := &net.Dialer{Timeout: connectTimeout}
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           dialer.DialContext,
				TLSHandshakeTimeout:   connectTimeout,
				ResponseHeaderTimeout: readTimeout,
				DisableKeepAlives:     true,
			},
		},
		readTimeout: readTimeout,
		metrics:     metrics,
		logger:      logger,
	}
}

// Fetch GETs rawURL and returns the full body of a 200 response.
// An empty rawURL is a no-op and returns an empty body with no error.
// Failures are *domain.FetchError values, except caller cancellation which
// returns the context error.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if rawURL == "" {
		return nil, nil
	}
	if err := checkURL(rawURL); err != nil {
		c.observe("invalid_url", 0)
		return nil, &domain.FetchError{Kind: domain.KindInvalidURL, URL: rawURL, Err: err}
	}

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		c.observe("invalid_url", 0)
		return nil, &domain.FetchError{Kind: domain.KindInvalidURL, URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/geo+json, application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		ferr := classify(ctx, rawURL, err)
		c.observe(outcome(ferr), time.Since(start))
		return nil, ferr
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.observe("http_status", time.Since(start))
		c.logger.Warn("feed returned non-200 status", "status", resp.StatusCode, "url", rawURL)
		return nil, &domain.FetchError{Kind: domain.KindHTTPStatus, StatusCode: resp.StatusCode, URL: rawURL}
	}

	// Headers arrived; the body now gets its own read budget.
	var expired atomic.Bool
	timer := time.AfterFunc(c.readTimeout, func() {
		expired.Store(true)
		cancel()
	})
	defer timer.Stop()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		var ferr error
		if expired.Load() {
			ferr = &domain.FetchError{Kind: domain.KindReadTimeout, URL: rawURL, Err: err}
		} else {
			ferr = classify(ctx, rawURL, err)
		}
		c.observe(outcome(ferr), time.Since(start))
		return nil, ferr
	}

	c.observe("success", time.Since(start))
	c.logger.Debug("feed response",
		"status", resp.StatusCode,
		"bytes", len(body),
		"latency", time.Since(start),
	)
	return body, nil
}

func (c *Client) observe(result string, d time.Duration) {
	c.metrics.FetchRequests.WithLabelValues(result).Inc()
	if d > 0 {
		c.metrics.FetchDuration.Observe(d.Seconds())
	}
}

func checkURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

// classify maps a transport error onto the fetch error taxonomy.
func classify(ctx context.Context, rawURL string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("fetch %s: %w", rawURL, ctxErr)
	}

	kind := domain.KindTransport
	var opErr *net.OpError
	var netErr net.Error
	switch {
	case errors.As(err, &opErr) && opErr.Op == "dial":
		if opErr.Timeout() {
			kind = domain.KindConnectTimeout
		}
	case errors.As(err, &netErr) && netErr.Timeout():
		if strings.Contains(err.Error(), "TLS handshake timeout") {
			kind = domain.KindConnectTimeout
		} else {
			kind = domain.KindReadTimeout
		}
	}
	return &domain.FetchError{Kind: kind, URL: rawURL, Err: err}
}

func outcome(err error) string {
	var ferr *domain.FetchError
	if errors.As(err, &ferr) {
		return ferr.Kind.String()
	}
	return "cancelled"
}
