package usgs

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"
)

// proxyFunc resolves the proxy for a request, as http.Transport.Proxy does.
type proxyFunc func(*http.Request) (*url.URL, error)

// DialProbe reports connectivity by opening and closing a TCP connection to
// the feed host, or to the HTTP proxy the client would use for it. It
// implements pipeline.ConnectivityChecker.
type DialProbe struct {
	addr    string
	timeout time.Duration
	dial    func(ctx context.Context, network, addr string) (net.Conn, error)
	logger  *slog.Logger
}

// NewDialProbe probes the host of endpoint, defaulting the port from its
// scheme. When HTTP_PROXY/HTTPS_PROXY route the endpoint through a proxy,
// the proxy is probed instead.
func NewDialProbe(endpoint string, timeout time.Duration, logger *slog.Logger) *DialProbe {
	return newDialProbe(endpoint, timeout, http.ProxyFromEnvironment, logger)
}

func newDialProbe(endpoint string, timeout time.Duration, proxy proxyFunc, logger *slog.Logger) *DialProbe {
	d := &net.Dialer{Timeout: timeout}
	return &DialProbe{
		addr:    probeTarget(endpoint, proxy, logger),
		timeout: timeout,
		dial:    d.DialContext,
		logger:  logger,
	}
}

// Connected returns false when the host cannot be reached within the timeout.
func (p *DialProbe) Connected(ctx context.Context) bool {
	if p.addr == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := p.dial(ctx, "tcp", p.addr)
	if err != nil {
		p.logger.Debug("connectivity probe failed", "addr", p.addr, "error", err)
		return false
	}
	_ = conn.Close()
	return true
}

// probeTarget returns the proxy address for endpoint when one is configured,
// otherwise the endpoint's own host and port.
func probeTarget(endpoint string, proxy proxyFunc, logger *slog.Logger) string {
	if proxy != nil {
		req, err := http.NewRequest(http.MethodGet, endpoint, nil)
		if err == nil {
			proxyURL, err := proxy(req)
			if err != nil {
				logger.Warn("resolve proxy for connectivity probe", "error", err)
			} else if proxyURL != nil {
				return probeAddr(proxyURL.String())
			}
		}
	}
	return probeAddr(endpoint)
}

func probeAddr(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	port := u.Port()
	if port == "" {
		port = "443"
		if u.Scheme == "http" {
			port = "80"
		}
	}
	return net.JoinHostPort(u.Hostname(), port)
}
