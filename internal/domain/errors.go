package domain

import "fmt"

// FetchErrorKind classifies a fetch-stage failure.
type FetchErrorKind int

const (
	KindInvalidURL FetchErrorKind = iota + 1
	KindConnectTimeout
	KindReadTimeout
	KindHTTPStatus
	KindNoConnectivity
	KindTransport
)

func (k FetchErrorKind) String() string {
	switch k {
	case KindInvalidURL:
		return "invalid_url"
	case KindConnectTimeout:
		return "connect_timeout"
	case KindReadTimeout:
		return "read_timeout"
	case KindHTTPStatus:
		return "http_status"
	case KindNoConnectivity:
		return "no_connectivity"
	case KindTransport:
		return "transport"
	default:
		return fmt.Sprintf("FetchErrorKind(%d)", int(k))
	}
}

// FetchError is returned by every fetch-stage failure. Compare with the
// sentinels below using errors.Is; StatusCode is set for KindHTTPStatus.
type FetchError struct {
	Kind       FetchErrorKind
	StatusCode int
	URL        string
	Err        error
}

// Sentinels for errors.Is. ErrHTTPStatus matches any status code.
var (
	ErrInvalidURL     = &FetchError{Kind: KindInvalidURL}
	ErrConnectTimeout = &FetchError{Kind: KindConnectTimeout}
	ErrReadTimeout    = &FetchError{Kind: KindReadTimeout}
	ErrHTTPStatus     = &FetchError{Kind: KindHTTPStatus}
	ErrNoConnectivity = &FetchError{Kind: KindNoConnectivity}
	ErrTransport      = &FetchError{Kind: KindTransport}
)

// HTTPStatus returns the error for a non-200 response.
func HTTPStatus(code int) *FetchError {
	return &FetchError{Kind: KindHTTPStatus, StatusCode: code}
}

func (e *FetchError) Error() string {
	msg := e.Kind.String()
	if e.Kind == KindHTTPStatus && e.StatusCode != 0 {
		msg = fmt.Sprintf("%s %d", msg, e.StatusCode)
	}
	if e.URL != "" {
		msg += " for " + e.URL
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is matches on kind, and on status code when the target carries one, so
// errors.Is(err, HTTPStatus(404)) and errors.Is(err, ErrHTTPStatus) both work.
func (e *FetchError) Is(target error) bool {
	t, ok := target.(*FetchError)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.StatusCode == 0 || t.StatusCode == e.StatusCode
}

// Retryable reports whether a user-triggered retry could succeed.
func (e *FetchError) Retryable() bool {
	return e.Kind != KindInvalidURL
}
