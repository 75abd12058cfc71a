package integrations

import (
	"errors"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single upstream request.
const DefaultTimeout = 10 * time.Second

var (
	// ErrNotFound is returned when the upstream resource doesn't exist (HTTP 404).
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, non-2xx responses).
	ErrNetwork = errors.New("network error")

	// ErrTimeout marks an [ErrNetwork] caused by the HTTP client timeout.
	ErrTimeout = errors.New("request timed out")

	// ErrDecode is returned when a response body is not the JSON the client expects.
	ErrDecode = errors.New("malformed response")
)

// NewHTTPClient creates an HTTP client with the default timeout.
func NewHTTPClient() *http.Client {
	return NewHTTPClientWithTimeout(DefaultTimeout)
}

// NewHTTPClientWithTimeout creates an HTTP client with the given timeout.
// A non-positive timeout falls back to [DefaultTimeout].
func NewHTTPClientWithTimeout(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}
