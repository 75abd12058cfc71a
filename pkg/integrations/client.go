package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/matzehuels/wikiviewer/pkg/cache"
	"github.com/matzehuels/wikiviewer/pkg/httputil"
	"github.com/matzehuels/wikiviewer/pkg/observability"
)

// Client provides shared HTTP functionality for upstream API clients.
// It handles optional response caching, retry logic, and common request headers.
//
// All methods are safe for concurrent use.
type Client struct {
	http       *http.Client
	cache      cache.Cache
	keyer      cache.Keyer
	prefix     string
	ttl        time.Duration
	headers    map[string]string
	attempts   int
	retryDelay time.Duration
}

// NewClient creates a Client with the given cache backend and default headers.
//
// Parameters:
//   - backend: cache for decoded responses (nil or cache.NewNullCache() disables caching)
//   - prefix: namespace for cache keys (e.g., "wikipedia")
//   - ttl: lifetime of cached entries
//   - headers: applied to all requests; may be nil
//
// The client makes a single attempt per request; see [Client.SetRetries].
func NewClient(backend cache.Cache, prefix string, ttl time.Duration, headers map[string]string) *Client {
	if backend == nil {
		backend = cache.NewNullCache()
	}
	return &Client{
		http:       NewHTTPClient(),
		cache:      backend,
		keyer:      cache.NewDefaultKeyer(),
		prefix:     prefix,
		ttl:        ttl,
		headers:    headers,
		attempts:   1,
		retryDelay: time.Second,
	}
}

// SetHTTPClient replaces the underlying HTTP client (e.g., to change the timeout).
// A nil client is ignored.
func (c *Client) SetHTTPClient(h *http.Client) {
	if h != nil {
		c.http = h
	}
}

// SetRetries sets how many times a transient failure is retried.
// Zero (the default) means a single attempt.
func (c *Client) SetRetries(retries int, delay time.Duration) {
	c.attempts = max(retries, 0) + 1
	if delay > 0 {
		c.retryDelay = delay
	}
}

// SetKeyer replaces the cache key builder (e.g., a [cache.ScopedKeyer] for a
// shared backend). A nil keyer is ignored.
func (c *Client) SetKeyer(k cache.Keyer) {
	if k != nil {
		c.keyer = k
	}
}

// Keyer returns the key builder used for cache entries.
func (c *Client) Keyer() cache.Keyer { return c.keyer }

// Caching reports whether a real cache backend is configured.
func (c *Client) Caching() bool { return !cache.IsNull(c.cache) }

// Cached retrieves a value from cache or executes fetch and caches the result.
// If refresh is true, the cache is bypassed and fetch is always called.
// The fetch function should populate v; on success, v is stored in the cache.
// Cache failures never fail the call; they only cost a refetch.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, v any, fetch func() error) error {
	if !c.Caching() {
		return c.retry(ctx, fetch)
	}

	key = c.keyer.HTTPKey(c.prefix, key)
	if !refresh {
		if data, hit, err := c.cache.Get(ctx, key); err == nil && hit {
			if json.Unmarshal(data, v) == nil {
				observability.Cache().OnCacheHit(ctx, c.prefix)
				return nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, c.prefix)
	}

	if err := c.retry(ctx, fetch); err != nil {
		return err
	}

	if data, err := json.Marshal(v); err == nil {
		if c.cache.Set(ctx, key, data, c.ttl) == nil {
			observability.Cache().OnCacheSet(ctx, c.prefix, len(data))
		}
	}
	return nil
}

// Uncached runs fetch with the client's retry policy and never touches the
// cache. Use it for responses that must not be reused, such as random picks.
func (c *Client) Uncached(ctx context.Context, fetch func() error) error {
	return c.retry(ctx, fetch)
}

func (c *Client) retry(ctx context.Context, fn func() error) error {
	return httputil.Retry(ctx, c.attempts, c.retryDelay, fn)
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
// It uses the client's default headers. Retries are applied by [Client.Cached],
// not by Get.
func (c *Client) Get(ctx context.Context, url string, v any) error {
	return c.GetWithHeaders(ctx, url, nil, v)
}

// GetWithHeaders performs an HTTP GET with additional headers merged with defaults.
// Request-specific headers override client defaults for the same key.
func (c *Client) GetWithHeaders(ctx context.Context, url string, headers map[string]string, v any) error {
	body, err := c.doRequest(ctx, url, headers)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: %w: %v", ErrNetwork, ErrTimeout, err)}
		}
		return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case httputil.RetryableStatus(code):
		return &httputil.RetryableError{Err: fmt.Errorf("%w: status %d", ErrNetwork, code)}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
