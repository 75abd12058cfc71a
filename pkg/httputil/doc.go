// Package httputil provides HTTP utilities for the Wikipedia API client.
//
// # Retry
//
// [Retry] wraps a request function with retry for transient failures.
// Only errors wrapped in [RetryableError] are retried:
//
//   - Network errors (connection refused, timeouts)
//   - 5xx server errors
//
// Everything else (4xx, malformed JSON, unexpected response shapes) is
// returned on the first attempt. The delay doubles after each failed attempt:
//
//	err := httputil.Retry(ctx, 3, 500*time.Millisecond, func() error {
//	    return client.Get(ctx, url, &resp)
//	})
//
// wikiviewer defaults to a single attempt; retries are opt-in through the
// retries setting in the config file.
package httputil
