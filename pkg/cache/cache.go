// Package cache provides pluggable byte caches for API responses.
//
// Three backends implement [Cache]:
//   - [FileCache]: JSON files under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for the HTTP API
//   - [NullCache]: stores nothing, the default
//
// Keys are built by a [Keyer] so that every component namespaces its entries
// the same way.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys with a per-entry TTL.
//
// Get returns hit=false with a nil error on a miss or an expired entry.
// A TTL of 0 means the entry does not expire.
// Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// HTTPKey builds the key for a cached HTTP response within a namespace
	// (e.g. "wikipedia").
	HTTPKey(namespace, key string) string

	// QueryKey builds the key for a query stage result. The endpoint is part
	// of the key so that two wikis never share entries.
	QueryKey(endpoint, action, criteria string) string
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key builder.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// QueryKey returns "query:<sha256 of the components>".
func (DefaultKeyer) QueryKey(endpoint, action, criteria string) string {
	return hashKey("query", endpoint, action, criteria)
}
