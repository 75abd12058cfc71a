package cache

import (
	"context"
	"time"
)

// NullCache is a no-op cache that never stores anything.
// It is the default backend: wikiviewer does not cache unless configured to.
type NullCache struct{}

// NewNullCache creates a null cache.
func NewNullCache() Cache {
	return NullCache{}
}

// Get always returns a cache miss.
func (NullCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set does nothing.
func (NullCache) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

// Delete does nothing.
func (NullCache) Delete(context.Context, string) error {
	return nil
}

// Close does nothing.
func (NullCache) Close() error {
	return nil
}

// IsNull reports whether c stores nothing, letting callers skip the
// marshal/unmarshal round trip entirely.
func IsNull(c Cache) bool {
	switch c.(type) {
	case nil, NullCache, *NullCache:
		return true
	}
	return false
}

var _ Cache = NullCache{}
