// Package integrations provides the shared HTTP client used by upstream API clients.
//
// # Overview
//
// Each upstream API has its own subpackage; today that is
//
//   - [wikipedia]: the MediaWiki action API behind Wikipedia
//
// # Client Pattern
//
// API clients embed [Client] and add typed, domain-level methods:
//
//	client := wikipedia.NewClient(cache.NewNullCache(), wikipedia.Options{})
//	articles, err := client.Search(ctx, "cat")
//
// [Client] handles:
//   - GET requests with default headers (User-Agent)
//   - Status mapping onto [ErrNotFound] and [ErrNetwork]
//   - Optional retry of transient failures
//   - Optional caching of decoded responses via [cache.Cache]
//   - HTTP and cache events for [observability] hooks
//
// [wikipedia]: github.com/matzehuels/wikiviewer/pkg/integrations/wikipedia
// [cache.Cache]: github.com/matzehuels/wikiviewer/pkg/cache.Cache
// [observability]: github.com/matzehuels/wikiviewer/pkg/observability
package integrations
