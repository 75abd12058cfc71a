// Package pkg provides the libraries behind wikiviewer, a terminal and HTTP
// front end for searching Wikipedia.
//
// # Overview
//
// Every user action becomes two dependent MediaWiki API requests whose
// results are merged into a list of articles. The pkg directory is organized
// by concern:
//
//  1. [integrations/wikipedia] - Request building, the two-stage search and
//     random flows, merging, and snippet markup
//  2. [session] - Result state for interactive front ends, with
//     cancellation of superseded actions
//  3. [server] - JSON HTTP API over the client
//  4. [cache], [httputil], [observability] - Response caching, retry, and
//     event hooks used by the shared [integrations] client
//  5. [config], [errors], [buildinfo] - Settings, structured errors, and
//     version information
//
// # Architecture
//
// The data flow of a search:
//
//	keyword
//	   ↓
//	[integrations/wikipedia] BuildRequest(search)      → hit titles + snippets
//	   ↓
//	[integrations/wikipedia] BuildRequest(infoFromTitles) → URLs + page ids
//	   ↓
//	merge by title, in hit order
//	   ↓
//	[]Article → CLI, browse view, or HTTP API
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/wikiviewer/pkg/cache"
//	    "github.com/matzehuels/wikiviewer/pkg/integrations/wikipedia"
//	)
//
//	client := wikipedia.NewClient(cache.NewNullCache(), wikipedia.Options{})
//	articles, err := client.Search(ctx, "cat")
//
// # Testing
//
// Unit tests run against httptest servers and never reach Wikipedia:
//
//	go test ./pkg/...
//
// Tests that talk to the live API and to Redis are behind build tags:
//
//	go test -tags integration ./pkg/...
//
// [integrations]: https://pkg.go.dev/github.com/matzehuels/wikiviewer/pkg/integrations
// [integrations/wikipedia]: https://pkg.go.dev/github.com/matzehuels/wikiviewer/pkg/integrations/wikipedia
// [session]: https://pkg.go.dev/github.com/matzehuels/wikiviewer/pkg/session
// [server]: https://pkg.go.dev/github.com/matzehuels/wikiviewer/pkg/server
// [cache]: https://pkg.go.dev/github.com/matzehuels/wikiviewer/pkg/cache
// [httputil]: https://pkg.go.dev/github.com/matzehuels/wikiviewer/pkg/httputil
// [observability]: https://pkg.go.dev/github.com/matzehuels/wikiviewer/pkg/observability
// [config]: https://pkg.go.dev/github.com/matzehuels/wikiviewer/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/wikiviewer/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/wikiviewer/pkg/buildinfo
package pkg
