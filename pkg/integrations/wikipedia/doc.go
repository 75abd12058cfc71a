// Package wikipedia provides a client for the MediaWiki action API behind
// Wikipedia.
//
// # Overview
//
// Every user action is two dependent requests. A search first runs a
// full-text query, then resolves all hit titles in one batched info lookup to
// obtain canonical URLs and page ids. A random pick first draws one
// main-namespace page, then fetches its plain-text extract and URL by id.
// The two results are merged into a list of [Article].
//
// # Usage
//
//	client := wikipedia.NewClient(cache.NewNullCache(), wikipedia.Options{})
//
//	articles, err := client.Search(ctx, "cat")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, a := range articles {
//	    fmt.Println(a.Title, a.URL)
//	}
//
//	random, err := client.RandomArticle(ctx) // always one article
//
// # Requests
//
// [BuildRequest] maps one of the four [Action] values onto a request URL.
// It is pure: the same action and criteria always yield the same URL.
//
// # Errors
//
// A failure at either stage of either operation returns a *[QueryError] and
// no articles; there are no partial results. Test for it with
//
//	errors.Is(err, wikipedia.ErrQuery)
//
// A search with zero hits is not an error; it returns an empty list without
// issuing the info lookup.
//
// # Merge Policy
//
// Info records are matched to hits by exact title. By default a hit without a
// record is kept with an empty URL and zero page id (and a warning is
// logged). With [Options].Strict such a search fails with [ErrUnresolved].
//
// # Markup
//
// Search snippets contain <span class="searchmatch"> highlights.
// [Segments] and [PlainText] turn snippet markup into text for terminals.
package wikipedia
