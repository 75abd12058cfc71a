package wikipedia

import "html/template"

// Article is one entry of a result list.
//
// Snippet is trusted markup: for search results it is the upstream excerpt
// (which contains <span class="searchmatch"> highlights) followed by
// [ContinuationMarker]; for random articles it is the extract wrapped in a
// <p> block. UI layers must render it as HTML, never escape and re-parse it.
//
// PageID and URL are populated by the enrichment stage. With the lenient
// merge an article whose title had no info record keeps them zero.
type Article struct {
	Title   string        `json:"title"`
	Snippet template.HTML `json:"snippet"`
	PageID  int64         `json:"pageId,omitempty"`
	URL     string        `json:"url,omitempty"`
}

// Resolved reports whether the enrichment stage filled in the article.
func (a Article) Resolved() bool {
	return a.URL != "" && a.PageID != 0
}
