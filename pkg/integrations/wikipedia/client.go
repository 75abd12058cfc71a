package wikipedia

import (
	"context"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/wikiviewer/pkg/buildinfo"
	"github.com/matzehuels/wikiviewer/pkg/cache"
	"github.com/matzehuels/wikiviewer/pkg/integrations"
	"github.com/matzehuels/wikiviewer/pkg/observability"
)

// Operation names reported in errors and hooks.
const (
	OpSearch = "search"
	OpRandom = "random"
)

const (
	// ContinuationMarker is appended to search excerpts to show they are truncated.
	ContinuationMarker = " (...)"

	// TitleSeparator joins titles in a batched info lookup.
	TitleSeparator = "|"
)

// Options configures a [Client]. The zero value is usable.
type Options struct {
	Endpoint     string        // API endpoint (default DefaultEndpoint)
	ExtractChars int           // extract budget for random articles (default DefaultExtractChars)
	UserAgent    string        // User-Agent header (default buildinfo.UserAgent())
	Timeout      time.Duration // per-request timeout (default integrations.DefaultTimeout)
	Retries      int           // retries of transient failures (default 0)
	CacheTTL     time.Duration // lifetime of cached search/info responses
	Strict       bool          // fail a search when a hit has no info record
	Logger       *log.Logger   // default log.Default()
}

// Client queries the Wikipedia action API.
//
// Each operation issues two dependent requests and merges their results.
// The client holds no per-call state; all methods are safe for concurrent use.
type Client struct {
	*integrations.Client
	endpoint     string
	extractChars int
	strict       bool
	logger       *log.Logger
}

// NewClient creates a Wikipedia client.
//
// Parameters:
//   - backend: cache for the search and info stages (use cache.NewNullCache() for none)
//   - opts: endpoint, timeouts and merge policy; zero values select defaults
//
// Random article lookups are never cached regardless of backend.
func NewClient(backend cache.Cache, opts Options) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.ExtractChars <= 0 {
		opts.ExtractChars = DefaultExtractChars
	}
	if opts.UserAgent == "" {
		opts.UserAgent = buildinfo.UserAgent()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	headers := map[string]string{
		"User-Agent": opts.UserAgent,
		"Accept":     "application/json",
	}
	base := integrations.NewClient(backend, "wikipedia", opts.CacheTTL, headers)
	base.SetHTTPClient(integrations.NewHTTPClientWithTimeout(opts.Timeout))
	base.SetRetries(opts.Retries, 0)

	return &Client{
		Client:       base,
		endpoint:     opts.Endpoint,
		extractChars: opts.ExtractChars,
		strict:       opts.Strict,
		logger:       opts.Logger,
	}
}

// Endpoint returns the API endpoint the client talks to.
func (c *Client) Endpoint() string { return c.endpoint }

// BuildRequest returns the request URL for action using the client's
// endpoint and extract budget. See the package-level [BuildRequest].
func (c *Client) BuildRequest(action Action, criteria string) (string, error) {
	return buildRequest(c.endpoint, c.extractChars, action, criteria)
}

// Search runs a full-text search for keyword and enriches every hit with its
// canonical URL and page id.
//
// The keyword is sent as-is; the API decides what an empty keyword means.
// Zero hits is a success with an empty, non-nil list and no second request.
// The result preserves the order of the search stage. Any failure returns a
// [QueryError] and no articles.
func (c *Client) Search(ctx context.Context, keyword string) ([]Article, error) {
	start := time.Now()
	observability.Search().OnQueryStart(ctx, OpSearch, keyword)

	articles, err := c.search(ctx, keyword)

	observability.Search().OnQueryComplete(ctx, OpSearch, keyword, len(articles), time.Since(start), err)
	if err != nil {
		c.logger.Debug("search failed", "keyword", keyword, "err", err)
		return nil, err
	}
	c.logger.Debug("search complete", "keyword", keyword, "articles", len(articles), "duration", time.Since(start))
	return articles, nil
}

func (c *Client) search(ctx context.Context, keyword string) ([]Article, error) {
	var sr searchResponse
	if err := c.query(ctx, ActionSearch, keyword, true, &sr); err != nil {
		return nil, queryErr(OpSearch, ActionSearch, err)
	}
	if sr.Query == nil || sr.Query.Search == nil {
		return nil, queryErr(OpSearch, ActionSearch, shapeErr("query.search"))
	}

	articles, titles := parseSearch(sr.Query.Search)
	if len(articles) == 0 {
		return articles, nil
	}

	var ir infoResponse
	if err := c.query(ctx, ActionInfoFromTitles, titles, true, &ir); err != nil {
		return nil, queryErr(OpSearch, ActionInfoFromTitles, err)
	}
	if ir.Query == nil || ir.Query.Pages == nil {
		return nil, queryErr(OpSearch, ActionInfoFromTitles, shapeErr("query.pages"))
	}

	unresolved := mergeInfo(articles, ir.Query.Pages)
	if len(unresolved) > 0 {
		if c.strict {
			err := fmt.Errorf("%w: %s", ErrUnresolved, strings.Join(unresolved, ", "))
			return nil, queryErr(OpSearch, ActionInfoFromTitles, err)
		}
		c.logger.Warn("search hits without info record", "titles", unresolved)
	}
	return articles, nil
}

// RandomArticle picks a random main-namespace article and returns it, with
// a short plain-text extract and canonical URL, as a singleton list.
// Any failure returns a [QueryError] and no articles.
func (c *Client) RandomArticle(ctx context.Context) ([]Article, error) {
	start := time.Now()
	observability.Search().OnQueryStart(ctx, OpRandom, "")

	articles, err := c.random(ctx)

	observability.Search().OnQueryComplete(ctx, OpRandom, "", len(articles), time.Since(start), err)
	if err != nil {
		c.logger.Debug("random article failed", "err", err)
		return nil, err
	}
	c.logger.Debug("random article", "title", articles[0].Title, "duration", time.Since(start))
	return articles, nil
}

func (c *Client) random(ctx context.Context) ([]Article, error) {
	var rr randomResponse
	if err := c.query(ctx, ActionRandom, "", false, &rr); err != nil {
		return nil, queryErr(OpRandom, ActionRandom, err)
	}
	if rr.Query == nil || len(rr.Query.Random) == 0 {
		return nil, queryErr(OpRandom, ActionRandom, shapeErr("query.random"))
	}
	pick := rr.Query.Random[0]
	if pick.ID <= 0 || pick.Title == "" {
		return nil, queryErr(OpRandom, ActionRandom, shapeErr("query.random"))
	}
	id := strconv.FormatInt(pick.ID, 10)

	var dr infoResponse
	if err := c.query(ctx, ActionInfoFromID, id, false, &dr); err != nil {
		return nil, queryErr(OpRandom, ActionInfoFromID, err)
	}
	if dr.Query == nil {
		return nil, queryErr(OpRandom, ActionInfoFromID, shapeErr("query.pages"))
	}
	page, ok := dr.Query.Pages[id]
	if !ok || page.Missing != nil {
		return nil, queryErr(OpRandom, ActionInfoFromID, shapeErr("query.pages."+id))
	}
	if page.FullURL == "" {
		return nil, queryErr(OpRandom, ActionInfoFromID, shapeErr("query.pages."+id+".fullurl"))
	}

	return []Article{{
		Title:   pick.Title,
		PageID:  pick.ID,
		Snippet: extractBlock(page.Extract),
		URL:     page.FullURL,
	}}, nil
}

// query issues one stage request and decodes it into v. Only the search and
// info-by-title stages may be served from cache.
func (c *Client) query(ctx context.Context, action Action, criteria string, cacheable bool, v response) error {
	reqURL, err := c.BuildRequest(action, criteria)
	if err != nil {
		return err
	}
	fetch := func() error {
		if err := c.Get(ctx, reqURL, v); err != nil {
			return err
		}
		return v.apiErr()
	}
	if !cacheable {
		return c.Uncached(ctx, fetch)
	}
	key := c.Keyer().QueryKey(c.endpoint, string(action), criteria)
	return c.Cached(ctx, key, false, v, fetch)
}

// parseSearch builds one article per hit, in hit order, and the
// separator-joined title list for the info lookup.
func parseSearch(hits []searchHit) ([]Article, string) {
	articles := make([]Article, 0, len(hits))
	titles := make([]string, 0, len(hits))
	for _, h := range hits {
		articles = append(articles, Article{
			Title:   h.Title,
			Snippet: template.HTML(h.Snippet + ContinuationMarker),
		})
		titles = append(titles, h.Title)
	}
	return articles, strings.Join(titles, TitleSeparator)
}

// mergeInfo copies URL and page id from info records onto the articles with
// the exact same title. Records without a matching article are ignored.
// It returns the titles left unresolved, in article order.
func mergeInfo(articles []Article, pages map[string]pageInfo) []string {
	index := make(map[string]int, len(articles))
	for i, a := range articles {
		if _, dup := index[a.Title]; !dup {
			index[a.Title] = i
		}
	}
	for _, p := range pages {
		if p.Missing != nil {
			continue
		}
		if i, ok := index[p.Title]; ok {
			articles[i].URL = p.FullURL
			articles[i].PageID = p.PageID
		}
	}

	var unresolved []string
	for _, a := range articles {
		if !a.Resolved() {
			unresolved = append(unresolved, a.Title)
		}
	}
	return unresolved
}

// extractBlock wraps a plain-text extract as a paragraph. The extract is
// plain text, so it is escaped before it becomes trusted markup.
func extractBlock(extract string) template.HTML {
	return template.HTML("<p>" + template.HTMLEscapeString(extract) + "</p>")
}

// =============================================================================
// API response types
// =============================================================================

type response interface {
	apiErr() error
}

// envelope carries the error object the action API returns with HTTP 200.
type envelope struct {
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e *envelope) apiErr() error {
	if e.Error == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %s", ErrAPI, e.Error.Code, e.Error.Info)
}

type searchResponse struct {
	envelope
	Query *struct {
		Search []searchHit `json:"search"`
	} `json:"query,omitempty"`
}

type searchHit struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

type infoResponse struct {
	envelope
	Query *struct {
		Pages map[string]pageInfo `json:"pages"`
	} `json:"query,omitempty"`
}

type pageInfo struct {
	PageID  int64   `json:"pageid"`
	Title   string  `json:"title"`
	FullURL string  `json:"fullurl"`
	Extract string  `json:"extract,omitempty"`
	Missing *string `json:"missing,omitempty"`
}

type randomResponse struct {
	envelope
	Query *struct {
		Random []struct {
			ID    int64  `json:"id"`
			Title string `json:"title"`
		} `json:"random"`
	} `json:"query,omitempty"`
}
