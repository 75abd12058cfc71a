package wikipedia

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/wikiviewer/pkg/cache"
	"github.com/matzehuels/wikiviewer/pkg/integrations"
)

// stubAPI serves canned bodies per stage and counts the calls each stage gets.
type stubAPI struct {
	search, info, random, extract string
	status                        map[Action]int

	calls    map[Action]*atomic.Int32
	mu       sync.Mutex
	lastArgs map[Action]string
}

func newStubAPI() *stubAPI {
	s := &stubAPI{
		status:   map[Action]int{},
		calls:    map[Action]*atomic.Int32{},
		lastArgs: map[Action]string{},
	}
	for _, a := range Actions() {
		s.calls[a] = new(atomic.Int32)
	}
	return s
}

func (s *stubAPI) count(a Action) int { return int(s.calls[a].Load()) }

func (s *stubAPI) arg(a Action) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastArgs[a]
}

func (s *stubAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		action Action
		body   string
		arg    string
	)
	switch {
	case q.Get("list") == "search":
		action, body, arg = ActionSearch, s.search, q.Get("srsearch")
	case q.Get("list") == "random":
		action, body = ActionRandom, s.random
	case q.Has("pageids"):
		action, body, arg = ActionInfoFromID, s.extract, q.Get("pageids")
	case q.Has("titles"):
		action, body, arg = ActionInfoFromTitles, s.info, q.Get("titles")
	default:
		http.Error(w, "unexpected request", http.StatusBadRequest)
		return
	}
	s.calls[action].Add(1)
	s.mu.Lock()
	s.lastArgs[action] = arg
	s.mu.Unlock()

	if code := s.status[action]; code != 0 {
		w.WriteHeader(code)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, body)
}

func testClient(t *testing.T, api http.Handler, opts Options) *Client {
	t.Helper()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	opts.Endpoint = server.URL + "/w/api.php"
	opts.Logger = log.New(io.Discard)
	return NewClient(cache.NewNullCache(), opts)
}

func searchBody(titles ...string) string {
	hits := make([]string, len(titles))
	for i, title := range titles {
		hits[i] = fmt.Sprintf(`{"ns":0,"title":%q,"snippet":"about %s"}`, title, strings.ToLower(title))
	}
	return `{"batchcomplete":"","query":{"search":[` + strings.Join(hits, ",") + `]}}`
}

func pagesBody(ids []int64, titles []string) string {
	pages := make([]string, len(titles))
	for i, title := range titles {
		pages[i] = fmt.Sprintf(`"%d":{"pageid":%d,"ns":0,"title":%q,"fullurl":"https://en.wikipedia.org/wiki/%s"}`,
			ids[i], ids[i], title, strings.ReplaceAll(title, " ", "_"))
	}
	return `{"batchcomplete":"","query":{"pages":{` + strings.Join(pages, ",") + `}}}`
}

func TestSearch_Cat(t *testing.T) {
	api := newStubAPI()
	api.search = `{"query":{"search":[{"ns":0,"title":"Cat","snippet":"A cat is..."}]}}`
	api.info = `{"query":{"pages":{"6678":{"pageid":6678,"ns":0,"title":"Cat","fullurl":"https://en.wikipedia.org/wiki/Cat"}}}}`
	c := testClient(t, api, Options{})

	articles, err := c.Search(context.Background(), "cat")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	want := []Article{{
		Title:   "Cat",
		Snippet: "A cat is... (...)",
		PageID:  6678,
		URL:     "https://en.wikipedia.org/wiki/Cat",
	}}
	if len(articles) != len(want) || articles[0] != want[0] {
		t.Errorf("Search(cat) = %+v, want %+v", articles, want)
	}
	if got := api.arg(ActionSearch); got != "cat" {
		t.Errorf("srsearch = %q, want cat", got)
	}
	if got := api.arg(ActionInfoFromTitles); got != "Cat" {
		t.Errorf("titles = %q, want Cat", got)
	}
}

func TestSearch_PreservesOrder(t *testing.T) {
	titles := []string{"Alpha", "Beta", "Gamma"}
	ids := []int64{1, 2, 3}

	// Info records come back in reverse order of the hits.
	revTitles := []string{"Gamma", "Beta", "Alpha"}
	revIDs := []int64{3, 2, 1}

	api := newStubAPI()
	api.search = searchBody(titles...)
	api.info = pagesBody(revIDs, revTitles)
	c := testClient(t, api, Options{})

	articles, err := c.Search(context.Background(), "greek")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(articles) != len(titles) {
		t.Fatalf("got %d articles, want %d", len(articles), len(titles))
	}
	for i, a := range articles {
		if a.Title != titles[i] {
			t.Errorf("articles[%d].Title = %q, want %q", i, a.Title, titles[i])
		}
		if a.PageID != ids[i] {
			t.Errorf("articles[%d].PageID = %d, want %d", i, a.PageID, ids[i])
		}
		if want := "https://en.wikipedia.org/wiki/" + titles[i]; a.URL != want {
			t.Errorf("articles[%d].URL = %q, want %q", i, a.URL, want)
		}
		if !strings.HasSuffix(string(a.Snippet), ContinuationMarker) {
			t.Errorf("articles[%d].Snippet = %q, missing continuation marker", i, a.Snippet)
		}
	}
	if got := api.arg(ActionInfoFromTitles); got != "Alpha|Beta|Gamma" {
		t.Errorf("titles = %q, want Alpha|Beta|Gamma", got)
	}
	if api.count(ActionSearch) != 1 || api.count(ActionInfoFromTitles) != 1 {
		t.Errorf("calls = search:%d info:%d, want 1 each", api.count(ActionSearch), api.count(ActionInfoFromTitles))
	}
}

func TestSearch_ZeroHits(t *testing.T) {
	api := newStubAPI()
	api.search = `{"query":{"searchinfo":{"totalhits":0},"search":[]}}`
	c := testClient(t, api, Options{})

	articles, err := c.Search(context.Background(), "qwxzqwxz")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if articles == nil || len(articles) != 0 {
		t.Errorf("Search = %#v, want empty non-nil list", articles)
	}
	if n := api.count(ActionInfoFromTitles); n != 0 {
		t.Errorf("info stage called %d times, want 0", n)
	}
}

func TestSearch_EmptyKeywordPassedThrough(t *testing.T) {
	api := newStubAPI()
	api.search = `{"error":{"code":"nosrsearch","info":"The \"srsearch\" parameter must be set."}}`
	c := testClient(t, api, Options{})

	_, err := c.Search(context.Background(), "")
	if n := api.count(ActionSearch); n != 1 {
		t.Fatalf("search stage called %d times, want 1", n)
	}
	if !errors.Is(err, ErrQuery) || !errors.Is(err, ErrAPI) {
		t.Errorf("Search(\"\") error = %v, want ErrQuery wrapping ErrAPI", err)
	}
}

func TestSearch_Failures(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(*stubAPI)
		wantStage Action
		wantCause error
	}{
		{
			name:      "search status",
			setup:     func(s *stubAPI) { s.status[ActionSearch] = http.StatusServiceUnavailable },
			wantStage: ActionSearch,
			wantCause: integrations.ErrNetwork,
		},
		{
			name:      "search malformed",
			setup:     func(s *stubAPI) { s.search = `{"query":` },
			wantStage: ActionSearch,
			wantCause: integrations.ErrDecode,
		},
		{
			name:      "search missing field",
			setup:     func(s *stubAPI) { s.search = `{"batchcomplete":""}` },
			wantStage: ActionSearch,
			wantCause: ErrShape,
		},
		{
			name: "info status",
			setup: func(s *stubAPI) {
				s.search = searchBody("Cat")
				s.status[ActionInfoFromTitles] = http.StatusInternalServerError
			},
			wantStage: ActionInfoFromTitles,
			wantCause: integrations.ErrNetwork,
		},
		{
			name: "info malformed",
			setup: func(s *stubAPI) {
				s.search = searchBody("Cat")
				s.info = `not json`
			},
			wantStage: ActionInfoFromTitles,
			wantCause: integrations.ErrDecode,
		},
		{
			name: "info missing pages",
			setup: func(s *stubAPI) {
				s.search = searchBody("Cat")
				s.info = `{"query":{}}`
			},
			wantStage: ActionInfoFromTitles,
			wantCause: ErrShape,
		},
		{
			name: "info api error",
			setup: func(s *stubAPI) {
				s.search = searchBody("Cat")
				s.info = `{"error":{"code":"toomanyvalues","info":"Too many values"}}`
			},
			wantStage: ActionInfoFromTitles,
			wantCause: ErrAPI,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newStubAPI()
			tt.setup(api)
			c := testClient(t, api, Options{})

			articles, err := c.Search(context.Background(), "cat")
			if articles != nil {
				t.Errorf("articles = %+v, want nil", articles)
			}
			assertQueryError(t, err, OpSearch, tt.wantStage, tt.wantCause)
		})
	}
}

func TestSearch_NoRetryByDefault(t *testing.T) {
	api := newStubAPI()
	api.status[ActionSearch] = http.StatusServiceUnavailable
	c := testClient(t, api, Options{})

	if _, err := c.Search(context.Background(), "cat"); err == nil {
		t.Fatal("expected error")
	}
	if n := api.count(ActionSearch); n != 1 {
		t.Errorf("search stage called %d times, want 1", n)
	}
}

func TestSearch_Lenient(t *testing.T) {
	api := newStubAPI()
	api.search = searchBody("Cat", "Catfish")
	api.info = pagesBody([]int64{6678, 999}, []string{"Cat", "Dog"})
	c := testClient(t, api, Options{})

	articles, err := c.Search(context.Background(), "cat")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("got %d articles, want 2", len(articles))
	}
	if !articles[0].Resolved() {
		t.Errorf("Cat should be resolved: %+v", articles[0])
	}
	if articles[1].Resolved() || articles[1].URL != "" || articles[1].PageID != 0 {
		t.Errorf("Catfish should be unresolved: %+v", articles[1])
	}
}

func TestSearch_Strict(t *testing.T) {
	api := newStubAPI()
	api.search = searchBody("Cat", "Catfish")
	api.info = pagesBody([]int64{6678}, []string{"Cat"})
	c := testClient(t, api, Options{Strict: true})

	articles, err := c.Search(context.Background(), "cat")
	if articles != nil {
		t.Errorf("articles = %+v, want nil", articles)
	}
	assertQueryError(t, err, OpSearch, ActionInfoFromTitles, ErrUnresolved)
	if !strings.Contains(err.Error(), "Catfish") {
		t.Errorf("error should name the unresolved title: %v", err)
	}
}

func TestSearch_MissingRecordSkipped(t *testing.T) {
	api := newStubAPI()
	api.search = searchBody("Cat")
	api.info = `{"query":{"pages":{"-1":{"ns":0,"title":"Cat","missing":""}}}}`
	c := testClient(t, api, Options{Strict: true})

	_, err := c.Search(context.Background(), "cat")
	assertQueryError(t, err, OpSearch, ActionInfoFromTitles, ErrUnresolved)
}

func TestSearch_Cached(t *testing.T) {
	api := newStubAPI()
	api.search = searchBody("Cat")
	api.info = pagesBody([]int64{6678}, []string{"Cat"})
	server := httptest.NewServer(api)
	defer server.Close()

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := NewClient(fc, Options{Endpoint: server.URL, Logger: log.New(io.Discard)})

	for range 2 {
		articles, err := c.Search(context.Background(), "cat")
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(articles) != 1 || articles[0].PageID != 6678 {
			t.Fatalf("unexpected articles: %+v", articles)
		}
	}
	if api.count(ActionSearch) != 1 || api.count(ActionInfoFromTitles) != 1 {
		t.Errorf("calls = search:%d info:%d, want 1 each", api.count(ActionSearch), api.count(ActionInfoFromTitles))
	}
}

func TestRandomArticle(t *testing.T) {
	api := newStubAPI()
	api.random = `{"batchcomplete":"","continue":{"rncontinue":"0.1|0.2|0|0"},"query":{"random":[{"id":6678,"ns":0,"title":"Cat"}]}}`
	api.extract = `{"query":{"pages":{"6678":{"pageid":6678,"ns":0,"title":"Cat","extract":"The cat is a small carnivore & pet.","fullurl":"https://en.wikipedia.org/wiki/Cat"}}}}`
	c := testClient(t, api, Options{ExtractChars: 120})

	articles, err := c.RandomArticle(context.Background())
	if err != nil {
		t.Fatalf("RandomArticle failed: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("got %d articles, want exactly 1", len(articles))
	}
	want := Article{
		Title:   "Cat",
		Snippet: "<p>The cat is a small carnivore &amp; pet.</p>",
		PageID:  6678,
		URL:     "https://en.wikipedia.org/wiki/Cat",
	}
	if articles[0] != want {
		t.Errorf("RandomArticle = %+v, want %+v", articles[0], want)
	}
	if got := api.arg(ActionInfoFromID); got != "6678" {
		t.Errorf("pageids = %q, want 6678", got)
	}
}

func TestRandomArticle_NeverCached(t *testing.T) {
	api := newStubAPI()
	api.random = `{"query":{"random":[{"id":1,"ns":0,"title":"One"}]}}`
	api.extract = `{"query":{"pages":{"1":{"pageid":1,"title":"One","extract":"x","fullurl":"https://en.wikipedia.org/wiki/One"}}}}`
	server := httptest.NewServer(api)
	defer server.Close()

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := NewClient(fc, Options{Endpoint: server.URL, Logger: log.New(io.Discard)})

	for range 2 {
		if _, err := c.RandomArticle(context.Background()); err != nil {
			t.Fatalf("RandomArticle failed: %v", err)
		}
	}
	if api.count(ActionRandom) != 2 || api.count(ActionInfoFromID) != 2 {
		t.Errorf("calls = random:%d extract:%d, want 2 each", api.count(ActionRandom), api.count(ActionInfoFromID))
	}
}

func TestRandomArticle_Failures(t *testing.T) {
	const pick = `{"query":{"random":[{"id":42,"ns":0,"title":"Answer"}]}}`

	tests := []struct {
		name      string
		setup     func(*stubAPI)
		wantStage Action
		wantCause error
	}{
		{
			name:      "random status",
			setup:     func(s *stubAPI) { s.status[ActionRandom] = http.StatusBadGateway },
			wantStage: ActionRandom,
			wantCause: integrations.ErrNetwork,
		},
		{
			name:      "random empty",
			setup:     func(s *stubAPI) { s.random = `{"query":{"random":[]}}` },
			wantStage: ActionRandom,
			wantCause: ErrShape,
		},
		{
			name: "extract status",
			setup: func(s *stubAPI) {
				s.random = pick
				s.status[ActionInfoFromID] = http.StatusInternalServerError
			},
			wantStage: ActionInfoFromID,
			wantCause: integrations.ErrNetwork,
		},
		{
			name: "extract missing page",
			setup: func(s *stubAPI) {
				s.random = pick
				s.extract = `{"query":{"pages":{"7":{"pageid":7,"title":"Other"}}}}`
			},
			wantStage: ActionInfoFromID,
			wantCause: ErrShape,
		},
		{
			name:      "random pick without id",
			setup:     func(s *stubAPI) { s.random = `{"query":{"random":[{"id":0,"ns":0,"title":"Answer"}]}}` },
			wantStage: ActionRandom,
			wantCause: ErrShape,
		},
		{
			name:      "random pick without title",
			setup:     func(s *stubAPI) { s.random = `{"query":{"random":[{"id":42,"ns":0,"title":""}]}}` },
			wantStage: ActionRandom,
			wantCause: ErrShape,
		},
		{
			name: "extract page without url",
			setup: func(s *stubAPI) {
				s.random = pick
				s.extract = `{"query":{"pages":{"42":{"pageid":42,"title":"Answer","extract":"x"}}}}`
			},
			wantStage: ActionInfoFromID,
			wantCause: ErrShape,
		},
		{
			name: "extract page flagged missing",
			setup: func(s *stubAPI) {
				s.random = pick
				s.extract = `{"query":{"pages":{"42":{"pageid":42,"title":"Answer","missing":""}}}}`
			},
			wantStage: ActionInfoFromID,
			wantCause: ErrShape,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newStubAPI()
			tt.setup(api)
			c := testClient(t, api, Options{})

			articles, err := c.RandomArticle(context.Background())
			if articles != nil {
				t.Errorf("articles = %+v, want nil", articles)
			}
			assertQueryError(t, err, OpRandom, tt.wantStage, tt.wantCause)
		})
	}
}

func TestSearch_ContextCancelled(t *testing.T) {
	api := newStubAPI()
	api.search = searchBody("Cat")
	c := testClient(t, api, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Search(ctx, "cat")
	assertQueryError(t, err, OpSearch, ActionSearch, context.Canceled)
}

func TestMergeInfo(t *testing.T) {
	articles := []Article{{Title: "A"}, {Title: "B"}}
	pages := map[string]pageInfo{
		"2": {PageID: 2, Title: "B", FullURL: "u/B"},
		"9": {PageID: 9, Title: "Z", FullURL: "u/Z"},
	}

	unresolved := mergeInfo(articles, pages)
	if len(unresolved) != 1 || unresolved[0] != "A" {
		t.Errorf("unresolved = %v, want [A]", unresolved)
	}
	if articles[1].PageID != 2 || articles[1].URL != "u/B" {
		t.Errorf("B not merged: %+v", articles[1])
	}
}

func assertQueryError(t *testing.T, err error, op string, stage Action, cause error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrQuery) {
		t.Errorf("errors.Is(err, ErrQuery) = false for %v", err)
	}
	var qe *QueryError
	if !errors.As(err, &qe) {
		t.Fatalf("expected *QueryError, got %T", err)
	}
	if qe.Op != op {
		t.Errorf("Op = %q, want %q", qe.Op, op)
	}
	if qe.Stage != stage {
		t.Errorf("Stage = %q, want %q", qe.Stage, stage)
	}
	if cause != nil && !errors.Is(err, cause) {
		t.Errorf("error %v does not wrap %v", err, cause)
	}
}
