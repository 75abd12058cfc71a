// Package session holds the result state of an interactive article browser.
//
// A [Session] owns the single "current articles" slot and a transient
// last-error slot. Starting an action while another is in flight cancels the
// older one: its context is cancelled, it returns [ErrSuperseded], and it
// never touches either slot.
//
// # Usage
//
//	s := session.New(client, logger)
//
//	articles, err := s.Search(ctx, "cat")
//	switch {
//	case errors.Is(err, session.ErrSuperseded):
//	    // a newer action owns the slots now
//	case err != nil:
//	    showNotice(s.LastError())
//	default:
//	    render(articles)
//	}
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/wikiviewer/pkg/integrations/wikipedia"
)

// ErrSuperseded is returned by an action that was cancelled because a newer
// action started.
var ErrSuperseded = errors.New("superseded by a newer action")

// Searcher is the article source a session drives. *wikipedia.Client
// implements it.
type Searcher interface {
	Search(ctx context.Context, keyword string) ([]wikipedia.Article, error)
	RandomArticle(ctx context.Context) ([]wikipedia.Article, error)
}

// Session serializes user actions over a [Searcher].
// All methods are safe for concurrent use.
type Session struct {
	client Searcher
	logger *log.Logger

	mu       sync.Mutex
	gen      uint64
	cancel   context.CancelFunc
	articles []wikipedia.Article
	lastErr  error
}

// New creates a session. A nil logger uses log.Default().
func New(client Searcher, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Default()
	}
	return &Session{client: client, logger: logger}
}

// Search runs a keyword search, cancelling any action in flight.
func (s *Session) Search(ctx context.Context, keyword string) ([]wikipedia.Article, error) {
	return s.run(ctx, "search", func(ctx context.Context) ([]wikipedia.Article, error) {
		return s.client.Search(ctx, keyword)
	})
}

// Random fetches a random article, cancelling any action in flight.
func (s *Session) Random(ctx context.Context) ([]wikipedia.Article, error) {
	return s.run(ctx, "random", s.client.RandomArticle)
}

func (s *Session) run(ctx context.Context, op string, fn func(context.Context) ([]wikipedia.Article, error)) ([]wikipedia.Article, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.gen++
	gen := s.gen
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.mu.Unlock()

	articles, err := fn(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		s.logger.Debug("action superseded", "op", op)
		return nil, ErrSuperseded
	}
	s.cancel = nil
	if err != nil {
		s.lastErr = err
		return nil, err
	}
	s.articles = articles
	s.lastErr = nil
	return articles, nil
}

// Articles returns a copy of the current result list.
func (s *Session) Articles() []wikipedia.Article {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.articles == nil {
		return nil
	}
	out := make([]wikipedia.Article, len(s.articles))
	copy(out, s.articles)
	return out
}

// LastError returns the failure of the most recent completed action, or nil
// if it succeeded.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// DismissError clears the last-error slot.
func (s *Session) DismissError() {
	s.mu.Lock()
	s.lastErr = nil
	s.mu.Unlock()
}

// Cancel aborts the action in flight, if any. The aborted action returns
// [ErrSuperseded] and leaves both slots untouched.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
