// Package server exposes article search as a small JSON HTTP API.
//
// The API is what a browser search widget talks to. It is stateless: every
// request runs its own two-stage query under the request context, which is
// cancelled when the client goes away.
//
// # Routes
//
//	GET /api/search?q=<keyword>  {"articles":[...]}
//	GET /api/random              {"articles":[...]} (one article)
//	GET /healthz                 {"status":"ok"}
//	GET /version                 {"version":..., "commit":..., "date":...}
//
// Failures are reported as {"error":{"code":..., "message":...}}: 400 for
// INVALID_INPUT, 502 for QUERY_ERROR and 500 otherwise. The message is
// generic; the cause is logged with the request id.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/wikiviewer/pkg/session"
)

// DefaultShutdownTimeout bounds graceful shutdown in [Server.Run].
const DefaultShutdownTimeout = 10 * time.Second

// Options configures a [Server].
type Options struct {
	Addr            string        // listen address, e.g. ":8080"
	AllowedOrigins  []string      // CORS origins (default "*")
	ShutdownTimeout time.Duration // default DefaultShutdownTimeout
	Logger          *log.Logger   // default log.Default()
}

// Server serves the article API.
type Server struct {
	client          session.Searcher
	addr            string
	shutdownTimeout time.Duration
	logger          *log.Logger
	router          chi.Router
}

// New creates a server backed by client (usually a *wikipedia.Client).
func New(client session.Searcher, opts Options) *Server {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	s := &Server{
		client:          client,
		addr:            opts.Addr,
		shutdownTimeout: opts.ShutdownTimeout,
		logger:          opts.Logger,
	}
	s.router = s.routes(opts.AllowedOrigins)
	return s
}

func (s *Server) routes(origins []string) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Route("/api", func(r chi.Router) {
		r.Get("/search", s.handleSearch)
		r.Get("/random", s.handleRandom)
	})
	r.NotFound(s.handleNotFound)
	return r
}

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler { return s.router }

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully. It returns nil after a clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("Listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
