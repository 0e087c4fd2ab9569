// Package server implements the auri HTTP API.
//
// Every /v1 route runs as the user named by the bearer token's subject.
// With authentication disabled, all requests act as the configured local
// user.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/auri-app/auri/internal/config"
	"github.com/auri-app/auri/pkg/analysis"
	"github.com/auri-app/auri/pkg/cache"
	"github.com/auri-app/auri/pkg/journal"
	"github.com/auri-app/auri/pkg/metrics"
	"github.com/auri-app/auri/pkg/pipeline"
)

// Deps are the services the API is built on.
type Deps struct {
	Store    journal.Store
	Analyzer analysis.Analyzer
	Runner   *pipeline.Runner
	Metrics  *metrics.Registry // nil disables /metrics and request metrics
	Logger   *log.Logger
}

// Server serves the HTTP API.
type Server struct {
	cfg      *config.Config
	store    journal.Store
	analyzer analysis.Analyzer
	runner   *pipeline.Runner
	metrics  *metrics.Registry
	logger   *log.Logger
	auth     *Authenticator // nil when authentication is disabled
	limiter  *userLimiter   // nil when analysis is not rate limited
}

// New creates a server. cfg must pass [config.Config.ValidateServer].
func New(cfg *config.Config, deps Deps) (*Server, error) {
	if err := cfg.ValidateServer(); err != nil {
		return nil, err
	}
	if deps.Store == nil {
		return nil, errors.New("server: journal store is required")
	}
	if deps.Analyzer == nil {
		deps.Analyzer = analysis.Mock{}
	}
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	if deps.Runner == nil {
		deps.Runner = pipeline.NewRunner(nil, nil, deps.Logger)
	}
	deps.Runner.Store = deps.Store

	s := &Server{
		cfg:      cfg,
		store:    deps.Store,
		analyzer: deps.Analyzer,
		runner:   deps.Runner,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		limiter:  newUserLimiter(cfg.Server.AnalyzeRate, cfg.Server.AnalyzeBurst),
	}
	if !cfg.Server.NoAuth {
		a, err := NewAuthenticator(cfg.Server.JWTSecret)
		if err != nil {
			return nil, err
		}
		s.auth = a
	}
	return s, nil
}

// Handler returns the router for the API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, r, errRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, r, errMethodNotAllowed)
	})

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.authenticate)

		r.Post("/entries", s.handleCreateEntry)
		r.Get("/entries", s.handleListEntries)
		r.Get("/entries/{id}", s.handleGetEntry)
		r.Delete("/entries/{id}", s.handleDeleteEntry)

		r.Post("/analysis", s.handleAnalyze)

		r.Get("/emotions", s.handleEmotions)
		r.Get("/emotions/bubbles", s.handleBubbles)

		r.Post("/layout", s.handleLayout)
	})
	return r
}

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("listening", "addr", srv.Addr, "auth", s.auth != nil)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", srv.Addr, err)
	case <-ctx.Done():
	}

	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("shutting down", "timeout", timeout)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// runnerFor returns a runner whose layout and artifact keys live in the
// user's cache namespace.
func (s *Server) runnerFor(userID string) *pipeline.Runner {
	r := *s.runner
	r.Keyer = cache.UserKeyer(s.runner.Keyer, userID)
	return &r
}

// pipelineOptions seeds pipeline options from the configured layout defaults.
func (s *Server) pipelineOptions(userID string) pipeline.Options {
	return pipeline.Options{
		UserID:        userID,
		MaxIterations: s.cfg.Layout.MaxIterations,
		MaxRadius:     s.cfg.Layout.MaxRadius,
		BestEffort:    s.cfg.Layout.BestEffort,
		Palette:       s.cfg.Layout.Palette,
		Logger:        s.logger,
	}
}
