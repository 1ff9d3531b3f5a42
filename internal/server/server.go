// Package server provides the HTTP API for Susume.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/susume/internal/auth"
	"github.com/hyperjump/susume/internal/config"
	"github.com/hyperjump/susume/internal/freshness"
	"github.com/hyperjump/susume/internal/library"
	"github.com/hyperjump/susume/internal/recommend"
	"github.com/hyperjump/susume/internal/titles"
)

// sessionCookie is the name of the browser session cookie.
const sessionCookie = "susume_session"

// Server is the HTTP server for the Susume API.
type Server struct {
	lib       *library.Library
	engine    *recommend.Engine
	rebuilder *library.Rebuilder
	monitor   *freshness.Monitor
	users     *auth.Store
	sessions  *auth.Sessions
	titles    *titles.Index
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server

	// rebuildMu serializes rebuilds triggered by requests and the watcher.
	rebuildMu sync.Mutex
}

// NewServer creates a server with the given dependencies.
func NewServer(
	lib *library.Library,
	engine *recommend.Engine,
	rebuilder *library.Rebuilder,
	monitor *freshness.Monitor,
	users *auth.Store,
	sessions *auth.Sessions,
	titleIndex *titles.Index,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		lib:       lib,
		engine:    engine,
		rebuilder: rebuilder,
		monitor:   monitor,
		users:     users,
		sessions:  sessions,
		titles:    titleIndex,
		config:    cfg,
		logger:    logger,
	}
}

// Routes builds the router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/auth/signup", s.handleSignup)
	r.Post("/api/v1/auth/login", s.handleLogin)
	r.Post("/api/v1/auth/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)
		r.Get("/api/v1/movies", s.handleMovies)
		r.Get("/api/v1/movies/search", s.handleMovieSearch)
		r.Post("/api/v1/recommendations", s.handleRecommend)
		r.Post("/api/v1/dataset/refresh", s.handleDatasetRefresh)
		r.Get("/api/v1/dataset/status", s.handleDatasetStatus)
	})

	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// EnsureFresh compares the dataset mtime against the freshness record and
// rebuilds the library when they differ. Returns whether a rebuild happened.
// Rebuilds are serialized; a caller that loses the race re-checks under the
// lock and finds the record already current.
func (s *Server) EnsureFresh(ctx context.Context) (bool, error) {
	stale, err := s.monitor.ShouldRebuild()
	if err != nil {
		return false, err
	}
	if !stale {
		return false, nil
	}

	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()
	stale, err = s.monitor.ShouldRebuild()
	if err != nil {
		return false, err
	}
	if !stale {
		return false, nil
	}

	current, err := s.monitor.CurrentModified()
	if err != nil {
		return false, err
	}
	snap, err := s.rebuilder.Rebuild(ctx)
	if err != nil {
		return false, fmt.Errorf("rebuild library: %w", err)
	}
	s.lib.Swap(snap)
	if err := s.monitor.MarkRebuilt(current); err != nil {
		return true, fmt.Errorf("record rebuild: %w", err)
	}
	s.logger.Info("library refreshed", zap.Float64("dataset_modified", current))
	return true, nil
}
