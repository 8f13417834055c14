// Package server exposes the record store over HTTP. Each endpoint is a thin
// passthrough to either the repository API or the write-session API; no logic
// lives here beyond argument marshaling and status-code mapping.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm/logger"

	"github.com/gustavo-moliveira/recordstore/internal/config"
	"github.com/gustavo-moliveira/recordstore/internal/store"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
const DefaultHTTPTimeout = 30 * time.Second

// Service is the HTTP service orchestrator.
type Service struct {
	version string
	config  *config.Config

	store   *store.Store
	records *store.RecordStore

	router    *chi.Mux
	server    *http.Server
	startTime time.Time
}

// NewService creates the service, opens the store, and wires routes.
func NewService(cfg *config.Config, version string) (*Service, error) {
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}

	st, err := store.NewStore(store.Config{
		DSN:        cfg.DSN,
		SQLitePath: cfg.SQLitePath,
		MaxConns:   cfg.MaxConns,
		LogLevel:   logger.Silent,
	})
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	svc := &Service{
		version:   version,
		config:    cfg,
		store:     st,
		records:   store.NewRecordStore(st),
		router:    chi.NewRouter(),
		startTime: time.Now(),
	}

	svc.setupMiddleware()
	svc.setupRoutes()

	return svc, nil
}

// setupMiddleware configures HTTP middleware.
func (s *Service) setupMiddleware() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(DefaultHTTPTimeout))
	s.router.Use(middleware.RealIP)
	s.router.Use(RequestID)
	s.router.Use(MaxBodySize(s.config.MaxBodyBytes))
	s.router.Use(RequireJSONContentType)
}

// setupRoutes configures HTTP routes. The repo/session split mirrors the two
// data-access styles being compared.
func (s *Service) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/api/ready", s.handleReady)
	s.router.Get("/api/stats", s.handleStats)

	// Repository flavor (GORM)
	s.router.Get("/api/repo/records", s.handleRepoFindAll)
	s.router.Get("/api/repo/records/search", s.handleRepoSearch)
	s.router.Post("/api/repo/records/batch", s.handleRepoBatchInsert)

	// Write-session flavor (database/sql)
	s.router.Get("/api/session/records", s.handleSessionFindAll)
	s.router.Get("/api/session/records/search", s.handleSessionSearch)
	s.router.Post("/api/session/records/batch", s.handleSessionBatchInsert)
}

// Router returns the configured router, used by tests.
func (s *Service) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Service) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.ListenPort),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	log.Info().
		Int("port", s.config.ListenPort).
		Str("version", s.version).
		Msg("Record store HTTP server started")

	return nil
}

// Shutdown gracefully shuts down the service.
func (s *Service) Shutdown(ctx context.Context) error {
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("HTTP server shutdown error")
		}
	}

	if err := s.store.Close(); err != nil {
		log.Error().Err(err).Msg("Store close error")
	}

	log.Info().Msg("Service shutdown complete")
	return nil
}
