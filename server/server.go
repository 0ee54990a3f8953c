// Package server provides the HTTP server: middleware stack, routes and
// graceful shutdown.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/giygas/israeldrugs-mcp/config"
	"github.com/giygas/israeldrugs-mcp/interfaces"
	"github.com/giygas/israeldrugs-mcp/logging"
	"github.com/giygas/israeldrugs-mcp/metrics"
)

// Per-client budget: 3 tokens per second, bursting to 300.
const (
	clientTokenRate     = 3
	clientTokenCapacity = 300
)

// Server represents the HTTP server
type Server struct {
	server      *http.Server
	router      chi.Router
	handler     interfaces.HTTPHandler
	rateLimiter *RateLimiter
	config      *config.Config
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, handler interfaces.HTTPHandler) *Server {
	router := chi.NewRouter()

	s := &Server{
		server: &http.Server{
			Handler:           router,
			Addr:              cfg.Address + ":" + cfg.Port,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			// a cascade may chain several upstream calls
			WriteTimeout:   90 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: int(cfg.MaxHeaderSize),
		},
		router:      router,
		handler:     handler,
		rateLimiter: NewRateLimiter(clientTokenRate, clientTokenCapacity),
		config:      cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	if s.config.Env == "prod" {
		s.router.Use(BlockDirectAccessMiddleware) // before RealIP, to see the proxy's address
	}
	s.router.Use(RealIPMiddleware)
	s.router.Use(logging.LoggingMiddleware(logging.Logger()))
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(s.rateLimiter.Middleware)
	s.router.Use(metrics.Metrics)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Route("/v1/drugs", func(r chi.Router) {
		r.Get("/search", s.handler.SearchByName)
		r.Get("/symptoms", s.handler.SearchBySymptom)
		r.Get("/alternatives", s.handler.FindAlternatives)
		r.Get("/suggest", s.handler.Suggest)
	})
	s.router.Get("/health", s.handler.HealthCheck)
	s.router.Handle("/metrics", promhttp.Handler())
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start serves until Shutdown; it returns nil after a graceful shutdown.
func (s *Server) Start() error {
	s.rateLimiter.StartCleanup(30 * time.Minute)
	logging.Info("Starting server", "address", s.server.Addr, "env", s.config.Env)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")
	s.rateLimiter.Stop()

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		if closeErr := s.server.Close(); closeErr != nil {
			logging.Error("Server close error", "error", closeErr)
			return closeErr
		}
		return err
	}

	logging.Info("Server shutdown complete")
	return nil
}
