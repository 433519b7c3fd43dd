// Package webserver hosts the REST API over a plain net/http server with
// graceful shutdown.
package webserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lake-health/lakecalc-ai/internal/audit"
	"github.com/lake-health/lakecalc-ai/internal/catalog"
	"github.com/lake-health/lakecalc-ai/internal/webapi"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port   int
	Store  catalog.Service
	Audit  *audit.Writer
	Logger *slog.Logger
}

// Server wraps the HTTP server with configuration.
type Server struct {
	cfg    Config
	srv    *http.Server
	logger *slog.Logger
}

// New creates a new HTTP server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Port == 0 {
		cfg.Port = 3000
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("webserver: catalog store is required")
	}
	if cfg.Audit == nil {
		w, err := audit.NewWriter("")
		if err != nil {
			return nil, err
		}
		cfg.Audit = w
	}

	mux := http.NewServeMux()
	webapi.RegisterRoutes(mux, cfg.Store, cfg.Audit)

	return &Server{
		cfg:    cfg,
		logger: cfg.Logger,
		srv: &http.Server{
			Addr:              fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// ListenAndServe starts the HTTP server and blocks until the context is
// cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.logger.Info("HTTP server starting", "address", s.srv.Addr)
	fmt.Printf("lakecalc API: http://localhost:%d\n", s.cfg.Port)

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("HTTP server shutdown error", "error", err)
		}
	}()

	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Handler returns the underlying http.Handler (useful for testing).
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}
