package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/config"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/logging"
)

// Server wraps the stdlib HTTP server with configured timeouts and
// graceful shutdown.
type Server struct {
	srv             *http.Server
	logger          logging.Logger
	shutdownTimeout time.Duration
}

func NewServer(cfg config.ServerConfig, handler http.Handler, log logging.Logger) *Server {
	if cfg.MaxBodySize > 0 {
		handler = http.MaxBytesHandler(handler, cfg.MaxBodySize)
	}
	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}

	return &Server{
		srv: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
		logger:          log,
		shutdownTimeout: shutdownTimeout,
	}
}

// Start blocks serving requests until Stop is called or the listener fails.
func (s *Server) Start() error {
	s.logger.Info("http server listening", logging.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop drains in-flight requests within the shutdown timeout.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
