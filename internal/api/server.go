package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/wonny/prism/pkg/config"
	"github.com/wonny/prism/pkg/logger"
	"github.com/wonny/prism/pkg/metrics"
)

// Server represents the HTTP API server
type Server struct {
	httpServer    *http.Server
	metricsServer *http.Server
	logger        *logger.Logger
	config        *config.Config
}

// New creates a new API server. When metrics are enabled a second
// listener serves /metrics on the metrics port.
func New(cfg *config.Config, log *logger.Logger, router http.Handler) *Server {
	s := &Server{
		httpServer: &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: log,
		config: cfg,
	}

	if cfg.MetricsEnabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		s.metricsServer = &http.Server{
			Addr:        ":" + cfg.MetricsPort,
			Handler:     mux,
			ReadTimeout: 15 * time.Second,
		}
	}

	return s
}

// Start starts the HTTP server and blocks until shutdown
func (s *Server) Start() error {
	if s.metricsServer != nil {
		go func() {
			s.logger.WithField("port", s.config.MetricsPort).Info("Starting metrics server")
			if err := s.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				s.logger.WithError(err).Error("Metrics server failed")
			}
		}()
	}

	s.logger.WithFields(map[string]interface{}{
		"port": s.config.Port,
		"env":  s.config.Env,
	}).Info("Starting API server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")

	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(ctx); err != nil {
			s.logger.WithError(err).Warn("Metrics server shutdown failed")
		}
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
