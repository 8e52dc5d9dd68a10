package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/eidaops/eidaqc/internal/api"
	"github.com/eidaops/eidaqc/internal/config"
	"github.com/eidaops/eidaqc/internal/consistency"
	"github.com/eidaops/eidaqc/internal/handlers"
	"github.com/eidaops/eidaqc/internal/middleware"
	"github.com/eidaops/eidaqc/internal/probe"
)

// Server is the ops HTTP server of the daemon. It exposes health, metrics
// and the probe status mirror, nothing else.
type Server struct {
	httpServer *http.Server
	logger     logrus.FieldLogger
}

// New creates the ops HTTP server with all routes and middleware. Both
// providers may be nil when the Redis mirror is disabled; the status
// endpoint then answers 503.
func New(
	logger logrus.FieldLogger,
	cfg *config.ServerConfig,
	probes probe.Provider,
	summaries consistency.SummaryProvider,
) *Server {
	mux := http.NewServeMux()

	// Health endpoint (no middleware needed for simple health check)
	mux.HandleFunc("GET /health", handlers.Health())
	logger.WithField("route", "GET /health").Info("Registered route")

	// Metrics endpoint (Prometheus format)
	mux.Handle("GET /metrics", promhttp.Handler())
	logger.WithField("route", "GET /metrics").Info("Registered route")

	// Latest probe outcome and counters from the Redis mirror
	statusHandler := api.NewStatusHandler(probes, summaries, logger)
	mux.Handle("GET /api/v1/status", statusHandler)
	logger.WithField("route", "GET /api/v1/status").Info("Registered route")

	// Apply middleware chain: Logging → Metrics → Recovery
	handler := middleware.Logging(logger)(mux)
	handler = middleware.Metrics()(handler)
	handler = middleware.Recovery(logger)(handler)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		logger:     logger,
	}
}

// Start starts the HTTP server (blocking call).
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("Starting HTTP server")

	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")

	return s.httpServer.Shutdown(ctx)
}
