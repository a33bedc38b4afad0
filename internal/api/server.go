// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihandler "github.com/newthinker/pairscope/internal/api/handler/api"
	"github.com/newthinker/pairscope/internal/api/response"
	"github.com/newthinker/pairscope/internal/metrics"
)

// Server represents the HTTP server for pairscope
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
}

// Config holds server configuration
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MetricsPath  string // empty disables /metrics
}

// Dependencies are the collaborators the routes need.
type Dependencies struct {
	Analyzer   apihandler.Analyzer
	Correlator apihandler.Correlator  // optional
	Reports    apihandler.ReportStore // optional
	Metrics    *metrics.Registry      // optional
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if deps.Analyzer == nil {
		return nil, fmt.Errorf("analyzer is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 60 * time.Second
	}

	mux := http.NewServeMux()

	s := &Server{
		logger: logger,
		mux:    mux,
	}
	s.setupRoutes(cfg, deps)

	var handler http.Handler = mux
	if deps.Metrics != nil {
		handler = metrics.HTTPMiddleware(deps.Metrics)(handler)
	}
	handler = metrics.LoggingMiddleware(logger)(handler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) {
	analysis := apihandler.NewAnalysisHandler(deps.Analyzer)
	s.mux.HandleFunc("GET /api/v1/analysis", analysis.Get)
	s.mux.HandleFunc("POST /api/v1/analysis", analysis.Post)
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	if deps.Correlator != nil {
		correlation := apihandler.NewCorrelationHandler(deps.Correlator)
		s.mux.HandleFunc("GET /api/v1/correlation", correlation.Get)
	}

	if deps.Reports != nil {
		reports := apihandler.NewReportsHandler(deps.Reports)
		s.mux.HandleFunc("GET /api/v1/reports", reports.List)
		s.mux.HandleFunc("GET /api/v1/reports/{key...}", reports.Get)
		s.mux.HandleFunc("HEAD /api/v1/reports/{key...}", reports.Head)
	}

	if deps.Metrics != nil && cfg.MetricsPath != "" {
		s.mux.Handle("GET "+cfg.MetricsPath, promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}
}

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
