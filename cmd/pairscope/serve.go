package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/pairscope/internal/api"
	"github.com/newthinker/pairscope/internal/app"
	"github.com/newthinker/pairscope/internal/logger"
	"github.com/newthinker/pairscope/internal/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the pairscope HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Initialize logger
	log := logger.Must(logger.Options{Development: debug})
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	var reg *metrics.Registry
	metricsPath := ""
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
		metricsPath = cfg.Metrics.Path
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	service, cleanup, err := app.Build(ctx, cfg, log, reg)
	if err != nil {
		return fmt.Errorf("building app: %w", err)
	}
	defer cleanup()

	log.Info("starting pairscope server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("default_collector", cfg.Collector.Default),
		zap.Bool("cache", cfg.Cache.Enabled),
		zap.Bool("archive", cfg.Archive.Enabled),
	)

	deps := api.Dependencies{Analyzer: service, Correlator: service, Metrics: reg}
	if reports := service.Archive(); reports != nil {
		deps.Reports = reports
	}

	// Create API server
	server, err := api.NewServer(api.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		MetricsPath:  metricsPath,
	}, deps, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Wait for shutdown signal
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down pairscope server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
