package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/newthinker/pairscope/internal/collector"
	"github.com/newthinker/pairscope/internal/collector/cache"
	"github.com/newthinker/pairscope/internal/collector/eastmoney"
	"github.com/newthinker/pairscope/internal/collector/yahoo"
	"github.com/newthinker/pairscope/internal/config"
	"github.com/newthinker/pairscope/internal/metrics"
	"github.com/newthinker/pairscope/internal/storage/archive"
)

// Build assembles an App from configuration: the provider registry, the
// optional Redis cache, the optional report archive and the analysis
// conventions. The returned cleanup
// releases the Redis connection.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger, reg *metrics.Registry) (*App, func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cleanup := func() {}

	providers := collector.NewRegistry(cfg.Collector.Default)
	providers.Register(yahoo.New(collector.Config{
		BaseURL: cfg.Collector.YahooURL,
		Timeout: cfg.Collector.Timeout,
	}))
	providers.Register(eastmoney.New(collector.Config{
		BaseURL: cfg.Collector.EastmoneyURL,
		Timeout: cfg.Collector.Timeout,
	}), eastmoney.Suffixes...)

	var provider collector.Provider = providers
	if cfg.Cache.Enabled {
		client, err := cache.NewClient(ctx, cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB)
		if err != nil {
			return nil, cleanup, err
		}
		cleanup = func() { _ = client.Close() }

		opts := []cache.Option{cache.WithLogger(logger)}
		if reg != nil {
			opts = append(opts, cache.WithObserver(reg.RecordCacheLookup))
		}
		provider = cache.New(providers, client, cfg.Cache.TTL, opts...)
		logger.Info("price cache enabled", zap.String("addr", cfg.Cache.Addr), zap.Duration("ttl", cfg.Cache.TTL))
	}

	pcfg, err := cfg.Analysis.PipelineConfig()
	if err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("analysis config: %w", err)
	}
	start, err := cfg.Analysis.Start()
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}

	opts := []Option{
		WithLogger(logger),
		WithMetrics(reg),
		WithTimeout(cfg.Analysis.Timeout),
	}
	if cfg.Archive.Enabled {
		store, err := archive.New(cfg.Archive.StorageConfig())
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("archive: %w", err)
		}
		opts = append(opts, WithArchive(archive.NewReports(store)))
		logger.Info("report archive enabled", zap.String("backend", cfg.Archive.Backend))
	}

	a := New(provider, pcfg, Defaults{
		Start:         start,
		StdMultiplier: cfg.Analysis.StdMultiplier,
		Window:        cfg.Analysis.Window,
		Universe:      cfg.Analysis.Universe,
	}, opts...)
	return a, cleanup, nil
}
