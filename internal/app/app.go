package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/newthinker/pairscope/internal/collector"
	"github.com/newthinker/pairscope/internal/core"
	"github.com/newthinker/pairscope/internal/metrics"
	"github.com/newthinker/pairscope/internal/pipeline"
	"github.com/newthinker/pairscope/internal/storage/archive"
)

// Defaults fill request parameters the caller left empty.
type Defaults struct {
	Start         time.Time
	StdMultiplier float64
	Window        int
	Universe      []string
}

// App fetches price histories and runs the pair analysis.
type App struct {
	provider collector.Provider
	pipeline pipeline.Config
	defaults Defaults
	timeout  time.Duration
	logger   *zap.Logger
	metrics  *metrics.Registry
	archive  *archive.Reports
	now      func() time.Time
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithMetrics records analyses in reg.
func WithMetrics(reg *metrics.Registry) Option {
	return func(a *App) { a.metrics = reg }
}

// WithArchive stores every successful report, series included.
func WithArchive(r *archive.Reports) Option {
	return func(a *App) { a.archive = r }
}

// WithTimeout bounds each analysis, price fetches included.
func WithTimeout(d time.Duration) Option {
	return func(a *App) { a.timeout = d }
}

// WithClock overrides the clock used for the default end date.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// New creates a new App instance
func New(provider collector.Provider, cfg pipeline.Config, defaults Defaults, opts ...Option) *App {
	a := &App{
		provider: provider,
		pipeline: cfg,
		defaults: defaults,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Archive returns the report archive, or nil when archiving is off.
func (a *App) Archive() *archive.Reports {
	return a.archive
}

// Defaults returns the request defaults.
func (a *App) Defaults() Defaults {
	return a.defaults
}

// Complete fills the empty fields of req from the defaults. The end date
// defaults to today.
func (a *App) Complete(req pipeline.Request) pipeline.Request {
	req.Ticker1 = strings.ToUpper(strings.TrimSpace(req.Ticker1))
	req.Ticker2 = strings.ToUpper(strings.TrimSpace(req.Ticker2))
	if req.Start.IsZero() {
		req.Start = a.defaults.Start
	}
	if req.End.IsZero() {
		req.End = core.Day(a.now())
	}
	if req.StdMultiplier == 0 {
		req.StdMultiplier = a.defaults.StdMultiplier
	}
	if req.Window == 0 {
		req.Window = a.defaults.Window
	}
	return req
}

// Analyze fetches both tickers concurrently and runs the analysis.
func (a *App) Analyze(ctx context.Context, req pipeline.Request) (*pipeline.Bundle, error) {
	start := time.Now()
	req = a.Complete(req)

	bundle, err := a.analyze(ctx, req)

	status := statusOf(err)
	if a.metrics != nil {
		a.metrics.RecordAnalysis(status, time.Since(start).Seconds())
		if err == nil {
			a.metrics.RecordCointegration(bundle.Cointegration.PValue)
		}
	}

	fields := []zap.Field{
		zap.String("ticker1", req.Ticker1),
		zap.String("ticker2", req.Ticker2),
		zap.Time("start", req.Start),
		zap.Time("end", req.End),
		zap.Int("window", req.Window),
		zap.Float64("std", req.StdMultiplier),
		zap.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		a.logger.Warn("analysis failed", append(fields, zap.String("status", status), zap.Error(err))...)
		return nil, err
	}

	a.logger.Info("analysis completed", append(fields,
		zap.Int("observations", bundle.Pair.Len()),
		zap.Float64("coint_pvalue", bundle.Cointegration.PValue),
		zap.Float64("adf_pvalue", bundle.ADF.PValue),
		zap.Int("static_trades", len(bundle.StaticReturns.Trades)),
		zap.Int("bands_trades", len(bundle.BandsReturns.Trades)),
	)...)

	if a.archive != nil {
		a.store(ctx, bundle)
	}
	return bundle, nil
}

// store archives the report. Failures are logged and never fail the analysis.
func (a *App) store(ctx context.Context, bundle *pipeline.Bundle) {
	key, err := a.archive.Save(ctx, bundle.Report(true))
	if err != nil {
		a.logger.Warn("archiving report failed", zap.Error(err))
		return
	}
	a.logger.Debug("report archived", zap.String("key", key))
}

func (a *App) analyze(ctx context.Context, req pipeline.Request) (*pipeline.Bundle, error) {
	// Reject bad input before any network round trip.
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	var s1, s2 core.PriceSeries
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		s1, err = a.fetch(gctx, req.Ticker1, req.Start, req.End)
		return err
	})
	g.Go(func() error {
		var err error
		s2, err = a.fetch(gctx, req.Ticker2, req.Start, req.End)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return pipeline.Analyze(a.pipeline, req, s1, s2)
}

func (a *App) fetch(ctx context.Context, symbol string, start, end time.Time) (core.PriceSeries, error) {
	s, err := a.provider.FetchHistory(ctx, symbol, start, end)
	if a.metrics != nil {
		a.metrics.RecordFetch(a.providerFor(symbol), statusOf(err))
	}
	if err != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, core.ErrCollectorTimeout):
			return core.PriceSeries{}, core.WrapError(core.ErrCollectorTimeout, err)
		case errors.Is(err, core.ErrSymbolNotFound):
			// An unknown ticker is a bad request parameter; the cause keeps
			// SYMBOL_NOT_FOUND for the HTTP mapping.
			return core.PriceSeries{}, core.WrapError(core.ErrInvalidParameter, err)
		}
		return core.PriceSeries{}, err
	}
	a.logger.Debug("fetched history",
		zap.String("symbol", symbol),
		zap.Int("points", s.Len()),
	)
	return s, nil
}

// providerFor names the provider that serves symbol, looking through
// routing registries and caches.
func (a *App) providerFor(symbol string) string {
	if r, ok := a.provider.(collector.Router); ok {
		if p, err := r.Route(symbol); err == nil {
			return p.Name()
		}
	}
	return a.provider.Name()
}

// statusOf maps an error to a metrics label.
func statusOf(err error) string {
	if err == nil {
		return "ok"
	}
	var e *core.Error
	if errors.As(err, &e) {
		return strings.ToLower(e.Code)
	}
	return "error"
}
