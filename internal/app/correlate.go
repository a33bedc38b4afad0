package app

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/newthinker/pairscope/internal/core"
	"github.com/newthinker/pairscope/internal/correlation"
)

// maxConcurrentFetches bounds the provider calls of one correlation request.
const maxConcurrentFetches = 8

// CompleteCorrelation normalises the tickers and fills the empty fields of
// req. An empty ticker list means the configured universe.
func (a *App) CompleteCorrelation(req correlation.Request) correlation.Request {
	tickers := req.Tickers
	if len(tickers) == 0 {
		tickers = a.defaults.Universe
	}
	req.Tickers = make([]string, len(tickers))
	for i, t := range tickers {
		req.Tickers[i] = strings.ToUpper(strings.TrimSpace(t))
	}
	if req.Start.IsZero() {
		req.Start = a.defaults.Start
	}
	if req.End.IsZero() {
		req.End = core.Day(a.now())
	}
	if req.Basis == "" {
		req.Basis = correlation.BasisPrices
	}
	return req
}

// Correlate fetches every ticker and ranks their pairwise correlations.
// Any failed fetch fails the request.
func (a *App) Correlate(ctx context.Context, req correlation.Request) (*correlation.Report, error) {
	start := time.Now()
	req = a.CompleteCorrelation(req)

	m, err := a.correlate(ctx, req)

	fields := []zap.Field{
		zap.Int("tickers", len(req.Tickers)),
		zap.Time("start", req.Start),
		zap.Time("end", req.End),
		zap.String("basis", string(req.Basis)),
		zap.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		a.logger.Warn("correlation failed", append(fields, zap.String("status", statusOf(err)), zap.Error(err))...)
		return nil, err
	}

	r := m.Report(req.Start, req.End)
	if r.MostCorrelated != nil {
		fields = append(fields,
			zap.String("top_pair", r.MostCorrelated.Symbol1+"/"+r.MostCorrelated.Symbol2),
			zap.Float64("top_correlation", r.MostCorrelated.Correlation),
		)
	}
	a.logger.Info("correlation completed", fields...)
	return &r, nil
}

func (a *App) correlate(ctx context.Context, req correlation.Request) (*correlation.Matrix, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	all := make([]core.PriceSeries, len(req.Tickers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, symbol := range req.Tickers {
		g.Go(func() error {
			s, err := a.fetch(gctx, symbol, req.Start, req.End)
			if err != nil {
				return err
			}
			if s.Symbol == "" {
				s.Symbol = symbol
			}
			all[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return correlation.Build(all, correlation.Options{
		Start:      req.Start,
		End:        req.End,
		MinSamples: a.pipeline.MinSamples,
		Basis:      req.Basis,
	})
}
