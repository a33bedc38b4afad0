// Package pipeline runs the pairs analysis end to end on two price histories.
package pipeline

import (
	"golang.org/x/sync/errgroup"

	"github.com/newthinker/pairscope/internal/backtest"
	"github.com/newthinker/pairscope/internal/core"
	"github.com/newthinker/pairscope/internal/indicator"
	"github.com/newthinker/pairscope/internal/series"
	"github.com/newthinker/pairscope/internal/spread"
	"github.com/newthinker/pairscope/internal/stattest"
	"github.com/newthinker/pairscope/internal/strategy"
)

// Analyze aligns s1 and s2, tests the pair, builds bands and runs both
// strategy variants. It performs no I/O.
func Analyze(cfg Config, req Request, s1, s2 core.PriceSeries) (*Bundle, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, core.WrapError(core.ErrInvalidParameter, err)
	}

	pair, err := series.Align(s1, s2, series.Options{
		Start:      req.Start,
		End:        req.End,
		Window:     req.Window,
		MinSamples: cfg.MinSamples,
		Fill:       cfg.Fill,
	})
	if err != nil {
		return nil, err
	}
	pair.Symbol1, pair.Symbol2 = req.Ticker1, req.Ticker2

	set, err := spread.Build(pair, cfg.SpreadScale)
	if err != nil {
		return nil, err
	}
	basis := set.Select(cfg.Basis)

	b := &Bundle{
		Request: req,
		Basis:   cfg.Basis,
		Pair:    pair,
		Spread:  set,
	}
	b.Correlation = correlate(pair)

	// Both tests only read pair and basis.
	var g errgroup.Group
	g.Go(func() error {
		values, _ := basis.Floats()
		res, err := stattest.ADF(values, cfg.ADF)
		b.ADF = res
		return err
	})
	g.Go(func() error {
		res, err := stattest.Cointegration(pair.Price1, pair.Price2, cfg.ADF)
		b.Cointegration = res
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	b.Cointegrated = b.Cointegration.PValue < cfg.Significance

	bands, err := indicator.Bands(basis, req.Window, req.StdMultiplier)
	if err != nil {
		return nil, err
	}
	b.Bands = bands

	opts := backtest.Options{Accounting: cfg.Accounting, Compounding: cfg.Compounding, Scale: cfg.SpreadScale}
	for _, v := range []struct {
		m   strategy.Machine
		pos *strategy.PositionSeries
		res *backtest.Result
	}{
		{strategy.Static(), &b.StaticPositions, &b.StaticReturns},
		{strategy.Dynamic(cfg.DynamicEntry), &b.BandsPositions, &b.BandsReturns},
	} {
		pos, err := strategy.Generate(basis, bands, v.m)
		if err != nil {
			return nil, err
		}
		res, err := backtest.Accumulate(pos, pair, set.Spread, opts)
		if err != nil {
			return nil, err
		}
		*v.pos, *v.res = pos, res
	}

	return b, nil
}
