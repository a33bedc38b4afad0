package pipeline

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/newthinker/pairscope/internal/backtest"
	"github.com/newthinker/pairscope/internal/core"
	"github.com/newthinker/pairscope/internal/series"
	"github.com/newthinker/pairscope/internal/spread"
	"github.com/newthinker/pairscope/internal/stattest"
	"github.com/newthinker/pairscope/internal/strategy"
)

// Config holds the analysis conventions that stay fixed across requests.
type Config struct {
	MinSamples   int
	Basis        spread.Basis
	Fill         series.FillPolicy
	Compounding  backtest.Compounding
	Accounting   backtest.Accounting
	SpreadScale  float64
	ADF          stattest.Options
	DynamicEntry strategy.BandSource
	Significance float64
}

// DefaultConfig returns the conventions of the original analysis.
func DefaultConfig() Config {
	return Config{
		MinSamples:   series.DefaultMinSamples,
		Basis:        spread.BasisSpread,
		Fill:         series.FillDrop,
		Compounding:  backtest.CompoundSimple,
		Accounting:   backtest.AccountLegs,
		SpreadScale:  1.0,
		ADF:          stattest.Options{Rule: stattest.LagAIC},
		DynamicEntry: strategy.Live,
		Significance: 0.05,
	}
}

// Request is one analysis request.
type Request struct {
	Ticker1       string    `json:"ticker1"`
	Ticker2       string    `json:"ticker2"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	StdMultiplier float64   `json:"std"`
	Window        int       `json:"window"`
}

// Validate checks the request parameters.
func (r Request) Validate() error {
	t1 := strings.TrimSpace(r.Ticker1)
	t2 := strings.TrimSpace(r.Ticker2)
	switch {
	case t1 == "" || t2 == "":
		return core.Errorf(core.ErrInvalidParameter, "both tickers are required")
	case strings.EqualFold(t1, t2):
		return core.Errorf(core.ErrInvalidParameter, "tickers must differ, got %s twice", t1)
	case !r.Start.IsZero() && !r.End.IsZero() && !r.Start.Before(r.End):
		return core.Errorf(core.ErrInvalidParameter, "start %s must be before end %s",
			r.Start.Format(time.DateOnly), r.End.Format(time.DateOnly))
	case !(r.StdMultiplier > 0) || math.IsInf(r.StdMultiplier, 0):
		return core.Errorf(core.ErrInvalidParameter, "std multiplier must be positive, got %v", r.StdMultiplier)
	case r.Window < 2:
		return core.Errorf(core.ErrInvalidParameter, "window must be >= 2, got %d", r.Window)
	}
	return nil
}

func (c Config) validate() error {
	if c.Significance <= 0 || c.Significance >= 1 {
		return fmt.Errorf("significance must be in (0, 1), got %v", c.Significance)
	}
	return nil
}
