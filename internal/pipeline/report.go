package pipeline

import (
	"sort"
	"time"

	"github.com/newthinker/pairscope/internal/backtest"
	"github.com/newthinker/pairscope/internal/core"
	"github.com/newthinker/pairscope/internal/stattest"
)

// Report is the serialisable view of a Bundle.
type Report struct {
	Ticker1       string                       `json:"ticker1"`
	Ticker2       string                       `json:"ticker2"`
	Start         string                       `json:"start"`
	End           string                       `json:"end"`
	Window        int                          `json:"window"`
	StdMultiplier float64                      `json:"std"`
	Basis         string                       `json:"basis"`
	Observations  int                          `json:"observations"`
	ADF           core.TestResult              `json:"adf"`
	Cointegration stattest.CointegrationResult `json:"cointegration"`
	Cointegrated  bool                         `json:"cointegrated"`
	Correlation   PairCorrelation              `json:"correlation"`
	Strategies    map[string]StrategyReport    `json:"strategies"`
	Dates         []string                     `json:"dates"`
	Series        map[string][]core.Value      `json:"series"`
	Charts        map[string][]string          `json:"charts"`
}

// StrategyReport summarises one strategy variant.
type StrategyReport struct {
	Final  core.Value       `json:"final"`
	Trades []backtest.Trade `json:"trades"`
	Stats  backtest.Stats   `json:"stats"`
}

// Report builds the serialisable view. Series are omitted when withSeries is false.
func (b *Bundle) Report(withSeries bool) Report {
	r := Report{
		Ticker1:       b.Pair.Symbol1,
		Ticker2:       b.Pair.Symbol2,
		Window:        b.Request.Window,
		StdMultiplier: b.Request.StdMultiplier,
		Basis:         string(b.Basis),
		Observations:  b.Pair.Len(),
		ADF:           b.ADF,
		Cointegration: b.Cointegration,
		Cointegrated:  b.Cointegrated,
		Correlation:   b.Correlation,
		Strategies: map[string]StrategyReport{
			b.StaticReturns.Strategy: strategyReport(b.StaticReturns),
			b.BandsReturns.Strategy:  strategyReport(b.BandsReturns),
		},
		Charts: b.Charts(),
	}
	if n := b.Pair.Len(); n > 0 {
		r.Start = b.Pair.Dates[0].Format(time.DateOnly)
		r.End = b.Pair.Dates[n-1].Format(time.DateOnly)
	}
	if !withSeries {
		return r
	}

	r.Dates = make([]string, b.Pair.Len())
	for i, d := range b.Pair.Dates {
		r.Dates[i] = d.Format(time.DateOnly)
	}
	r.Series = make(map[string][]core.Value)
	for name, s := range b.Series() {
		r.Series[name] = s.Values
	}
	return r
}

// SeriesNames returns the stable series names in sorted order.
func (r Report) SeriesNames() []string {
	names := make([]string, 0, len(r.Series))
	for name := range r.Series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func strategyReport(res backtest.Result) StrategyReport {
	sr := StrategyReport{Trades: res.Trades, Stats: res.Stats}
	if f, ok := res.Final(); ok {
		sr.Final = core.Some(f)
	}
	if sr.Trades == nil {
		sr.Trades = []backtest.Trade{}
	}
	return sr
}
