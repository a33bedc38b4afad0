package pipeline

import (
	"time"

	"github.com/newthinker/pairscope/internal/backtest"
	"github.com/newthinker/pairscope/internal/core"
	"github.com/newthinker/pairscope/internal/indicator"
	"github.com/newthinker/pairscope/internal/spread"
	"github.com/newthinker/pairscope/internal/stattest"
	"github.com/newthinker/pairscope/internal/strategy"
)

// Stable series names.
const (
	SeriesPrice1          = "price1"
	SeriesPrice2          = "price2"
	SeriesSpread          = "spread"
	SeriesRatio           = "ratio"
	SeriesLogRatio        = "log_ratio"
	SeriesMean            = "rolling_mean"
	SeriesStd             = "rolling_std"
	SeriesUpper           = "upper_band"
	SeriesLower           = "lower_band"
	SeriesZScore          = "zscore"
	SeriesStaticPosition  = "static_position"
	SeriesBandsPosition   = "bands_position"
	SeriesStaticReturn    = "static_return"
	SeriesBandsReturn     = "bands_return"
	SeriesStaticCumReturn = "static_cumulative"
	SeriesBandsCumReturn  = "bands_cumulative"
)

// Bundle is the complete result of one analysis.
type Bundle struct {
	Request Request
	Basis   spread.Basis
	Pair    core.AlignedPair
	Spread  spread.Set
	Bands   indicator.BandSet

	ADF           core.TestResult
	Cointegration stattest.CointegrationResult
	Cointegrated  bool
	Correlation   PairCorrelation

	StaticPositions strategy.PositionSeries
	BandsPositions  strategy.PositionSeries
	StaticReturns   backtest.Result
	BandsReturns    backtest.Result
}

// PairCorrelation is the Pearson correlation of the aligned prices and of
// their daily simple returns. Either is undefined when a column is constant.
type PairCorrelation struct {
	Prices  core.Value `json:"prices"`
	Returns core.Value `json:"returns"`
}

func correlate(pair core.AlignedPair) PairCorrelation {
	var c PairCorrelation
	if r, err := stattest.Correlation(pair.Price1, pair.Price2); err == nil {
		c.Prices = core.Some(r)
	}
	r1, r2 := stattest.SimpleReturns(pair.Price1), stattest.SimpleReturns(pair.Price2)
	if r, err := stattest.Correlation(r1, r2); err == nil {
		c.Returns = core.Some(r)
	}
	return c
}

// BasisSeries returns the series the bands and signals were built on.
func (b *Bundle) BasisSeries() core.DerivedSeries {
	return b.Spread.Select(b.Basis)
}

// Series returns every derived series keyed by its stable name.
func (b *Bundle) Series() map[string]core.DerivedSeries {
	d := b.Pair.Dates
	out := map[string]core.DerivedSeries{
		SeriesPrice1:          named(SeriesPrice1, core.NewDerivedSeries("", d, b.Pair.Price1)),
		SeriesPrice2:          named(SeriesPrice2, core.NewDerivedSeries("", d, b.Pair.Price2)),
		SeriesSpread:          named(SeriesSpread, b.Spread.Spread),
		SeriesRatio:           named(SeriesRatio, b.Spread.Ratio),
		SeriesLogRatio:        named(SeriesLogRatio, b.Spread.LogRatio),
		SeriesMean:            named(SeriesMean, b.Bands.Mean),
		SeriesStd:             named(SeriesStd, b.Bands.Std),
		SeriesUpper:           named(SeriesUpper, b.Bands.Upper),
		SeriesLower:           named(SeriesLower, b.Bands.Lower),
		SeriesZScore:          named(SeriesZScore, b.Bands.ZScore),
		SeriesStaticPosition:  exposure(SeriesStaticPosition, b.StaticPositions),
		SeriesBandsPosition:   exposure(SeriesBandsPosition, b.BandsPositions),
		SeriesStaticReturn:    values(SeriesStaticReturn, d, b.StaticReturns.Returns),
		SeriesBandsReturn:     values(SeriesBandsReturn, d, b.BandsReturns.Returns),
		SeriesStaticCumReturn: values(SeriesStaticCumReturn, d, b.StaticReturns.Cumulative),
		SeriesBandsCumReturn:  values(SeriesBandsCumReturn, d, b.BandsReturns.Cumulative),
	}
	return out
}

// Charts maps each chart key to the series it plots.
func (b *Bundle) Charts() map[string][]string {
	return map[string][]string{
		"prices":         {SeriesPrice1, SeriesPrice2},
		"static":         {SeriesRatio, SeriesStaticPosition},
		"bands":          {b.basisName(), SeriesMean, SeriesUpper, SeriesLower},
		"static_returns": {SeriesStaticCumReturn},
		"bands_returns":  {SeriesBandsCumReturn},
		"prices_signals": {SeriesPrice1, SeriesPrice2, SeriesStaticPosition, SeriesBandsPosition},
		"spread":         {SeriesSpread, SeriesRatio},
		"zscore":         {SeriesZScore},
	}
}

func (b *Bundle) basisName() string {
	switch b.Basis {
	case spread.BasisRatio:
		return SeriesRatio
	case spread.BasisLogRatio:
		return SeriesLogRatio
	default:
		return SeriesSpread
	}
}

func named(name string, s core.DerivedSeries) core.DerivedSeries {
	s.Name = name
	return s
}

func values(name string, dates []time.Time, v []core.Value) core.DerivedSeries {
	return core.DerivedSeries{Name: name, Dates: dates, Values: v}
}

// exposure encodes positions as +1/0/-1, undefined before the first signal date.
func exposure(name string, p strategy.PositionSeries) core.DerivedSeries {
	v := make([]core.Value, len(p.Positions))
	if p.First >= 0 {
		for i := p.First; i < len(v); i++ {
			v[i] = core.Some(p.Positions[i].Exposure())
		}
	}
	return core.DerivedSeries{Name: name, Dates: p.Dates, Values: v}
}
