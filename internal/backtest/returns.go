// Package backtest turns spread positions into strategy returns, trades and
// summary statistics.
package backtest

import (
	"math"

	"github.com/newthinker/pairscope/internal/core"
	"github.com/newthinker/pairscope/internal/strategy"
)

// Options configures Accumulate.
type Options struct {
	Accounting  Accounting
	Compounding Compounding
	// Scale is the spread scale used for AccountSpread notional.
	Scale float64
}

// Accumulate computes the per-bar and cumulative returns of holding pos over
// the pair. The position held at the close of bar t-1 earns the return of bar
// t. Everything before pos.First is undefined.
func Accumulate(pos strategy.PositionSeries, pair core.AlignedPair, spread core.DerivedSeries, opts Options) (Result, error) {
	n := pair.Len()
	if len(pos.Positions) != n {
		return Result{}, core.Errorf(core.ErrInvalidParameter,
			"positions cover %d dates, pair has %d", len(pos.Positions), n)
	}
	if opts.Accounting == AccountSpread && spread.Len() != n {
		return Result{}, core.Errorf(core.ErrInvalidParameter,
			"spread covers %d dates, pair has %d", spread.Len(), n)
	}
	if opts.Compounding == "" {
		opts.Compounding = CompoundSimple
	}

	res := Result{
		Strategy:    pos.Name,
		Compounding: opts.Compounding,
		Dates:       pair.Dates,
		Positions:   pos.Positions,
		Returns:     make([]core.Value, n),
		Cumulative:  make([]core.Value, n),
	}
	if pos.First < 0 || pos.First >= n {
		res.Stats = CalculateStats(nil, nil)
		return res, nil
	}

	acc := 1.0
	if opts.Compounding == CompoundLog {
		acc = 0
	}
	res.Cumulative[pos.First] = core.Some(acc)

	var held []float64
	var inMarket int
	for t := pos.First + 1; t < n; t++ {
		exposure := pos.Positions[t-1].Exposure()
		r := exposure * underlying(pair, spread, t, opts)
		res.Returns[t] = core.Some(r)
		held = append(held, r)
		if exposure != 0 {
			inMarket++
		}

		switch opts.Compounding {
		case CompoundLog:
			if 1+r <= 0 {
				acc = math.Inf(-1)
			} else if !math.IsInf(acc, -1) {
				acc += math.Log1p(r)
			}
		default:
			acc *= 1 + r
		}
		res.Cumulative[t] = core.Some(acc)
	}

	res.Trades = extractTrades(res, pos.First)
	res.Stats = CalculateStats(res.Trades, held)
	res.Stats.BarsInMarket = inMarket
	return res, nil
}

// underlying is the unpositioned spread return of bar t.
func underlying(pair core.AlignedPair, spread core.DerivedSeries, t int, opts Options) float64 {
	p1, p2 := pair.Price1, pair.Price2
	if opts.Accounting == AccountSpread {
		notional := p1[t-1] + math.Abs(opts.Scale)*p2[t-1]
		ds := spread.Values[t].Float - spread.Values[t-1].Float
		return ds / notional
	}
	return p1[t]/p1[t-1] - p2[t]/p2[t-1]
}

// extractTrades walks the positions and compounds each holding period. A
// trade entered at bar e and exited at bar x earns the returns of bars e+1..x.
func extractTrades(res Result, first int) []Trade {
	var trades []Trade
	var cur *Trade
	n := len(res.Positions)

	closeAt := func(x int) {
		cur.ExitIndex = x
		cur.ExitDate = res.Dates[x]
		cur.Bars = x - cur.EntryIndex
		growth := 1.0
		for t := cur.EntryIndex + 1; t <= x; t++ {
			growth *= 1 + res.Returns[t].Float
		}
		cur.Return = growth - 1
		trades = append(trades, *cur)
		cur = nil
	}

	for i := first; i < n; i++ {
		p := res.Positions[i]
		if cur != nil && p != cur.Direction {
			closeAt(i)
		}
		if cur == nil && p != core.Flat {
			cur = &Trade{Direction: p, EntryIndex: i, EntryDate: res.Dates[i]}
		}
	}
	if cur != nil {
		cur.Open = true
		closeAt(n - 1)
	}
	return trades
}
