package backtest

import (
	"fmt"
	"time"

	"github.com/newthinker/pairscope/internal/core"
)

// Accounting selects how a bar's spread return is measured.
type Accounting string

const (
	// AccountLegs is long ticker1 / short ticker2 in equal notional.
	AccountLegs Accounting = "legs"
	// AccountSpread is long the spread value on its gross notional.
	AccountSpread Accounting = "spread"
)

// Compounding selects how per-bar returns accumulate.
type Compounding string

const (
	// CompoundSimple multiplies (1+r) starting from 1.0.
	CompoundSimple Compounding = "simple"
	// CompoundLog sums ln(1+r) starting from 0.0.
	CompoundLog Compounding = "log"
)

// ParseAccounting converts a config string to an Accounting.
func ParseAccounting(s string) (Accounting, error) {
	switch Accounting(s) {
	case "", AccountLegs:
		return AccountLegs, nil
	case AccountSpread:
		return AccountSpread, nil
	default:
		return "", fmt.Errorf("unknown accounting %q", s)
	}
}

// ParseCompounding converts a config string to a Compounding.
func ParseCompounding(s string) (Compounding, error) {
	switch Compounding(s) {
	case "", CompoundSimple:
		return CompoundSimple, nil
	case CompoundLog:
		return CompoundLog, nil
	default:
		return "", fmt.Errorf("unknown compounding %q", s)
	}
}

// Result holds the return accounting of one strategy variant
type Result struct {
	Strategy    string
	Compounding Compounding
	Dates       []time.Time
	Positions   []core.Position
	Returns     []core.Value // per-bar strategy return
	Cumulative  []core.Value
	Trades      []Trade
	Stats       Stats
}

// Final returns the last defined cumulative value.
func (r Result) Final() (float64, bool) {
	for i := len(r.Cumulative) - 1; i >= 0; i-- {
		if r.Cumulative[i].Valid {
			return r.Cumulative[i].Float, true
		}
	}
	return 0, false
}

// Trade is one holding period from entry to exit
type Trade struct {
	Direction  core.Position `json:"direction"`
	EntryIndex int           `json:"entry_index"`
	ExitIndex  int           `json:"exit_index"` // last bar if still open
	EntryDate  time.Time     `json:"entry_date"`
	ExitDate   time.Time     `json:"exit_date"`
	Bars       int           `json:"bars"`
	Return     float64       `json:"return"` // compounded over held bars
	Open       bool          `json:"open"`
}

// Stats holds performance statistics
type Stats struct {
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`     // Percentage of profitable closed trades
	TotalReturn   float64 `json:"total_return"` // Net return percentage
	MaxDrawdown   float64 `json:"max_drawdown"` // Largest peak-to-trough decline, percent
	SharpeRatio   float64 `json:"sharpe_ratio"` // Risk-adjusted return (annualized)
	BarsInMarket  int     `json:"bars_in_market"`
}

// IsWin returns true if the trade was profitable
func (t Trade) IsWin() bool {
	return t.Return > 0
}

// IsClosed returns true if the trade has an exit
func (t Trade) IsClosed() bool {
	return !t.Open
}
