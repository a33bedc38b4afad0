// Package correlation builds pairwise correlation matrices over a ticker
// universe and ranks the most correlated pairs.
package correlation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/newthinker/pairscope/internal/core"
	"github.com/newthinker/pairscope/internal/series"
	"github.com/newthinker/pairscope/internal/stattest"
)

// MaxTickers bounds the universe of one request.
const MaxTickers = 50

// Basis selects what is correlated.
type Basis string

const (
	BasisPrices  Basis = "prices"
	BasisReturns Basis = "returns"
)

// ParseBasis converts a request string to a Basis. Empty means prices.
func ParseBasis(s string) (Basis, error) {
	switch Basis(strings.ToLower(s)) {
	case "", BasisPrices:
		return BasisPrices, nil
	case BasisReturns:
		return BasisReturns, nil
	default:
		return "", core.Errorf(core.ErrInvalidParameter, "unknown correlation basis %q", s)
	}
}

// Request asks for the correlation matrix of a set of tickers.
type Request struct {
	Tickers []string  `json:"tickers"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Basis   Basis     `json:"basis"`
}

// Validate checks the ticker list and the date range.
func (r Request) Validate() error {
	if len(r.Tickers) < 2 {
		return core.Errorf(core.ErrInvalidParameter, "need at least 2 tickers, got %d", len(r.Tickers))
	}
	if len(r.Tickers) > MaxTickers {
		return core.Errorf(core.ErrInvalidParameter, "at most %d tickers, got %d", MaxTickers, len(r.Tickers))
	}
	seen := make(map[string]bool, len(r.Tickers))
	for _, t := range r.Tickers {
		key := strings.ToUpper(strings.TrimSpace(t))
		if key == "" {
			return core.Errorf(core.ErrInvalidParameter, "empty ticker")
		}
		if seen[key] {
			return core.Errorf(core.ErrInvalidParameter, "duplicate ticker %s", key)
		}
		seen[key] = true
	}
	if !r.Start.IsZero() && !r.End.IsZero() && !r.Start.Before(r.End) {
		return core.Errorf(core.ErrInvalidParameter, "start date %s must be before end date %s",
			r.Start.Format(time.DateOnly), r.End.Format(time.DateOnly))
	}
	return nil
}

// Options configures Build.
type Options struct {
	Start      time.Time
	End        time.Time
	MinSamples int
	Basis      Basis
}

// Matrix is a symmetric correlation matrix. Cells are undefined when a pair
// shares too few dates or a column is constant.
type Matrix struct {
	Symbols []string       `json:"symbols"`
	Basis   Basis          `json:"basis"`
	Values  [][]core.Value `json:"values"`
}

// Pair is one off-diagonal cell.
type Pair struct {
	Symbol1     string  `json:"symbol1"`
	Symbol2     string  `json:"symbol2"`
	Correlation float64 `json:"correlation"`
}

// Build correlates every pair of series on the dates both have a price for.
func Build(all []core.PriceSeries, opts Options) (*Matrix, error) {
	if len(all) < 2 {
		return nil, core.Errorf(core.ErrInvalidParameter, "need at least 2 series, got %d", len(all))
	}
	if opts.Basis == "" {
		opts.Basis = BasisPrices
	}

	n := len(all)
	m := &Matrix{
		Symbols: make([]string, n),
		Basis:   opts.Basis,
		Values:  make([][]core.Value, n),
	}
	for i, s := range all {
		m.Symbols[i] = s.Symbol
		m.Values[i] = make([]core.Value, n)
		m.Values[i][i] = core.Some(1)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r, err := correlatePair(all[i], all[j], opts)
			if err != nil {
				return nil, err
			}
			m.Values[i][j], m.Values[j][i] = r, r
		}
	}
	return m, nil
}

func correlatePair(s1, s2 core.PriceSeries, opts Options) (core.Value, error) {
	pair, err := series.Align(s1, s2, series.Options{
		Start:      opts.Start,
		End:        opts.End,
		MinSamples: opts.MinSamples,
		Fill:       series.FillDrop,
	})
	if errors.Is(err, core.ErrInsufficientData) {
		return core.Value{}, nil
	}
	if err != nil {
		return core.Value{}, err
	}

	x, y := pair.Price1, pair.Price2
	if opts.Basis == BasisReturns {
		x, y = stattest.SimpleReturns(x), stattest.SimpleReturns(y)
	}
	r, err := stattest.Correlation(x, y)
	if err != nil {
		return core.Value{}, nil
	}
	return core.Some(r), nil
}

// Pairs returns every defined off-diagonal cell, most correlated first.
func (m *Matrix) Pairs() []Pair {
	var out []Pair
	for i := range m.Symbols {
		for j := i + 1; j < len(m.Symbols); j++ {
			if v := m.Values[i][j]; v.Valid {
				out = append(out, Pair{Symbol1: m.Symbols[i], Symbol2: m.Symbols[j], Correlation: v.Float})
			}
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Correlation > out[b].Correlation
	})
	return out
}

// MostCorrelated returns the pair with the highest correlation.
func (m *Matrix) MostCorrelated() (Pair, bool) {
	pairs := m.Pairs()
	if len(pairs) == 0 {
		return Pair{}, false
	}
	return pairs[0], true
}

// At returns the correlation of two symbols.
func (m *Matrix) At(symbol1, symbol2 string) (core.Value, error) {
	i, j := m.index(symbol1), m.index(symbol2)
	if i < 0 || j < 0 {
		return core.Value{}, fmt.Errorf("%s/%s not in matrix", symbol1, symbol2)
	}
	return m.Values[i][j], nil
}

func (m *Matrix) index(symbol string) int {
	for i, s := range m.Symbols {
		if strings.EqualFold(s, symbol) {
			return i
		}
	}
	return -1
}
