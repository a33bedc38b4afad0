// Package spread derives relationship series from an aligned price pair.
package spread

import (
	"fmt"
	"math"

	"github.com/newthinker/pairscope/internal/core"
)

// Basis selects the series the rolling bands and signals are built on.
type Basis string

const (
	BasisSpread   Basis = "spread"
	BasisRatio    Basis = "ratio"
	BasisLogRatio Basis = "log_ratio"
)

// ParseBasis converts a config string to a Basis.
func ParseBasis(s string) (Basis, error) {
	switch Basis(s) {
	case "", BasisSpread:
		return BasisSpread, nil
	case BasisRatio:
		return BasisRatio, nil
	case BasisLogRatio:
		return BasisLogRatio, nil
	default:
		return "", fmt.Errorf("unknown band basis %q", s)
	}
}

// Set holds the derived relationship series of a pair.
type Set struct {
	Spread   core.DerivedSeries
	Ratio    core.DerivedSeries
	LogRatio core.DerivedSeries
	Scale    float64
}

// Select returns the series for a basis.
func (s Set) Select(b Basis) core.DerivedSeries {
	switch b {
	case BasisRatio:
		return s.Ratio
	case BasisLogRatio:
		return s.LogRatio
	default:
		return s.Spread
	}
}

// Build computes spread = price1 − scale·price2, ratio = price1/price2 and
// log ratio = ln(price1/price2).
func Build(pair core.AlignedPair, scale float64) (Set, error) {
	if math.IsNaN(scale) || math.IsInf(scale, 0) {
		return Set{}, core.Errorf(core.ErrInvalidParameter, "spread scale must be finite, got %v", scale)
	}

	n := pair.Len()
	spread := make([]float64, n)
	ratio := make([]float64, n)
	logRatio := make([]float64, n)

	for i := 0; i < n; i++ {
		p1, p2 := pair.Price1[i], pair.Price2[i]
		if p2 <= 0 {
			return Set{}, core.Errorf(core.ErrDegenerateSeries,
				"%s price %v on %s is not positive", pair.Symbol2, p2, pair.Dates[i].Format("2006-01-02"))
		}
		if p1 <= 0 {
			return Set{}, core.Errorf(core.ErrDegenerateSeries,
				"%s price %v on %s is not positive", pair.Symbol1, p1, pair.Dates[i].Format("2006-01-02"))
		}
		spread[i] = p1 - scale*p2
		ratio[i] = p1 / p2
		logRatio[i] = math.Log(ratio[i])
	}

	return Set{
		Spread:   core.NewDerivedSeries("spread", pair.Dates, spread),
		Ratio:    core.NewDerivedSeries("ratio", pair.Dates, ratio),
		LogRatio: core.NewDerivedSeries("log_ratio", pair.Dates, logRatio),
		Scale:    scale,
	}, nil
}
