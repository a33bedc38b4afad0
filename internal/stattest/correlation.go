package stattest

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/newthinker/pairscope/internal/core"
)

// Correlation returns the Pearson correlation of x and y.
func Correlation(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, core.Errorf(core.ErrInvalidParameter, "correlation of %d and %d observations", len(x), len(y))
	}
	if len(x) < 3 {
		return 0, core.Errorf(core.ErrInsufficientData, "correlation needs at least 3 observations, got %d", len(x))
	}
	if isConstant(x) || isConstant(y) {
		return 0, core.Errorf(core.ErrDegenerateSeries, "correlation of a constant series")
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0, core.Errorf(core.ErrDegenerateSeries, "correlation is undefined")
	}
	// Rounding can push |r| a hair past one.
	return math.Max(-1, math.Min(1, r)), nil
}

// SimpleReturns returns p[i]/p[i-1] - 1 for i >= 1.
func SimpleReturns(p []float64) []float64 {
	if len(p) < 2 {
		return nil
	}
	out := make([]float64, len(p)-1)
	for i := 1; i < len(p); i++ {
		out[i-1] = p[i]/p[i-1] - 1
	}
	return out
}
