// Package stattest implements the unit-root and cointegration tests used to
// qualify a pair.
package stattest

import (
	"fmt"
	"math"

	"github.com/newthinker/pairscope/internal/core"
	"gonum.org/v1/gonum/mat"
)

// MinObservations is the shortest series either test accepts.
const MinObservations = 10

// LagRule selects the number of lagged differences in the ADF regression.
type LagRule string

const (
	LagAIC   LagRule = "aic"
	LagBIC   LagRule = "bic"
	LagFixed LagRule = "fixed"
)

// ParseLagRule converts a config string to a LagRule.
func ParseLagRule(s string) (LagRule, error) {
	switch LagRule(s) {
	case "", LagAIC:
		return LagAIC, nil
	case LagBIC:
		return LagBIC, nil
	case LagFixed:
		return LagFixed, nil
	default:
		return "", fmt.Errorf("unknown lag rule %q", s)
	}
}

// Options configures lag selection.
//
// With LagAIC or LagBIC, lags 0..MaxLag are compared on a common sample and
// the winner is refitted on all available observations; MaxLag <= 0 selects
// ceil(12·(n/100)^¼). With LagFixed exactly MaxLag lags are used.
type Options struct {
	Rule   LagRule
	MaxLag int
}

// ADF runs the augmented Dickey-Fuller test with a constant on values.
// The null hypothesis is a unit root.
func ADF(values []float64, opts Options) (core.TestResult, error) {
	if len(values) < MinObservations {
		return core.TestResult{}, core.Errorf(core.ErrInsufficientData,
			"ADF needs at least %d observations, got %d", MinObservations, len(values))
	}
	if isConstant(values) {
		return core.TestResult{}, core.Errorf(core.ErrDegenerateSeries,
			"unit-root test undefined for a constant series")
	}

	fit, lag, err := dickeyFuller(values, true, opts)
	if err != nil {
		return core.TestResult{}, err
	}

	stat := fit.tvalue(0)
	one, five, ten := mackinnonCrit(1, fit.nobs)
	return core.TestResult{
		Statistic: stat,
		PValue:    mackinnonP(stat, 1),
		Lags:      lag,
		NObs:      fit.nobs,
		CriticalValues: core.CriticalValues{
			OnePct:  one,
			FivePct: five,
			TenPct:  ten,
		},
	}, nil
}

// dickeyFuller fits Δy_t = [c +] γ·y_{t-1} + Σ δ_i·Δy_{t-i} and returns the
// fit with γ as coefficient 0.
func dickeyFuller(x []float64, constant bool, opts Options) (olsFit, int, error) {
	n := len(x)
	d := make([]float64, n-1)
	for i := 1; i < n; i++ {
		d[i-1] = x[i] - x[i-1]
	}

	ntrend := 0
	if constant {
		ntrend = 1
	}
	maxLag := maxLagFor(n, ntrend, opts)

	lag := maxLag
	if opts.Rule != LagFixed {
		nobs := n - 1 - maxLag
		best := math.Inf(1)
		for p := 0; p <= maxLag; p++ {
			fit, err := dfRegression(x, d, p, nobs, constant)
			if err != nil {
				continue
			}
			ic := infoCriterion(opts.Rule, fit.rss, nobs, p+1+ntrend)
			if ic < best {
				best, lag = ic, p
			}
		}
		if math.IsInf(best, 1) {
			return olsFit{}, 0, core.Errorf(core.ErrDegenerateSeries, "no lag order produced a regular regression")
		}
	}

	fit, err := dfRegression(x, d, lag, n-1-lag, constant)
	if err != nil {
		return olsFit{}, 0, core.WrapError(core.ErrDegenerateSeries, err)
	}
	if !(fit.se[0] > 0) || math.IsInf(fit.se[0], 0) {
		return olsFit{}, 0, core.Errorf(core.ErrDegenerateSeries, "zero residual variance in unit-root regression")
	}
	return fit, lag, nil
}

func maxLagFor(n, ntrend int, opts Options) int {
	limit := n/2 - ntrend - 1
	if limit < 0 {
		limit = 0
	}

	maxLag := opts.MaxLag
	if opts.Rule != LagFixed && maxLag <= 0 {
		maxLag = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}
	if maxLag < 0 {
		maxLag = 0
	}
	if maxLag > limit {
		maxLag = limit
	}
	return maxLag
}

// dfRegression builds the last nobs rows of the Dickey-Fuller design with p
// lagged differences and fits it.
func dfRegression(x, d []float64, p, nobs int, constant bool) (olsFit, error) {
	k := 1 + p
	if constant {
		k++
	}

	first := len(d) - nobs
	y := make([]float64, nobs)
	design := mat.NewDense(nobs, k, nil)
	for r := 0; r < nobs; r++ {
		t := first + r
		y[r] = d[t]
		design.Set(r, 0, x[t])
		for j := 1; j <= p; j++ {
			design.Set(r, j, d[t-j])
		}
		if constant {
			design.Set(r, k-1, 1)
		}
	}
	return ols(y, design)
}

func infoCriterion(rule LagRule, rss float64, nobs, k int) float64 {
	n := float64(nobs)
	ll := n * math.Log(rss/n)
	if rule == LagBIC {
		return ll + float64(k)*math.Log(n)
	}
	return ll + 2*float64(k)
}

func isConstant(x []float64) bool {
	for _, v := range x[1:] {
		if v != x[0] {
			return false
		}
	}
	return true
}
