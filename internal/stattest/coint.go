package stattest

import (
	"github.com/newthinker/pairscope/internal/core"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// collinearTolerance bounds the residual-to-level dispersion ratio below
// which y is treated as an exact linear function of x.
const collinearTolerance = 1e-10

// CointegrationResult is an Engle-Granger test outcome plus the fitted
// long-run relation y = Intercept + HedgeRatio·x.
type CointegrationResult struct {
	core.TestResult
	HedgeRatio float64 `json:"hedge_ratio"`
	Intercept  float64 `json:"intercept"`
}

// Cointegration runs the Engle-Granger two-step test of y against x. The
// null hypothesis is no cointegration.
func Cointegration(y, x []float64, opts Options) (CointegrationResult, error) {
	if len(y) != len(x) {
		return CointegrationResult{}, core.Errorf(core.ErrInvalidParameter,
			"series lengths differ: %d vs %d", len(y), len(x))
	}
	if len(y) < MinObservations {
		return CointegrationResult{}, core.Errorf(core.ErrInsufficientData,
			"cointegration test needs at least %d observations, got %d", MinObservations, len(y))
	}
	if isConstant(y) || isConstant(x) {
		return CointegrationResult{}, core.Errorf(core.ErrDegenerateSeries,
			"cointegration test undefined for a constant series")
	}

	design := mat.NewDense(len(x), 2, nil)
	for i, v := range x {
		design.Set(i, 0, 1)
		design.Set(i, 1, v)
	}
	fit, err := ols(y, design)
	if err != nil {
		return CointegrationResult{}, core.WrapError(core.ErrDegenerateSeries, err)
	}
	alpha, beta := fit.beta[0], fit.beta[1]

	resid := make([]float64, len(y))
	for i := range y {
		resid[i] = y[i] - alpha - beta*x[i]
	}
	if stat.StdDev(resid, nil) <= collinearTolerance*stat.StdDev(y, nil) {
		return CointegrationResult{}, core.Errorf(core.ErrDegenerateSeries,
			"series are exactly collinear, residual spread is constant")
	}

	// The residual has zero mean by construction, so no constant here; the
	// estimation of the relation is accounted for by the N=2 surface.
	df, lag, err := dickeyFuller(resid, false, opts)
	if err != nil {
		return CointegrationResult{}, err
	}

	statistic := df.tvalue(0)
	one, five, ten := mackinnonCrit(2, len(y)-1)
	return CointegrationResult{
		TestResult: core.TestResult{
			Statistic: statistic,
			PValue:    mackinnonP(statistic, 2),
			Lags:      lag,
			NObs:      df.nobs,
			CriticalValues: core.CriticalValues{
				OnePct:  one,
				FivePct: five,
				TenPct:  ten,
			},
		},
		HedgeRatio: beta,
		Intercept:  alpha,
	}, nil
}
