package stattest

import "gonum.org/v1/gonum/stat/distuv"

// MacKinnon (1994) response-surface coefficients for the constant-only
// case, indexed by the number of variables in the regression minus one.
var (
	tauMaxC  = []float64{2.74, 0.92}
	tauMinC  = []float64{-18.83, -18.86}
	tauStarC = []float64{-1.61, -2.62}

	tauSmallPC = [][]float64{
		{2.1659, 1.4412, 0.038269},
		{2.92, 1.5012, 0.039796},
	}
	tauLargePC = [][]float64{
		{1.7339, 0.93202, -0.12745, -0.010368},
		{2.1945, 0.64695, -0.29198, -0.042377},
	}
)

// MacKinnon (2010) finite-sample critical value coefficients for the
// constant-only case: b0 + b1/T + b2/T² + b3/T³ at 1%, 5% and 10%.
var critC = [][3][4]float64{
	{
		{-3.43035, -6.5393, -16.786, -79.433},
		{-2.86154, -2.8903, -4.234, -40.040},
		{-2.56677, -1.5384, -2.809, 0},
	},
	{
		{-3.89644, -10.9519, -33.527, 0},
		{-3.33613, -6.1101, -6.823, 0},
		{-3.04445, -4.2412, -2.720, 0},
	},
}

// mackinnonP approximates the p-value of a Dickey-Fuller type statistic for
// a regression with n variables (1 for ADF, 2 for a bivariate cointegration
// test).
func mackinnonP(stat float64, n int) float64 {
	i := n - 1
	if stat > tauMaxC[i] {
		return 1
	}
	if stat < tauMinC[i] {
		return 0
	}

	coef := tauLargePC[i]
	if stat <= tauStarC[i] {
		coef = tauSmallPC[i]
	}
	return distuv.UnitNormal.CDF(polyval(coef, stat))
}

// mackinnonCrit returns the critical values for a sample of nobs.
func mackinnonCrit(n, nobs int) (one, five, ten float64) {
	t := float64(nobs)
	eval := func(c [4]float64) float64 {
		return c[0] + c[1]/t + c[2]/(t*t) + c[3]/(t*t*t)
	}
	table := critC[n-1]
	return eval(table[0]), eval(table[1]), eval(table[2])
}

// polyval evaluates c0 + c1·x + c2·x² + ...
func polyval(coef []float64, x float64) float64 {
	var acc float64
	for i := len(coef) - 1; i >= 0; i-- {
		acc = acc*x + coef[i]
	}
	return acc
}
