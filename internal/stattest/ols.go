package stattest

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

var errSingular = errors.New("singular design matrix")

// olsFit is an ordinary least squares fit with classical standard errors.
type olsFit struct {
	beta []float64
	se   []float64
	rss  float64
	nobs int
}

// tvalue returns the t statistic of coefficient i.
func (f olsFit) tvalue(i int) float64 {
	return f.beta[i] / f.se[i]
}

// ols regresses y on the columns of x (row-major, nobs × k).
func ols(y []float64, x *mat.Dense) (olsFit, error) {
	nobs, k := x.Dims()
	if nobs <= k {
		return olsFit{}, errSingular
	}

	var xtx mat.Dense
	xtx.Mul(x.T(), x)

	var inv mat.Dense
	if err := inv.Inverse(&xtx); err != nil {
		return olsFit{}, errSingular
	}

	yv := mat.NewVecDense(nobs, y)
	var xty, beta mat.VecDense
	xty.MulVec(x.T(), yv)
	beta.MulVec(&inv, &xty)

	var fitted mat.VecDense
	fitted.MulVec(x, &beta)
	var rss float64
	for i := 0; i < nobs; i++ {
		r := y[i] - fitted.AtVec(i)
		rss += r * r
	}

	sigma2 := rss / float64(nobs-k)
	fit := olsFit{
		beta: make([]float64, k),
		se:   make([]float64, k),
		rss:  rss,
		nobs: nobs,
	}
	for i := 0; i < k; i++ {
		fit.beta[i] = beta.AtVec(i)
		fit.se[i] = math.Sqrt(sigma2 * inv.At(i, i))
	}
	return fit, nil
}
