package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// maxCondition bounds the condition number of the column-scaled design.
// Above it the design is treated as singular.
const maxCondition = 1e10

// olsFit holds an ordinary least squares fit.
type olsFit struct {
	Coeffs    []float64
	StdErrors []float64
	SSR       float64
	NObs      int
	NParams   int
}

// logLik returns the Gaussian log-likelihood of the fit.
func (f *olsFit) logLik() float64 {
	n := float64(f.NObs)
	return -n/2*math.Log(2*math.Pi) - n/2*math.Log(f.SSR/n) - n/2
}

// olsRegression performs ordinary least squares regression of y on the rows
// of x by a QR factorization of the design. Columns are scaled to unit
// maximum first so the condition check reflects collinearity rather than
// units; coefficients and standard errors are reported on the original scale.
func olsRegression(x [][]float64, y []float64) (*olsFit, error) {
	n := len(y)
	if n == 0 || len(x) != n {
		return nil, fmt.Errorf("ols: %d rows for %d targets: %w", len(x), n, ErrInsufficientData)
	}
	k := len(x[0])
	if n <= k {
		return nil, fmt.Errorf("ols: %d observations for %d regressors: %w", n, k, ErrInsufficientData)
	}

	scale := make([]float64, k)
	for _, row := range x {
		for j, v := range row {
			scale[j] = math.Max(scale[j], math.Abs(v))
		}
	}
	for _, s := range scale {
		if s == 0 || math.IsInf(s, 0) || math.IsNaN(s) {
			return nil, errSingular
		}
	}

	design := mat.NewDense(n, k, nil)
	for i, row := range x {
		for j, v := range row {
			design.Set(i, j, v/scale[j])
		}
	}
	target := mat.NewVecDense(n, append([]float64(nil), y...))

	var qr mat.QR
	qr.Factorize(design)
	if cond := qr.Cond(); !(cond <= maxCondition) {
		return nil, errSingular
	}

	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, target); err != nil {
		return nil, fmt.Errorf("%w: %v", errSingular, err)
	}

	// (X'X)^-1 = R^-1 R^-T, so its diagonal is the squared row norms of R^-1.
	var r mat.Dense
	qr.RTo(&r)
	upper := mat.NewTriDense(k, mat.Upper, nil)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			upper.SetTri(i, j, r.At(i, j))
		}
	}
	var rinv mat.TriDense
	if err := rinv.InverseTri(upper); err != nil {
		return nil, fmt.Errorf("%w: %v", errSingular, err)
	}

	var fitted mat.VecDense
	fitted.MulVec(design, &beta)
	ssr := 0.0
	for i := 0; i < n; i++ {
		res := y[i] - fitted.AtVec(i)
		ssr += res * res
	}

	s2 := ssr / float64(n-k)
	fit := &olsFit{
		Coeffs:    make([]float64, k),
		StdErrors: make([]float64, k),
		SSR:       ssr,
		NObs:      n,
		NParams:   k,
	}
	for j := 0; j < k; j++ {
		diag := 0.0
		for c := j; c < k; c++ {
			v := rinv.At(j, c)
			diag += v * v
		}
		fit.Coeffs[j] = beta.AtVec(j) / scale[j]
		fit.StdErrors[j] = math.Sqrt(s2*diag) / scale[j]
	}
	return fit, nil
}
