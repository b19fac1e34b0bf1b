package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/gasweather/timeseries"
)

// ACF returns the sample autocorrelations of the finite values of series for
// lags 0..maxLag. maxLag is capped at n-1. It returns nil for a series with
// no finite values or zero variance.
func ACF(series *timeseries.Series, maxLag int) []float64 {
	if series == nil {
		return nil
	}
	values := series.DropNaN().Values
	n := len(values)
	maxLag = min(maxLag, n-1)
	if maxLag < 0 {
		return nil
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)

	denom := 0.0
	for _, v := range values {
		denom += (v - mean) * (v - mean)
	}
	if denom == 0 {
		return nil
	}

	acf := make([]float64, maxLag+1)
	for k := range acf {
		sum := 0.0
		for i := k; i < n; i++ {
			sum += (values[i] - mean) * (values[i-k] - mean)
		}
		acf[k] = sum / denom
	}
	return acf
}

// LjungBoxResult is the outcome of a Ljung-Box portmanteau test.
type LjungBoxResult struct {
	Statistic float64
	PValue    float64
	Lags      int
	DOF       int
}

// LjungBox tests for autocorrelation up to lag h in the finite values of
// series. The null hypothesis is that the values are independent. h <= 0
// selects min(10, n/5).
func LjungBox(series *timeseries.Series, h int) (*LjungBoxResult, error) {
	values, err := testValues(series)
	if err != nil {
		return nil, fmt.Errorf("ljung-box: %w", err)
	}
	n := len(values)
	if h <= 0 {
		h = max(1, min(10, n/5))
	}
	h = min(h, n-1)

	acf := ACF(series, h)
	if acf == nil {
		return nil, fmt.Errorf("ljung-box: %w", ErrConstantSeries)
	}

	q := 0.0
	for k := 1; k <= h; k++ {
		q += acf[k] * acf[k] / float64(n-k)
	}
	q *= float64(n) * float64(n+2)

	chi := distuv.ChiSquared{K: float64(h)}
	return &LjungBoxResult{
		Statistic: q,
		PValue:    chi.Survival(q),
		Lags:      h,
		DOF:       h,
	}, nil
}

// Diagnostics summarizes a reduced series: how much autocorrelation is left
// after differencing.
type Diagnostics struct {
	NObs     int
	Mean     float64
	Std      float64
	ACF1     float64 // Lag-1 autocorrelation, NaN when undefined
	LjungBox *LjungBoxResult
}

// Diagnose computes Diagnostics for series. A constant or too short series
// yields NaN autocorrelation and no Ljung-Box result rather than an error.
func Diagnose(series *timeseries.Series) *Diagnostics {
	d := &Diagnostics{
		NObs: series.CountValid(),
		Mean: series.Mean(),
		Std:  series.Std(),
		ACF1: math.NaN(),
	}
	if acf := ACF(series, 1); len(acf) > 1 {
		d.ACF1 = acf[1]
	}
	if lb, err := LjungBox(series, 0); err == nil {
		d.LjungBox = lb
	}
	return d
}
