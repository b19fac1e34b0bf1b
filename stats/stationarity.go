package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/gasweather/timeseries"
)

// MinObservations is the smallest number of finite values a test accepts.
const MinObservations = 10

// Regression terms included in the test equations.
const (
	RegressionNone          = "n"
	RegressionConstant      = "c"
	RegressionConstantTrend = "ct"
)

// Lag selection modes for ADF.
const (
	AutoLagAIC  = "aic"
	AutoLagBIC  = "bic"
	AutoLagNone = "none"
)

// ADFOptions configures the Augmented Dickey-Fuller test.
type ADFOptions struct {
	Regression string // "n", "c" (default) or "ct"
	MaxLag     int    // <= 0 selects 12*(n/100)^(1/4)
	AutoLag    string // "aic" (default), "bic" or "none" to use MaxLag as is
}

// DefaultADFOptions returns a constant-only regression with AIC lag selection.
func DefaultADFOptions() *ADFOptions {
	return &ADFOptions{
		Regression: RegressionConstant,
		AutoLag:    AutoLagAIC,
	}
}

// ADFResult represents the result of an Augmented Dickey-Fuller test.
type ADFResult struct {
	Statistic    float64
	PValue       float64
	Lags         int
	NObs         int
	CriticalVals map[string]float64 // Critical values at 1%, 5%, 10%
	IC           float64            // Information criterion of the selected lag
	IsStationary bool
}

// ADF performs the Augmented Dickey-Fuller test for unit root.
// The null hypothesis is that the series has a unit root (is non-stationary).
// If p-value < 0.05, we reject the null and conclude the series is stationary.
// Missing values are dropped first.
func ADF(series *timeseries.Series, opts *ADFOptions) (*ADFResult, error) {
	if opts == nil {
		opts = DefaultADFOptions()
	}
	regression := opts.Regression
	if regression == "" {
		regression = RegressionConstant
	}
	ntrend, err := trendTerms(regression)
	if err != nil {
		return nil, err
	}
	autoLag := opts.AutoLag
	if autoLag == "" {
		autoLag = AutoLagAIC
	}
	if autoLag != AutoLagAIC && autoLag != AutoLagBIC && autoLag != AutoLagNone {
		return nil, fmt.Errorf("adf: autolag %q: %w", autoLag, ErrInvalidOption)
	}

	values, err := testValues(series)
	if err != nil {
		return nil, fmt.Errorf("adf: %w", err)
	}
	n := len(values)

	// Use default lag selection (ceil of 12*(n/100)^(1/4)), capped so the
	// widest regression still has more observations than regressors.
	maxLag := opts.MaxLag
	if maxLag <= 0 {
		maxLag = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}
	maxLag = min(maxLag, n/2-ntrend-1)
	if maxLag < 0 {
		return nil, fmt.Errorf("adf: %d observations: %w", n, ErrInsufficientData)
	}

	diffs := make([]float64, n-1)
	for i := range diffs {
		diffs[i] = values[i+1] - values[i]
	}

	usedLag := maxLag
	ic := math.NaN()
	if autoLag != AutoLagNone {
		// Every candidate is fitted on the same sample so the criteria compare.
		nObs := n - 1 - maxLag
		found := false
		for lag := 0; lag <= maxLag; lag++ {
			x, y := adfDesign(values, diffs, lag, nObs, regression)
			fit, err := olsRegression(x, y)
			if errors.Is(err, errSingular) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("adf: lag %d: %w", lag, err)
			}
			crit := CalculateIC(fit.logLik(), fit.NObs, fit.NParams)
			value := crit.AIC
			if autoLag == AutoLagBIC {
				value = crit.BIC
			}
			if !found || value < ic {
				ic, usedLag, found = value, lag, true
			}
		}
		if !found {
			return nil, fmt.Errorf("adf: no lag order up to %d gives a regular regression: %w", maxLag, ErrNonConvergence)
		}
	}

	nObs := n - 1 - usedLag
	x, y := adfDesign(values, diffs, usedLag, nObs, regression)
	fit, err := olsRegression(x, y)
	if errors.Is(err, errSingular) {
		return nil, fmt.Errorf("adf: lag %d: %w", usedLag, ErrNonConvergence)
	}
	if err != nil {
		return nil, fmt.Errorf("adf: lag %d: %w", usedLag, err)
	}

	tStat := levelStatistic(fit, x, y, ntrend)
	if math.IsNaN(tStat) {
		return nil, fmt.Errorf("adf: statistic is NaN: %w", ErrNonConvergence)
	}

	pValue := mackinnonPValue(tStat, regression)

	return &ADFResult{
		Statistic:    tStat,
		PValue:       pValue,
		Lags:         usedLag,
		NObs:         nObs,
		CriticalVals: mackinnonCriticalValues(regression, nObs),
		IC:           ic,
		IsStationary: pValue < 0.05,
	}, nil
}

// adfDesign builds the regression
//
//	delta_y_t = [alpha] + [gamma*t] + beta*y_{t-1} + sum(phi_i * delta_y_{t-i})
//
// on the last nObs differences. Deterministic terms come first, then the
// lagged level, then the lagged differences. With a constant, the level and
// trend are centred; the intercept absorbs the shift, so beta and its
// standard error are unchanged while the design stays well conditioned for
// series far from zero.
func adfDesign(values, diffs []float64, lag, nObs int, regression string) ([][]float64, []float64) {
	levelCenter, trendCenter := 0.0, 0.0
	if regression != RegressionNone {
		for _, v := range values {
			levelCenter += v
		}
		levelCenter /= float64(len(values))
		trendCenter = float64(len(diffs)+1) / 2
	}

	x := make([][]float64, nObs)
	y := make([]float64, nObs)
	for r := 0; r < nObs; r++ {
		t := len(diffs) - nObs + r
		row := make([]float64, 0, 3+lag)
		if regression != RegressionNone {
			row = append(row, 1)
		}
		if regression == RegressionConstantTrend {
			row = append(row, float64(t+1)-trendCenter)
		}
		row = append(row, values[t]-levelCenter)
		for j := 1; j <= lag; j++ {
			row = append(row, diffs[t-j])
		}
		x[r] = row
		y[r] = diffs[t]
	}
	return x, y
}

// levelStatistic returns the t-statistic of the lagged level coefficient.
// For an exact fit the ratio is replaced by its limit as the noise vanishes:
// zero when the coefficient is zero, infinite with its sign otherwise.
func levelStatistic(fit *olsFit, x [][]float64, y []float64, idx int) float64 {
	beta := fit.Coeffs[idx]

	tss := 0.0
	for _, v := range y {
		tss += v * v
	}
	if fit.SSR > 1e-12*tss {
		return beta / fit.StdErrors[idx]
	}

	levelScale, diffScale := 0.0, 0.0
	for i, row := range x {
		levelScale = math.Max(levelScale, math.Abs(row[idx]))
		diffScale = math.Max(diffScale, math.Abs(y[i]))
	}
	if math.Abs(beta)*levelScale <= 1e-8*diffScale {
		return 0
	}
	return math.Copysign(math.Inf(1), beta)
}

// trendTerms returns the number of deterministic regressors.
func trendTerms(regression string) (int, error) {
	switch regression {
	case RegressionNone:
		return 0, nil
	case RegressionConstant:
		return 1, nil
	case RegressionConstantTrend:
		return 2, nil
	}
	return 0, fmt.Errorf("regression %q: %w", regression, ErrInvalidOption)
}

// testValues drops missing values and checks the input is usable.
func testValues(series *timeseries.Series) ([]float64, error) {
	if series == nil {
		return nil, ErrEmptySeries
	}
	clean := series.DropNaN()
	for i, v := range clean.Values {
		if math.IsInf(v, 0) {
			return nil, fmt.Errorf("value %d is %v: %w", i, v, ErrNonFinite)
		}
	}
	n := clean.Len()
	switch {
	case n == 0:
		return nil, ErrEmptySeries
	case n < MinObservations:
		return nil, fmt.Errorf("%d observations, need %d: %w", n, MinObservations, ErrInsufficientData)
	case clean.IsConstant():
		return nil, ErrConstantSeries
	}
	return clean.Values, nil
}

// MacKinnon (1994) response surface for a single series: the p-value is the
// normal CDF of a polynomial in the statistic, with separate coefficients
// below and above tauStar.
type mackinnonSurface struct {
	tauMax, tauMin, tauStar float64
	smallP                  []float64
	largeP                  []float64
}

var mackinnonSurfaces = map[string]mackinnonSurface{
	RegressionNone: {
		tauMax:  math.Inf(1),
		tauMin:  -19.04,
		tauStar: -1.04,
		smallP:  []float64{0.6344, 1.2378, 0.032496},
		largeP:  []float64{0.4797, 0.93557, -0.06999, 0.033066},
	},
	RegressionConstant: {
		tauMax:  2.74,
		tauMin:  -18.83,
		tauStar: -1.61,
		smallP:  []float64{2.1659, 1.4412, 0.038269},
		largeP:  []float64{1.7339, 0.93202, -0.12745, -0.010368},
	},
	RegressionConstantTrend: {
		tauMax:  0.7,
		tauMin:  -16.18,
		tauStar: -2.89,
		smallP:  []float64{3.2512, 1.6047, 0.049588},
		largeP:  []float64{2.5261, 0.61654, -0.37956, -0.060285},
	},
}

// mackinnonPValue approximates the p-value of a unit-root statistic.
func mackinnonPValue(stat float64, regression string) float64 {
	surface := mackinnonSurfaces[regression]
	switch {
	case stat > surface.tauMax:
		return 1
	case stat < surface.tauMin:
		return 0
	}
	coef := surface.largeP
	if stat <= surface.tauStar {
		coef = surface.smallP
	}
	return distuv.UnitNormal.CDF(polyval(coef, stat))
}

// MacKinnon (2010) critical values: b0 + b1/n + b2/n^2 + b3/n^3.
var mackinnonCritical = map[string][3][4]float64{
	RegressionNone: {
		{-2.56574, -2.2358, -3.627, 0},
		{-1.94100, -0.2686, -3.365, 31.223},
		{-1.61682, 0.2656, -2.714, 25.364},
	},
	RegressionConstant: {
		{-3.43035, -6.5393, -16.786, -79.433},
		{-2.86154, -2.8903, -4.234, -40.040},
		{-2.56677, -1.5384, -2.809, 0},
	},
	RegressionConstantTrend: {
		{-3.95877, -9.0531, -28.428, -134.155},
		{-3.41049, -4.3904, -9.036, -45.374},
		{-3.12705, -2.5856, -3.925, -22.380},
	},
}

func mackinnonCriticalValues(regression string, nObs int) map[string]float64 {
	table := mackinnonCritical[regression]
	inv := 1 / float64(nObs)
	return map[string]float64{
		"1%":  polyval(table[0][:], inv),
		"5%":  polyval(table[1][:], inv),
		"10%": polyval(table[2][:], inv),
	}
}

// polyval evaluates c[0] + c[1]*x + c[2]*x^2 + ...
func polyval(c []float64, x float64) float64 {
	result := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		result = result*x + c[i]
	}
	return result
}

// KPSSResult represents the result of a KPSS test.
type KPSSResult struct {
	Statistic    float64
	PValue       float64
	Lags         int
	CriticalVals map[string]float64
	IsStationary bool
}

// KPSS performs the Kwiatkowski-Phillips-Schmidt-Shin test for stationarity.
// The null hypothesis is that the series is stationary.
// If p-value < 0.05, we reject the null and conclude the series is non-stationary.
// The p-value is interpolated in the published table and clipped to [0.01, 0.10].
func KPSS(series *timeseries.Series, regression string, nlags int) (*KPSSResult, error) {
	if regression == "" {
		regression = RegressionConstant
	}
	if regression != RegressionConstant && regression != RegressionConstantTrend {
		return nil, fmt.Errorf("kpss: regression %q: %w", regression, ErrInvalidOption)
	}

	values, err := testValues(series)
	if err != nil {
		return nil, fmt.Errorf("kpss: %w", err)
	}
	n := len(values)

	// Default lag selection
	if nlags <= 0 {
		nlags = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}
	nlags = min(nlags, n-1)

	residuals := make([]float64, n)
	if regression == RegressionConstantTrend {
		// Remove constant and trend: y = a + b*t + residual
		sumT, sumY, sumTY, sumT2 := 0.0, 0.0, 0.0, 0.0
		for i, v := range values {
			t := float64(i)
			sumT += t
			sumY += v
			sumTY += t * v
			sumT2 += t * t
		}
		nf := float64(n)
		b := (nf*sumTY - sumT*sumY) / (nf*sumT2 - sumT*sumT)
		a := (sumY - b*sumT) / nf
		for i, v := range values {
			residuals[i] = v - a - b*float64(i)
		}
	} else {
		mean := 0.0
		for _, v := range values {
			mean += v
		}
		mean /= float64(n)
		for i, v := range values {
			residuals[i] = v - mean
		}
	}

	// Partial sums
	etaSq, cum := 0.0, 0.0
	for _, r := range residuals {
		cum += r
		etaSq += cum * cum
	}

	// Long-run variance with Bartlett weights (Newey-West)
	s2 := 0.0
	for _, r := range residuals {
		s2 += r * r
	}
	s2 /= float64(n)
	for l := 1; l <= nlags; l++ {
		cov := 0.0
		for i := l; i < n; i++ {
			cov += residuals[i] * residuals[i-l]
		}
		cov /= float64(n)
		weight := 1.0 - float64(l)/float64(nlags+1)
		s2 += 2 * weight * cov
	}
	if s2 <= 0 || math.IsNaN(s2) {
		return nil, fmt.Errorf("kpss: long-run variance %g: %w", s2, ErrNonConvergence)
	}

	kpssStat := etaSq / (float64(n) * float64(n) * s2)
	table := kpssCritical[regression]
	pValue := kpssPValue(kpssStat, table)

	return &KPSSResult{
		Statistic: kpssStat,
		PValue:    pValue,
		Lags:      nlags,
		CriticalVals: map[string]float64{
			"10%":  table[0],
			"5%":   table[1],
			"2.5%": table[2],
			"1%":   table[3],
		},
		IsStationary: pValue >= 0.05,
	}, nil
}

// Critical values at 10%, 5%, 2.5% and 1% (Kwiatkowski et al. 1992, table 1).
var kpssCritical = map[string][4]float64{
	RegressionConstant:      {0.347, 0.463, 0.574, 0.739},
	RegressionConstantTrend: {0.119, 0.146, 0.176, 0.216},
}

var kpssLevels = [4]float64{0.10, 0.05, 0.025, 0.01}

// kpssPValue interpolates linearly between table entries.
func kpssPValue(stat float64, crit [4]float64) float64 {
	if stat <= crit[0] {
		return kpssLevels[0]
	}
	for i := 1; i < len(crit); i++ {
		if stat <= crit[i] {
			frac := (stat - crit[i-1]) / (crit[i] - crit[i-1])
			return kpssLevels[i-1] + frac*(kpssLevels[i]-kpssLevels[i-1])
		}
	}
	return kpssLevels[len(kpssLevels)-1]
}
