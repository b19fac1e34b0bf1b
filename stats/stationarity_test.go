package stats

import (
	"errors"
	"math"
	"testing"

	"github.com/sartorproj/gasweather/timeseries"
)

func TestGaussianNoiseIsReproducible(t *testing.T) {
	a := gaussianNoise(42, 5)
	b := gaussianNoise(42, 5)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("draw %d differs: %v vs %v", i, a[i], b[i])
		}
	}
	if math.Abs(a[0]-0.4147197504315305) > 1e-12 {
		t.Errorf("first draw = %v, want 0.41471975...", a[0])
	}
}

func TestADFLinearTrend(t *testing.T) {
	result, err := ADF(linearTrend(20), nil)
	if err != nil {
		t.Fatalf("ADF: %v", err)
	}

	t.Logf("ADF trend: stat=%.4f, p=%.4f, lags=%d, nobs=%d",
		result.Statistic, result.PValue, result.Lags, result.NObs)

	if result.Statistic != 0 {
		t.Errorf("exact linear trend should give statistic 0, got %v", result.Statistic)
	}
	if result.Lags != 0 || result.NObs != 19 {
		t.Errorf("expected lag 0 on 19 observations, got lag %d on %d", result.Lags, result.NObs)
	}
	if math.Abs(result.PValue-0.9585) > 1e-3 {
		t.Errorf("expected p-value near 0.9585, got %.4f", result.PValue)
	}
	if result.IsStationary {
		t.Error("linear trend should not be stationary")
	}
}

func TestADFWhiteNoise(t *testing.T) {
	result, err := ADF(whiteNoise(), nil)
	if err != nil {
		t.Fatalf("ADF: %v", err)
	}

	t.Logf("ADF noise: stat=%.4f, p=%.6g, lags=%d", result.Statistic, result.PValue, result.Lags)

	if result.Lags != 0 {
		t.Errorf("expected AIC to select lag 0, got %d", result.Lags)
	}
	if math.Abs(result.Statistic-(-5.72)) > 0.05 {
		t.Errorf("expected statistic near -5.72, got %.4f", result.Statistic)
	}
	if result.PValue > 1e-5 {
		t.Errorf("expected a tiny p-value, got %g", result.PValue)
	}
	if !result.IsStationary {
		t.Error("white noise should be stationary")
	}
	for _, level := range []string{"1%", "5%", "10%"} {
		if result.Statistic >= result.CriticalVals[level] {
			t.Errorf("statistic %.3f should be below the %s critical value %.3f",
				result.Statistic, level, result.CriticalVals[level])
		}
	}
}

func TestADFRandomWalk(t *testing.T) {
	result, err := ADF(randomWalk(), nil)
	if err != nil {
		t.Fatalf("ADF: %v", err)
	}
	t.Logf("ADF random walk: stat=%.4f, p=%.4f, lags=%d", result.Statistic, result.PValue, result.Lags)
	if result.PValue < 0.3 {
		t.Errorf("random walk p-value should be large, got %.4f", result.PValue)
	}
}

func TestADFIgnoresMissingValues(t *testing.T) {
	values := append([]float64{math.NaN(), math.NaN()}, gaussianNoise(42, 30)...)
	withNaN, err := ADF(timeseries.New(values), nil)
	if err != nil {
		t.Fatalf("ADF: %v", err)
	}
	clean, err := ADF(whiteNoise(), nil)
	if err != nil {
		t.Fatalf("ADF: %v", err)
	}
	if withNaN.Statistic != clean.Statistic || withNaN.PValue != clean.PValue {
		t.Errorf("leading NaN changed the result: %v/%v vs %v/%v",
			withNaN.Statistic, withNaN.PValue, clean.Statistic, clean.PValue)
	}
}

func TestADFErrors(t *testing.T) {
	constant := make([]float64, 19)
	for i := range constant {
		constant[i] = 1
	}

	tests := []struct {
		name   string
		series *timeseries.Series
		opts   *ADFOptions
		want   error
	}{
		{"nil", nil, nil, ErrEmptySeries},
		{"empty", timeseries.New(nil), nil, ErrEmptySeries},
		{"all missing", timeseries.New([]float64{math.NaN(), math.NaN()}), nil, ErrEmptySeries},
		{"short", timeseries.New([]float64{1, 3, 2, 5, 4}), nil, ErrInsufficientData},
		{"constant", timeseries.New(constant), nil, ErrConstantSeries},
		{"bad regression", whiteNoise(), &ADFOptions{Regression: "x"}, ErrInvalidOption},
		{"bad autolag", whiteNoise(), &ADFOptions{AutoLag: "hqic"}, ErrInvalidOption},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ADF(tt.series, tt.opts)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestADFFixedLag(t *testing.T) {
	result, err := ADF(whiteNoise(), &ADFOptions{Regression: RegressionConstantTrend, MaxLag: 2, AutoLag: AutoLagNone})
	if err != nil {
		t.Fatalf("ADF: %v", err)
	}
	if result.Lags != 2 || result.NObs != 27 {
		t.Errorf("expected lag 2 on 27 observations, got lag %d on %d", result.Lags, result.NObs)
	}
	if !math.IsNaN(result.IC) {
		t.Errorf("no criterion is computed without autolag, got %v", result.IC)
	}
}

func TestMackinnonPValue(t *testing.T) {
	if p := mackinnonPValue(0, RegressionConstant); math.Abs(p-0.9585) > 1e-3 {
		t.Errorf("p(0) = %.4f, want about 0.9585", p)
	}
	if p := mackinnonPValue(5, RegressionConstant); p != 1 {
		t.Errorf("above tauMax p should be 1, got %v", p)
	}
	if p := mackinnonPValue(-25, RegressionConstantTrend); p != 0 {
		t.Errorf("below tauMin p should be 0, got %v", p)
	}

	// Monotone in the statistic.
	prev := 0.0
	for stat := -10.0; stat <= 2; stat += 0.25 {
		p := mackinnonPValue(stat, RegressionConstant)
		if p < prev-1e-12 {
			t.Errorf("p-value decreased at %.2f: %v < %v", stat, p, prev)
		}
		prev = p
	}

	// The 5% critical value maps to a p-value near 0.05.
	crit := mackinnonCriticalValues(RegressionConstant, 1000)
	if p := mackinnonPValue(crit["5%"], RegressionConstant); math.Abs(p-0.05) > 0.01 {
		t.Errorf("p at the 5%% critical value = %.4f", p)
	}
}

func TestPolyval(t *testing.T) {
	if got := polyval([]float64{1, 2, 3}, 2); got != 17 {
		t.Errorf("polyval = %v, want 17", got)
	}
	if got := polyval(nil, 3); got != 0 {
		t.Errorf("empty polynomial = %v, want 0", got)
	}
}

func TestOLSRegression(t *testing.T) {
	x := make([][]float64, 10)
	y := make([]float64, 10)
	for i := range x {
		v := float64(i + 1)
		x[i] = []float64{1, v}
		y[i] = 2 + 3*v
	}

	fit, err := olsRegression(x, y)
	if err != nil {
		t.Fatalf("olsRegression: %v", err)
	}
	if math.Abs(fit.Coeffs[0]-2) > 1e-9 || math.Abs(fit.Coeffs[1]-3) > 1e-9 {
		t.Errorf("coefficients = %v, want [2 3]", fit.Coeffs)
	}
	if fit.SSR > 1e-18 {
		t.Errorf("exact fit should have no residual, got %g", fit.SSR)
	}
	if fit.NObs != 10 || fit.NParams != 2 {
		t.Errorf("nobs=%d nparams=%d", fit.NObs, fit.NParams)
	}
}

func TestOLSRegressionSingular(t *testing.T) {
	collinear := make([][]float64, 10)
	zero := make([][]float64, 10)
	y := make([]float64, 10)
	for i := range y {
		collinear[i] = []float64{1, 2}
		zero[i] = []float64{1, 0}
		y[i] = float64(i)
	}
	if _, err := olsRegression(collinear, y); !errors.Is(err, errSingular) {
		t.Errorf("collinear design: expected errSingular, got %v", err)
	}
	if _, err := olsRegression(zero, y); !errors.Is(err, errSingular) {
		t.Errorf("zero column: expected errSingular, got %v", err)
	}
	if _, err := olsRegression(collinear[:2], y[:2]); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("two rows: expected ErrInsufficientData, got %v", err)
	}
}

func TestCalculateIC(t *testing.T) {
	logLik := -50.0
	nObs := 100
	nParams := 3

	ic := CalculateIC(logLik, nObs, nParams)

	if want := -2*logLik + 2*float64(nParams); math.Abs(ic.AIC-want) > 1e-10 {
		t.Errorf("AIC = %f, want %f", ic.AIC, want)
	}
	if want := -2*logLik + float64(nParams)*math.Log(float64(nObs)); math.Abs(ic.BIC-want) > 1e-10 {
		t.Errorf("BIC = %f, want %f", ic.BIC, want)
	}
	if ic.AICc < ic.AIC {
		t.Error("AICc should be >= AIC")
	}
	if small := CalculateIC(logLik, 5, 5); !math.IsInf(small.AICc, 1) {
		t.Errorf("AICc should be +Inf when n-k-1 <= 0, got %f", small.AICc)
	}
}

func TestKPSS(t *testing.T) {
	trend, err := KPSS(linearTrend(100), RegressionConstant, 0)
	if err != nil {
		t.Fatalf("KPSS trend: %v", err)
	}
	t.Logf("KPSS trend: stat=%.4f, p=%.4f, lags=%d", trend.Statistic, trend.PValue, trend.Lags)
	if math.Abs(trend.Statistic-0.883) > 0.01 {
		t.Errorf("expected statistic near 0.883, got %.4f", trend.Statistic)
	}
	if trend.PValue != 0.01 || trend.IsStationary {
		t.Errorf("trend should be rejected at the table edge, got p=%v", trend.PValue)
	}

	noise, err := KPSS(whiteNoise(), RegressionConstant, 0)
	if err != nil {
		t.Fatalf("KPSS noise: %v", err)
	}
	t.Logf("KPSS noise: stat=%.4f, p=%.4f", noise.Statistic, noise.PValue)
	if noise.PValue != 0.10 || !noise.IsStationary {
		t.Errorf("white noise should not be rejected, got p=%v", noise.PValue)
	}
}

func TestKPSSErrors(t *testing.T) {
	if _, err := KPSS(whiteNoise(), RegressionNone, 0); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("regression n: expected ErrInvalidOption, got %v", err)
	}
	if _, err := KPSS(timeseries.New([]float64{1, 2, 3}), "", 0); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("short: expected ErrInsufficientData, got %v", err)
	}
	constant := timeseries.New([]float64{2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2})
	if _, err := KPSS(constant, "", 0); !errors.Is(err, ErrConstantSeries) {
		t.Errorf("constant: expected ErrConstantSeries, got %v", err)
	}
}

func TestKPSSPValueInterpolation(t *testing.T) {
	crit := kpssCritical[RegressionConstant]
	tests := []struct {
		stat float64
		want float64
	}{
		{0.1, 0.10},
		{crit[0], 0.10},
		{(crit[0] + crit[1]) / 2, 0.075},
		{crit[1], 0.05},
		{crit[3], 0.01},
		{5, 0.01},
	}
	for _, tt := range tests {
		if got := kpssPValue(tt.stat, crit); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("kpssPValue(%v) = %v, want %v", tt.stat, got, tt.want)
		}
	}
}

func shifted(values []float64, offset float64) *timeseries.Series {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v + offset
	}
	return timeseries.New(out)
}

func TestADFLevelInvariance(t *testing.T) {
	noise := gaussianNoise(42, 100)
	base, err := ADF(timeseries.New(noise), nil)
	if err != nil {
		t.Fatalf("ADF: %v", err)
	}
	t.Logf("ADF noise(100): stat=%.4f, p=%.4g, lags=%d", base.Statistic, base.PValue, base.Lags)

	for _, offset := range []float64{0, 1e3, 1e6, 1e9} {
		for _, regression := range []string{RegressionConstant, RegressionConstantTrend} {
			opts := &ADFOptions{Regression: regression}
			want, err := ADF(timeseries.New(noise), opts)
			if err != nil {
				t.Fatalf("ADF %s: %v", regression, err)
			}
			got, err := ADF(shifted(noise, offset), opts)
			if err != nil {
				t.Fatalf("offset %g, %s: %v", offset, regression, err)
			}
			if got.Lags != want.Lags {
				t.Errorf("offset %g, %s: lag %d, want %d", offset, regression, got.Lags, want.Lags)
			}
			if math.Abs(got.Statistic-want.Statistic) > 1e-4 {
				t.Errorf("offset %g, %s: statistic %.8f, want %.8f", offset, regression, got.Statistic, want.Statistic)
			}
			if math.Abs(got.PValue-want.PValue) > 1e-4*want.PValue+1e-12 {
				t.Errorf("offset %g, %s: p-value %g, want %g", offset, regression, got.PValue, want.PValue)
			}
		}
	}
}

func TestIsStationaryFarFromZero(t *testing.T) {
	noise := gaussianNoise(42, 100)
	for _, offset := range []float64{1e5, 1e6, 1e8} {
		ok, err := IsStationary(shifted(noise, offset), 0.05)
		if err != nil {
			t.Fatalf("offset %g: %v", offset, err)
		}
		if !ok {
			t.Errorf("offset %g: shifted white noise should be stationary", offset)
		}
	}
}

func TestADFRejectsInfiniteValues(t *testing.T) {
	values := gaussianNoise(42, 30)
	values[7] = math.Inf(1)
	_, err := ADF(timeseries.New(values), nil)
	if !errors.Is(err, ErrNonFinite) {
		t.Errorf("expected ErrNonFinite, got %v", err)
	}
	if errors.Is(err, ErrNonConvergence) {
		t.Errorf("infinite input is invalid input, not a numerical failure: %v", err)
	}

	values[7] = math.Inf(-1)
	if _, err := KPSS(timeseries.New(values), "", 0); !errors.Is(err, ErrNonFinite) {
		t.Errorf("KPSS: expected ErrNonFinite, got %v", err)
	}
	if _, err := IsStationary(timeseries.New(values), 0.05); !errors.Is(err, ErrNonFinite) {
		t.Errorf("IsStationary: expected ErrNonFinite, got %v", err)
	}
}
