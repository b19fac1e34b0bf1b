package stats

import (
	"errors"
	"fmt"
	"math"

	"github.com/sartorproj/gasweather/timeseries"
)

// DefaultSignificance is the p-value cutoff used when none is given.
const DefaultSignificance = 0.05

// Verdict is the outcome of one stationarity test at a significance level.
type Verdict struct {
	Test       string
	Statistic  float64
	PValue     float64
	Lags       int
	NObs       int
	Stationary bool
	// Degenerate is set for zero-variance input, which is stationary by
	// convention; Statistic and PValue are NaN then.
	Degenerate bool
}

// StationarityTest decides whether a series is stationary.
// Implementations drop missing values before testing and must not modify
// the series.
type StationarityTest interface {
	Name() string
	Verdict(series *timeseries.Series, significance float64) (*Verdict, error)
}

// ADFTest is the Augmented Dickey-Fuller oracle. The series is stationary
// when the unit-root null is rejected: p < significance.
type ADFTest struct {
	Options ADFOptions
}

// Name implements StationarityTest.
func (ADFTest) Name() string { return "adf" }

// Verdict implements StationarityTest.
func (t ADFTest) Verdict(series *timeseries.Series, significance float64) (*Verdict, error) {
	if err := checkSignificance(significance); err != nil {
		return nil, err
	}
	opts := t.Options
	res, err := ADF(series, &opts)
	if errors.Is(err, ErrConstantSeries) {
		return degenerateVerdict(t.Name(), series), nil
	}
	if err != nil {
		return nil, err
	}
	return &Verdict{
		Test:       t.Name(),
		Statistic:  res.Statistic,
		PValue:     res.PValue,
		Lags:       res.Lags,
		NObs:       res.NObs,
		Stationary: res.PValue < significance,
	}, nil
}

// KPSSTest is the KPSS oracle. The series is stationary when the
// stationarity null is not rejected: p >= significance.
type KPSSTest struct {
	Regression string
	Lags       int
}

// Name implements StationarityTest.
func (KPSSTest) Name() string { return "kpss" }

// Verdict implements StationarityTest.
func (t KPSSTest) Verdict(series *timeseries.Series, significance float64) (*Verdict, error) {
	if err := checkSignificance(significance); err != nil {
		return nil, err
	}
	res, err := KPSS(series, t.Regression, t.Lags)
	if errors.Is(err, ErrConstantSeries) {
		return degenerateVerdict(t.Name(), series), nil
	}
	if err != nil {
		return nil, err
	}
	return &Verdict{
		Test:       t.Name(),
		Statistic:  res.Statistic,
		PValue:     res.PValue,
		Lags:       res.Lags,
		NObs:       series.CountValid(),
		Stationary: res.PValue >= significance,
	}, nil
}

// TestByName returns the oracle registered under name ("adf" or "kpss").
func TestByName(name string) (StationarityTest, error) {
	switch name {
	case "", "adf":
		return DefaultTest(), nil
	case "kpss":
		return KPSSTest{Regression: RegressionConstant}, nil
	}
	return nil, fmt.Errorf("stationarity test %q: %w", name, ErrInvalidOption)
}

// DefaultTest returns ADF with a constant and AIC lag selection.
func DefaultTest() StationarityTest {
	return ADFTest{Options: *DefaultADFOptions()}
}

// IsStationary reports whether the series is stationary according to the
// default ADF test: the unit-root null is rejected at the given significance.
// Missing values are dropped before testing. A constant series is stationary.
func IsStationary(series *timeseries.Series, significance float64) (bool, error) {
	v, err := DefaultTest().Verdict(series, significance)
	if err != nil {
		return false, err
	}
	return v.Stationary, nil
}

func degenerateVerdict(name string, series *timeseries.Series) *Verdict {
	return &Verdict{
		Test:       name,
		Statistic:  math.NaN(),
		PValue:     math.NaN(),
		NObs:       series.CountValid(),
		Stationary: true,
		Degenerate: true,
	}
}

func checkSignificance(significance float64) error {
	if !(significance > 0 && significance < 1) {
		return fmt.Errorf("%g: %w", significance, ErrInvalidSignificance)
	}
	return nil
}
