package stats

import "errors"

// Invalid input: the test cannot run on what it was given.
var (
	// ErrEmptySeries is returned when no finite values remain after dropping NaN.
	ErrEmptySeries = errors.New("series has no observations")
	// ErrInsufficientData is returned when the series is too short for the test.
	ErrInsufficientData = errors.New("insufficient observations")
	// ErrInvalidOption is returned for an unknown regression or lag selection mode.
	ErrInvalidOption = errors.New("invalid option")
	// ErrInvalidSignificance is returned when the significance level is not in (0, 1).
	ErrInvalidSignificance = errors.New("significance must be in (0, 1)")
	// ErrInvalidMaxDiff is returned for a negative differencing cap.
	ErrInvalidMaxDiff = errors.New("max differences must be non-negative")
	// ErrNonFinite is returned when a series holds an infinite value.
	ErrNonFinite = errors.New("series has an infinite value")
)

// Numerical failures: the test ran but produced no usable statistic.
var (
	// ErrNonConvergence is returned when the test regression is singular or
	// its statistic is not a number.
	ErrNonConvergence = errors.New("stationarity test did not converge")
	// ErrConstantSeries is returned by the raw tests for zero-variance input.
	// The verdict layer treats such a series as stationary.
	ErrConstantSeries = errors.New("series is constant")
)

var errSingular = errors.New("singular design matrix")
