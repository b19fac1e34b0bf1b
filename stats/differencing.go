package stats

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sartorproj/gasweather/timeseries"
)

// DefaultMaxDiff is the differencing cap used by MakeStationary callers that
// have no better bound.
const DefaultMaxDiff = 5

// ReduceConfig configures the stationarity reducer.
type ReduceConfig struct {
	MaxDiff      int              // Cap on differencing passes (>= 0)
	Significance float64          // p-value cutoff handed to the test
	Test         StationarityTest // Oracle; nil means DefaultTest
	Logger       *slog.Logger     // Optional, one debug record per test
}

// DefaultReduceConfig returns the default reducer configuration.
func DefaultReduceConfig() *ReduceConfig {
	return &ReduceConfig{
		MaxDiff:      DefaultMaxDiff,
		Significance: DefaultSignificance,
		Test:         DefaultTest(),
	}
}

// Reduction is the outcome of Reduce.
type Reduction struct {
	// Series has been differenced exactly Diffs times. Its length equals the
	// input length; the first Diffs positions are NaN.
	Series *timeseries.Series
	Diffs  int
	// Stationary is the verdict on Series.
	Stationary bool
	// Capped is set when MaxDiff passes were spent without a stationary verdict.
	Capped bool
	// Verdicts holds one entry per test, in order; Verdicts[k] is the
	// verdict on the k-times differenced series.
	Verdicts []*Verdict
}

// Last returns the verdict on the returned series.
func (r *Reduction) Last() *Verdict {
	if len(r.Verdicts) == 0 {
		return nil
	}
	return r.Verdicts[len(r.Verdicts)-1]
}

// Reduce differences the series until the test calls it stationary or
// MaxDiff passes have been applied. Diffs is the smallest k <= MaxDiff with a
// stationary verdict, or MaxDiff when there is none; in that case the
// MaxDiff-times differenced series is returned regardless of its verdict.
// Test failures abort the call. The input series is not modified.
func Reduce(series *timeseries.Series, cfg *ReduceConfig) (*Reduction, error) {
	if cfg == nil {
		cfg = DefaultReduceConfig()
	}
	if cfg.MaxDiff < 0 {
		return nil, fmt.Errorf("%d: %w", cfg.MaxDiff, ErrInvalidMaxDiff)
	}
	if series == nil {
		return nil, ErrEmptySeries
	}
	test := cfg.Test
	if test == nil {
		test = DefaultTest()
	}
	significance := cfg.Significance
	if significance == 0 {
		significance = DefaultSignificance
	}

	current := series.Copy()
	result := &Reduction{}
	for {
		verdict, err := test.Verdict(current, significance)
		if err != nil {
			return nil, fmt.Errorf("%s test after %d differences: %w", test.Name(), result.Diffs, err)
		}
		result.Verdicts = append(result.Verdicts, verdict)

		if cfg.Logger != nil {
			cfg.Logger.LogAttrs(context.Background(), slog.LevelDebug, "stationarity test",
				slog.String("series", series.Name),
				slog.Int("diffs", result.Diffs),
				slog.String("test", verdict.Test),
				slog.Float64("statistic", verdict.Statistic),
				slog.Float64("p_value", verdict.PValue),
				slog.Bool("stationary", verdict.Stationary),
				slog.Bool("degenerate", verdict.Degenerate),
			)
		}

		if verdict.Stationary {
			result.Stationary = true
			break
		}
		if result.Diffs == cfg.MaxDiff {
			result.Capped = true
			break
		}
		current = current.Diff()
		result.Diffs++
	}

	result.Series = current
	return result, nil
}

// MakeStationary differences the series with the default test and
// significance until it is stationary or maxDiff passes were applied. It
// returns the (possibly differenced) series and the number of passes.
func MakeStationary(series *timeseries.Series, maxDiff int) (*timeseries.Series, int, error) {
	cfg := DefaultReduceConfig()
	cfg.MaxDiff = maxDiff
	r, err := Reduce(series, cfg)
	if err != nil {
		return nil, 0, err
	}
	return r.Series, r.Diffs, nil
}
