// Package stats decides whether a time series is stationary and differences
// it until it is.
//
// # Stationarity Tests
//
//	// Augmented Dickey-Fuller test
//	// H0: Series has unit root (non-stationary)
//	adf, err := stats.ADF(series, nil)
//	fmt.Printf("ADF: stat=%.4f, p=%.4f, lags=%d\n", adf.Statistic, adf.PValue, adf.Lags)
//
//	// KPSS test
//	// H0: Series is stationary
//	kpss, err := stats.KPSS(series, "c", 0)
//
// Both drop missing values first and return ErrConstantSeries for a
// zero-variance input. The StationarityTest implementations ADFTest and
// KPSSTest turn a result into a Verdict at a significance level and report
// a constant series as stationary.
//
//	ok, err := stats.IsStationary(series, 0.05)
//
// # Differencing
//
//	r, err := stats.Reduce(series, &stats.ReduceConfig{MaxDiff: 5, Significance: 0.05})
//	// r.Series differenced r.Diffs times, r.Verdicts one per test
//
//	reduced, d, err := stats.MakeStationary(series, 5)
//
// Differencing keeps the series length: the first value of each pass is NaN.
//
// # Diagnostics
//
// ACF, LjungBox and Diagnose describe the autocorrelation left in a reduced
// series.
package stats
