// Package gasweather prepares German natural-gas consumption and weather
// observations for time series modeling.
//
// Daily consumption exports from the market area operators NetConnect
// Germany, GASPOOL and Trading Hub Europe are summed to MWh per gas day and
// stitched into one national total (NCG and GASPOOL merged into THE on
// 2021-10-01). Open-Meteo archive exports supply the weather columns. All
// series are aligned on their dates and differenced until a stationarity test
// accepts them.
//
// # Quick Start
//
//	gas, err := source.LoadGas(cfg.Operators)
//	weather, err := source.LoadWeather(cfg.Weather)
//
//	ok, err := stats.IsStationary(gas.Total, 0.05)
//	reduced, d, err := stats.MakeStationary(gas.Total, 5)
//
// # Packages
//
//   - timeseries: Series and Frame types, alignment and CSV input/output
//   - stats: ADF and KPSS tests, the differencing reducer and diagnostics
//   - source: operator and weather loaders
//   - config: YAML configuration
//   - report: XLSX and JSON exports
//   - metrics: Prometheus counters written as a textfile
//
// # References
//
//   - MacKinnon, J.G. (1994). Approximate asymptotic distribution functions for unit-root and cointegration tests
//   - MacKinnon, J.G. (2010). Critical values for cointegration tests
//   - Kwiatkowski, D., Phillips, P.C.B., Schmidt, P., & Shin, Y. (1992). Testing the null hypothesis of stationarity
package gasweather
