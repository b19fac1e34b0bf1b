// Package main loads German gas consumption and Berlin weather data, aligns
// them by day and differences every series until it is stationary.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sartorproj/gasweather/config"
	"github.com/sartorproj/gasweather/metrics"
	"github.com/sartorproj/gasweather/report"
	"github.com/sartorproj/gasweather/source"
	"github.com/sartorproj/gasweather/stats"
	"github.com/sartorproj/gasweather/timeseries"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not read .env", "error", err)
	}

	configPath := flag.String("config", os.Getenv(config.EnvConfigPath), "YAML configuration file")
	outDir := flag.String("out", "", "output directory (overrides output.dir)")
	xlsx := flag.Bool("xlsx", false, "also write aligned.xlsx")
	csvFile := flag.String("csv", "", "reduce one column of this CSV instead of the configured sources")
	column := flag.String("column", "value", "value column for -csv")
	flag.Parse()

	if *csvFile != "" {
		if err := reduceCSV(*csvFile, *column); err != nil {
			slog.Error("reduce csv", "file", *csvFile, "error", err)
			os.Exit(1)
		}
		return
	}

	if *configPath == "" {
		slog.Error("no configuration: pass -config or set " + config.EnvConfigPath)
		os.Exit(2)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}
	if *xlsx {
		cfg.Output.XLSX = true
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		slog.Error("configure logging", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(s config.LogSettings) (*slog.Logger, error) {
	level, err := config.ParseLevel(s.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if s.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
}

func run(cfg *config.Config, logger *slog.Logger) error {
	rec := metrics.NewRecorder()

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("Gas consumption and weather - stationarity analysis")
	fmt.Println(strings.Repeat("=", 80))

	gas, err := source.LoadGas(cfg.Operators)
	if err != nil {
		return fmt.Errorf("load gas data: %w", err)
	}
	for op, s := range map[source.Operator]*timeseries.Series{
		source.OperatorNCG:     gas.NCG,
		source.OperatorGaspool: gas.Gaspool,
		source.OperatorTHE:     gas.THE,
	} {
		rec.ObserveRows(string(op), s.Len())
		if s.Len() == 0 {
			logger.Warn("operator export has no rows", "operator", op)
			continue
		}
		logger.Info("loaded operator", "operator", op, "rows", s.Len(),
			"from", s.Timestamps[0].Format(time.DateOnly), "to", s.Timestamps[s.Len()-1].Format(time.DateOnly))
	}

	weather, err := source.LoadWeather(cfg.Weather)
	if err != nil {
		return fmt.Errorf("load weather data: %w", err)
	}
	rec.ObserveRows("weather", weather.Len())
	logger.Info("loaded weather", "rows", weather.Len(), "columns", len(weather.Names()))

	columns := []*timeseries.Series{gas.Total}
	for _, name := range weather.Names() {
		s, err := weather.Column(name)
		if err != nil {
			return err
		}
		columns = append(columns, s)
	}
	aligned, err := timeseries.Align(timeseries.JoinInner, columns...)
	if err != nil {
		return fmt.Errorf("align: %w", err)
	}
	if aligned.Len() == 0 {
		return fmt.Errorf("gas and weather data share no dates: %w", timeseries.ErrNoData)
	}
	fmt.Printf("\nAligned %d days (%s to %s), %d columns\n", aligned.Len(),
		aligned.Index[0].Format(time.DateOnly), aligned.Index[aligned.Len()-1].Format(time.DateOnly), len(aligned.Names()))

	reduceCfg := cfg.Reduce.ReduceConfig(logger)
	entries := make([]report.Entry, 0, len(aligned.Names()))

	fmt.Printf("\n%-32s %-6s %6s %12s %10s %s\n", "Series", "Test", "Diffs", "Statistic", "p-value", "Result")
	fmt.Println(strings.Repeat("-", 80))
	for _, name := range aligned.Names() {
		s, err := aligned.Column(name)
		if err != nil {
			return err
		}
		red, err := stats.Reduce(s, reduceCfg)
		if err != nil {
			rec.ObserveError(errorKind(err))
			logger.Warn("reduce failed", "series", name, "error", err)
			fmt.Printf("%-32s %s\n", name, err)
			continue
		}
		rec.ObserveReduction(red)
		entry := report.Summarize(name, red)
		entries = append(entries, entry)
		fmt.Printf("%-32s %-6s %6d %12s %10s %s\n",
			name, entry.Test, entry.Diffs, formatStat(entry.Statistic), formatStat(entry.PValue), outcome(entry))
	}

	return export(cfg.Output, aligned, entries, rec, logger)
}

func export(out config.OutputSettings, aligned *timeseries.Frame, entries []report.Entry, rec *metrics.Recorder, logger *slog.Logger) error {
	fmt.Printf("\n%s\nEXPORTING RESULTS\n%s\n", strings.Repeat("=", 80), strings.Repeat("=", 80))

	if err := os.MkdirAll(out.Dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	csvPath := filepath.Join(out.Dir, "aligned.csv")
	if err := timeseries.SaveCSV(aligned, csvPath, out.DateLayout); err != nil {
		return fmt.Errorf("write %s: %w", csvPath, err)
	}
	fmt.Printf("Exported %d rows to %s\n", aligned.Len(), csvPath)

	if out.XLSX {
		path := filepath.Join(out.Dir, "aligned.xlsx")
		if err := writeFile(path, func(f *os.File) error {
			return report.WriteXLSX(f, aligned, entries, out.DateLayout)
		}); err != nil {
			return err
		}
		fmt.Printf("Exported workbook to %s\n", path)
	}

	jsonPath := filepath.Join(out.Dir, "stationarity.json")
	if err := writeFile(jsonPath, func(f *os.File) error {
		return report.WriteJSON(f, time.Now(), entries)
	}); err != nil {
		return err
	}
	fmt.Printf("Exported %d series summaries to %s\n", len(entries), jsonPath)

	if out.Metrics {
		path := filepath.Join(out.Dir, "metrics.prom")
		if err := rec.WriteTextfile(path); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		logger.Debug("metrics written", "path", path)
	}
	fmt.Println(strings.Repeat("=", 80))
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// reduceCSV runs the default reducer on a single CSV column and prints the
// verdict of every pass.
func reduceCSV(path, column string) error {
	s, err := timeseries.LoadCSVColumn(path, column)
	if err != nil {
		return err
	}
	red, err := stats.Reduce(s, nil)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d observations\n", column, s.CountValid())
	for k, v := range red.Verdicts {
		fmt.Printf("  d=%d  %s stat=%s p=%s stationary=%v\n", k, v.Test, formatStat(v.Statistic), formatStat(v.PValue), v.Stationary)
	}
	entry := report.Summarize(column, red)
	fmt.Printf("Result: %s after %d differences\n", outcome(entry), red.Diffs)
	return nil
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, stats.ErrEmptySeries):
		return "empty"
	case errors.Is(err, stats.ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, stats.ErrNonFinite):
		return "non_finite"
	case errors.Is(err, stats.ErrNonConvergence):
		return "non_convergence"
	}
	return "other"
}

func outcome(e report.Entry) string {
	switch {
	case e.Degenerate:
		return "constant"
	case e.Capped:
		return "capped"
	case e.Stationary:
		return "stationary"
	}
	return "non-stationary"
}

func formatStat(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.4g", v)
}
