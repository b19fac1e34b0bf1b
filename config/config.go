// Package config loads the YAML configuration of the gasweather tools.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sartorproj/gasweather/source"
	"github.com/sartorproj/gasweather/stats"
)

// EnvConfigPath names the environment variable holding the config file path.
const EnvConfigPath = "GASWEATHER_CONFIG"

// ErrInvalid is returned when a loaded configuration fails validation.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full gasweather configuration: where the operator and
// weather exports live, how series are reduced and what gets written.
type Config struct {
	Operators map[source.Operator]source.OperatorSource `yaml:"operators"`
	Weather   source.WeatherSource                      `yaml:"weather"`
	Reduce    ReduceSettings                            `yaml:"reduce"`
	Output    OutputSettings                            `yaml:"output"`
	Log       LogSettings                               `yaml:"log"`
}

// ReduceSettings configures the stationarity reducer.
type ReduceSettings struct {
	MaxDiff      int     `yaml:"max_diff"`
	Significance float64 `yaml:"significance"`
	Test         string  `yaml:"test"` // "adf" or "kpss"
	Regression   string  `yaml:"regression"`
}

// OutputSettings controls the files written next to the console report.
type OutputSettings struct {
	Dir        string `yaml:"dir"`
	DateLayout string `yaml:"date_layout"`
	XLSX       bool   `yaml:"xlsx"`
	Metrics    bool   `yaml:"metrics"` // Write a node-exporter textfile
}

// LogSettings selects the slog level and handler.
type LogSettings struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Default returns a configuration with every layout default and no paths.
func Default() *Config {
	cfg := &Config{
		Operators: make(map[source.Operator]source.OperatorSource),
		Weather:   source.DefaultWeatherSource(),
		Reduce: ReduceSettings{
			MaxDiff:      stats.DefaultMaxDiff,
			Significance: stats.DefaultSignificance,
			Test:         "adf",
			Regression:   stats.RegressionConstant,
		},
		Output: OutputSettings{
			Dir:        ".",
			DateLayout: "2006/01/02",
			Metrics:    true,
		},
		Log: LogSettings{Level: "info", Format: "text"},
	}
	for _, op := range source.Operators() {
		src, _ := source.DefaultOperatorSource(op)
		cfg.Operators[op] = src
	}
	return cfg
}

// Load reads the YAML file at path over the defaults, expands paths and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration data over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// A partially specified operator replaces the default entry; merge it back.
	for op, src := range cfg.Operators {
		cfg.Operators[op] = src.WithDefaults(op)
	}
	cfg.Weather = cfg.Weather.WithDefaults()
	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) expandPaths() {
	for op, src := range c.Operators {
		src.Path = ExpandPath(src.Path)
		c.Operators[op] = src
	}
	c.Weather.Path = ExpandPath(c.Weather.Path)
	c.Output.Dir = ExpandPath(c.Output.Dir)
}

// Validate checks that every operator is known and has a path and that the
// reducer settings are usable.
func (c *Config) Validate() error {
	var errs []error
	for _, op := range source.SortedOperators(c.Operators) {
		if _, err := source.DefaultOperatorSource(op); err != nil {
			errs = append(errs, fmt.Errorf("operators.%s: %w", op, err))
			continue
		}
		if c.Operators[op].Path == "" {
			errs = append(errs, fmt.Errorf("operators.%s.path is required", op))
		}
	}
	if c.Weather.Path == "" {
		errs = append(errs, errors.New("weather.path is required"))
	}
	if c.Weather.SkipRows < 0 {
		errs = append(errs, fmt.Errorf("weather.skip_rows %d is negative", c.Weather.SkipRows))
	}
	if c.Reduce.MaxDiff < 0 {
		errs = append(errs, fmt.Errorf("reduce.max_diff: %w", stats.ErrInvalidMaxDiff))
	}
	if !(c.Reduce.Significance > 0 && c.Reduce.Significance < 1) {
		errs = append(errs, fmt.Errorf("reduce.significance %g: %w", c.Reduce.Significance, stats.ErrInvalidSignificance))
	}
	if _, err := c.Reduce.test(); err != nil {
		errs = append(errs, fmt.Errorf("reduce: %w", err))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

func (r ReduceSettings) test() (stats.StationarityTest, error) {
	regression := r.Regression
	if regression == "" {
		regression = stats.RegressionConstant
	}
	switch r.Test {
	case "", "adf":
		switch regression {
		case stats.RegressionNone, stats.RegressionConstant, stats.RegressionConstantTrend:
		default:
			return nil, fmt.Errorf("adf regression %q: %w", regression, stats.ErrInvalidOption)
		}
		opts := stats.DefaultADFOptions()
		opts.Regression = regression
		return stats.ADFTest{Options: *opts}, nil
	case "kpss":
		if regression != stats.RegressionConstant && regression != stats.RegressionConstantTrend {
			return nil, fmt.Errorf("kpss regression %q: %w", regression, stats.ErrInvalidOption)
		}
		return stats.KPSSTest{Regression: regression}, nil
	}
	return stats.TestByName(r.Test)
}

// ReduceConfig builds the reducer configuration. Validate must have passed.
func (r ReduceSettings) ReduceConfig(logger *slog.Logger) *stats.ReduceConfig {
	test, err := r.test()
	if err != nil {
		test = stats.DefaultTest()
	}
	return &stats.ReduceConfig{
		MaxDiff:      r.MaxDiff,
		Significance: r.Significance,
		Test:         test,
		Logger:       logger,
	}
}

// ExpandPath expands a leading ~ and environment variables.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	path = os.ExpandEnv(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// ParseLevel maps a level name to a slog level. The empty name is info.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if name == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, err
	}
	return level, nil
}
