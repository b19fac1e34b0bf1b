package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/sartorproj/gasweather/source"
	"github.com/sartorproj/gasweather/stats"
)

const sampleYAML = `
operators:
  ncg:
    path: /data/nc_consumption.csv
  gaspool:
    path: /data/gaspool_consumption.csv
  the:
    path: $GASWEATHER_TEST_DIR/the_consumption.csv
    delimiter: ","
weather:
  path: ~/weather/open-meteo.csv
reduce:
  max_diff: 3
  significance: 0.01
  test: kpss
  regression: ct
output:
  dir: out
  xlsx: true
log:
  level: debug
`

func TestParse(t *testing.T) {
	t.Setenv("GASWEATHER_TEST_DIR", "/srv/gas")

	cfg, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	the := cfg.Operators[source.OperatorTHE]
	if the.Path != "/srv/gas/the_consumption.csv" {
		t.Errorf("env not expanded: %q", the.Path)
	}
	if the.Delimiter != "," || the.DateColumn != "Gasday" || the.Thousands != "," {
		t.Errorf("operator defaults not merged: %+v", the)
	}
	if ncg := cfg.Operators[source.OperatorNCG]; ncg.Unit != source.UnitKWh || ncg.DateFormat != "02.01.2006" {
		t.Errorf("ncg defaults not merged: %+v", ncg)
	}

	home, err := os.UserHomeDir()
	if err == nil {
		if want := filepath.Join(home, "weather/open-meteo.csv"); cfg.Weather.Path != want {
			t.Errorf("weather path = %q, want %q", cfg.Weather.Path, want)
		}
	}
	if cfg.Weather.SkipRows != 2 || cfg.Weather.DateColumn != "time" {
		t.Errorf("weather defaults not kept: %+v", cfg.Weather)
	}

	if cfg.Reduce.MaxDiff != 3 || cfg.Reduce.Significance != 0.01 {
		t.Errorf("reduce = %+v", cfg.Reduce)
	}
	if !cfg.Output.XLSX || !cfg.Output.Metrics || cfg.Output.DateLayout != "2006/01/02" {
		t.Errorf("output = %+v", cfg.Output)
	}

	rc := cfg.Reduce.ReduceConfig(slog.Default())
	kpss, ok := rc.Test.(stats.KPSSTest)
	if !ok || kpss.Regression != stats.RegressionConstantTrend {
		t.Errorf("expected a ct KPSS test, got %#v", rc.Test)
	}
	if rc.MaxDiff != 3 || rc.Significance != 0.01 || rc.Logger == nil {
		t.Errorf("reduce config = %+v", rc)
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
operators:
  ncg: {path: a.csv}
  gaspool: {path: b.csv}
  the: {path: c.csv}
weather: {path: w.csv}
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Reduce.MaxDiff != stats.DefaultMaxDiff || cfg.Reduce.Significance != stats.DefaultSignificance {
		t.Errorf("reduce defaults = %+v", cfg.Reduce)
	}
	if _, ok := cfg.Reduce.ReduceConfig(nil).Test.(stats.ADFTest); !ok {
		t.Error("default test should be ADF")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{"missing paths", `reduce: {max_diff: 2}`, ErrInvalid},
		{"negative max diff", `reduce: {max_diff: -1}`, stats.ErrInvalidMaxDiff},
		{"significance", `reduce: {significance: 1.5}`, stats.ErrInvalidSignificance},
		{"unknown test", `reduce: {test: pp}`, stats.ErrInvalidOption},
		{"kpss without constant", `reduce: {test: kpss, regression: n}`, stats.ErrInvalidOption},
		{"unknown operator", `operators: {eex: {path: x.csv}}`, source.ErrUnknownOperator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("validation errors should wrap ErrInvalid: %v", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gasweather.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected a not-exist error, got %v", err)
	}
	if _, err := Parse([]byte("reduce: [")); err == nil {
		t.Error("expected a YAML error")
	}
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]slog.Level{"": slog.LevelInfo, "debug": slog.LevelDebug, "WARN": slog.LevelWarn} {
		got, err := ParseLevel(name)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

func TestExampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "gasweather.example.yaml"))
	if err != nil {
		t.Fatalf("example config does not load: %v", err)
	}
	if len(cfg.Operators) != 3 || cfg.Weather.SkipRows != 2 || !cfg.Output.XLSX {
		t.Errorf("unexpected example config: %+v", cfg)
	}
}
