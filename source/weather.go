package source

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sartorproj/gasweather/timeseries"
)

// Column names of the Open-Meteo daily archive export.
const (
	SunshineSeconds = "sunshine_duration (s)"
	SunshineHours   = "sunshine_duration (h)"
)

// WeatherSource describes an Open-Meteo archive CSV. The file starts with a
// location preamble of SkipRows lines, then a blank line and the table.
type WeatherSource struct {
	Path       string `yaml:"path"`
	SkipRows   int    `yaml:"skip_rows"`
	Delimiter  string `yaml:"delimiter"`
	DateColumn string `yaml:"date_column"`
}

// DefaultWeatherSource returns the Open-Meteo layout without a path.
func DefaultWeatherSource() WeatherSource {
	return WeatherSource{
		SkipRows:   2,
		Delimiter:  ",",
		DateColumn: "time",
	}
}

// WithDefaults fills the empty delimiter and date column. SkipRows is kept as
// given since zero is a valid value.
func (s WeatherSource) WithDefaults() WeatherSource {
	def := DefaultWeatherSource()
	if s.Delimiter == "" {
		s.Delimiter = def.Delimiter
	}
	if s.DateColumn == "" {
		s.DateColumn = def.DateColumn
	}
	return s
}

var weatherLayouts = []string{"2006-01-02", "2006-01-02T15:04", time.RFC3339}

// ReadWeather parses an Open-Meteo export into a frame indexed by day.
// Sunshine duration is converted from seconds to hours; every other column is
// kept as is, with unparseable cells as NaN.
func ReadWeather(r io.Reader, src WeatherSource) (*timeseries.Frame, error) {
	table, err := skipPreamble(r, src.SkipRows)
	if err != nil {
		return nil, fmt.Errorf("weather: %w", err)
	}
	df, err := readTable(table, src.Delimiter)
	if err != nil {
		return nil, fmt.Errorf("weather: read table: %w", err)
	}
	if !hasColumn(df.Names(), src.DateColumn) {
		return nil, fmt.Errorf("weather: %q: %w", src.DateColumn, ErrMissingColumn)
	}

	dates := df.Col(src.DateColumn)
	index := make([]time.Time, dates.Len())
	for i := range index {
		cell := strings.TrimSpace(dates.Elem(i).String())
		ts, err := parseDay(cell)
		if err != nil {
			return nil, fmt.Errorf("weather: row %d: %q: %w", i+1, cell, ErrBadDate)
		}
		index[i] = ts
	}

	frame := timeseries.NewFrame(index)
	for _, name := range df.Names() {
		if name == src.DateColumn {
			continue
		}
		col := df.Col(name)
		values := make([]float64, col.Len())
		for i := range values {
			values[i] = math.NaN()
			elem := col.Elem(i)
			if elem.IsNA() {
				continue
			}
			d, err := decimal.NewFromString(strings.TrimSpace(elem.String()))
			if err != nil {
				continue
			}
			if name == SunshineSeconds {
				d = d.Div(decimal.NewFromInt(3600))
			}
			values[i] = d.InexactFloat64()
		}
		if err := frame.AddColumn(name, values); err != nil {
			return nil, fmt.Errorf("weather: %w", err)
		}
	}
	if _, err := frame.Column(SunshineSeconds); err == nil {
		if err := frame.Rename(SunshineSeconds, SunshineHours); err != nil {
			return nil, fmt.Errorf("weather: %w", err)
		}
	}
	return frame, nil
}

// LoadWeather reads the export described by src.
func LoadWeather(src WeatherSource) (*timeseries.Frame, error) {
	src = src.WithDefaults()
	file, err := openSource(src.Path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadWeather(file, src)
}

// skipPreamble drops the first n lines and any blank lines before the header.
func skipPreamble(r io.Reader, n int) (io.Reader, error) {
	br := bufio.NewReader(r)
	for i := 0; i < n; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("preamble shorter than %d lines: %w", n, timeseries.ErrNoData)
			}
			return nil, err
		}
	}
	for {
		peek, err := br.Peek(1)
		if err != nil {
			return nil, fmt.Errorf("no table after preamble: %w", timeseries.ErrNoData)
		}
		if peek[0] != '\n' && peek[0] != '\r' {
			break
		}
		if _, err := br.ReadByte(); err != nil {
			return nil, err
		}
	}
	rest, err := io.ReadAll(br)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(rest), nil
}

// parseDay parses an ISO date or timestamp and truncates it to the day.
func parseDay(cell string) (time.Time, error) {
	var lastErr error
	for _, layout := range weatherLayouts {
		ts, err := time.Parse(layout, cell)
		if err == nil {
			y, m, d := ts.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
