package timeseries

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrNoData is returned when a CSV source yields no rows.
var ErrNoData = errors.New("no valid data found in CSV")

// CSVOptions holds options for CSV loading.
type CSVOptions struct {
	DateColumn  string // Column name for dates (optional)
	ValueColumn string // Column name for values (default: "y")
	DateFormat  string // Date layout (default: "2006-01-02")
	HasHeader   bool   // Whether CSV has header row (default: true)
	Delimiter   rune   // Field delimiter (default: ',')
	SkipRows    int    // Number of rows to skip at start
}

// DefaultCSVOptions returns default options for CSV loading.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		ValueColumn: "y",
		DateFormat:  "2006-01-02",
		HasHeader:   true,
		Delimiter:   ',',
	}
}

// LoadCSV loads a time series from a CSV file.
func LoadCSV(filename string, opts *CSVOptions) (*Series, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadCSVFromReader(file, opts)
}

// LoadCSVFromReader loads a time series from an io.Reader. Empty and "NA"
// cells become NaN so the series keeps its length.
func LoadCSVFromReader(r io.Reader, opts *CSVOptions) (*Series, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}

	reader := csv.NewReader(r)
	reader.Comma = opts.Delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	for i := 0; i < opts.SkipRows; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, fmt.Errorf("skip row %d: %w", i+1, err)
		}
	}

	valueIdx, dateIdx := 1, 0
	if opts.HasHeader {
		header, err := reader.Read()
		if err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		valueIdx, dateIdx = -1, -1
		for i, h := range header {
			h = strings.TrimSpace(strings.Trim(h, "\""))
			switch {
			case h == opts.ValueColumn:
				valueIdx = i
			case opts.DateColumn != "" && h == opts.DateColumn:
				dateIdx = i
			case opts.DateColumn == "" && (h == "ds" || h == "date" || h == "Date" || h == "time"):
				if dateIdx == -1 {
					dateIdx = i
				}
			}
		}
		if valueIdx == -1 {
			valueIdx = len(header) - 1
		}
	}

	layout := opts.DateFormat
	if layout == "" {
		layout = "2006-01-02"
	}

	var values []float64
	var timestamps []time.Time
	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row++
		if valueIdx >= len(record) {
			continue
		}

		values = append(values, parseCell(record[valueIdx]))

		if dateIdx >= 0 && dateIdx < len(record) {
			dateStr := strings.TrimSpace(strings.Trim(record[dateIdx], "\""))
			ts, err := time.Parse(layout, dateStr)
			if err != nil {
				return nil, fmt.Errorf("row %d: parse date %q: %w", row, dateStr, err)
			}
			timestamps = append(timestamps, ts)
		}
	}

	if len(values) == 0 {
		return nil, ErrNoData
	}

	name := opts.ValueColumn
	if len(timestamps) == len(values) {
		return (&Series{
			Timestamps: timestamps,
			Values:     values,
			Name:       name,
		}).Sort(), nil
	}

	s := New(values)
	s.Name = name
	return s, nil
}

func parseCell(cell string) float64 {
	cell = strings.TrimSpace(strings.Trim(cell, "\""))
	switch cell {
	case "", "NA", "NaN", "nan", "null":
		return math.NaN()
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// LoadCSVColumn loads a specific column from a CSV file as a series.
func LoadCSVColumn(filename string, column string) (*Series, error) {
	opts := DefaultCSVOptions()
	opts.ValueColumn = column
	return LoadCSV(filename, opts)
}

// WriteCSV writes a frame with a leading date column formatted with layout.
// Missing values are written as empty cells.
func WriteCSV(w io.Writer, f *Frame, layout string) error {
	if layout == "" {
		layout = "2006-01-02"
	}
	bw := bufio.NewWriter(w)
	writer := csv.NewWriter(bw)

	names := f.Names()
	if err := writer.Write(append([]string{"Date"}, names...)); err != nil {
		return err
	}

	record := make([]string, len(names)+1)
	for i, ts := range f.Index {
		record[0] = ts.Format(layout)
		for j, name := range names {
			v, _ := f.Value(name, i)
			if math.IsNaN(v) {
				record[j+1] = ""
			} else {
				record[j+1] = strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return bw.Flush()
}

// SaveCSV writes a frame to a file, see WriteCSV.
func SaveCSV(f *Frame, filename, layout string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := WriteCSV(file, f, layout); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
