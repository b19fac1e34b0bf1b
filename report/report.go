// Package report exports aligned series and their stationarity summaries.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/sartorproj/gasweather/stats"
	"github.com/sartorproj/gasweather/timeseries"
)

// Sheet names of the XLSX workbook.
const (
	SeriesSheet       = "series"
	StationaritySheet = "stationarity"
)

// Entry summarizes the reduction of one named series.
type Entry struct {
	Series     string
	Test       string
	Diffs      int
	Stationary bool
	Capped     bool
	Degenerate bool
	Statistic  float64
	PValue     float64
	NObs       int
	ACF1       float64 // Lag-1 autocorrelation of the reduced series
	LjungBoxP  float64
}

// Summarize builds the report entry for a reduction.
func Summarize(name string, r *stats.Reduction) Entry {
	e := Entry{
		Series:     name,
		Diffs:      r.Diffs,
		Stationary: r.Stationary,
		Capped:     r.Capped,
		Statistic:  math.NaN(),
		PValue:     math.NaN(),
		ACF1:       math.NaN(),
		LjungBoxP:  math.NaN(),
	}
	if v := r.Last(); v != nil {
		e.Test = v.Test
		e.Degenerate = v.Degenerate
		e.Statistic = v.Statistic
		e.PValue = v.PValue
		e.NObs = v.NObs
	}
	if r.Series != nil {
		d := stats.Diagnose(r.Series)
		e.ACF1 = d.ACF1
		if d.LjungBox != nil {
			e.LjungBoxP = d.LjungBox.PValue
		}
	}
	return e
}

var summaryHeader = []interface{}{
	"series", "test", "diffs", "stationary", "capped", "degenerate",
	"statistic", "p_value", "nobs", "acf1", "ljung_box_p",
}

// WriteXLSX writes a workbook with the aligned frame on one sheet and the
// stationarity summary on another. Missing values are left blank.
func WriteXLSX(w io.Writer, frame *timeseries.Frame, entries []Entry, layout string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SeriesSheet); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	if _, err := f.NewSheet(StationaritySheet); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}

	names := frame.Names()
	header := make([]interface{}, 0, len(names)+1)
	header = append(header, "Date")
	for _, n := range names {
		header = append(header, n)
	}
	if err := f.SetSheetRow(SeriesSheet, "A1", &header); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	for i, ts := range frame.Index {
		row := make([]interface{}, 0, len(names)+1)
		row = append(row, ts.Format(layout))
		for _, n := range names {
			v, _ := frame.Value(n, i)
			row = append(row, cell(v))
		}
		if err := setRow(f, SeriesSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SetSheetRow(StationaritySheet, "A1", &summaryHeader); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	for i, e := range entries {
		row := []interface{}{
			e.Series, e.Test, e.Diffs, e.Stationary, e.Capped, e.Degenerate,
			cell(e.Statistic), cell(e.PValue), e.NObs, cell(e.ACF1), cell(e.LjungBoxP),
		}
		if err := setRow(f, StationaritySheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx: write: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	ref, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	if err := f.SetSheetRow(sheet, ref, &values); err != nil {
		return fmt.Errorf("xlsx: %s!%s: %w", sheet, ref, err)
	}
	return nil
}

// cell maps NaN and infinities to an empty cell.
func cell(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

// Summary is the JSON document written by WriteJSON.
type Summary struct {
	Generated time.Time   `json:"generated"`
	Series    []jsonEntry `json:"series"`
}

type jsonEntry struct {
	Series     string   `json:"series"`
	Test       string   `json:"test"`
	Diffs      int      `json:"diffs"`
	Stationary bool     `json:"stationary"`
	Capped     bool     `json:"capped"`
	Degenerate bool     `json:"degenerate,omitempty"`
	Statistic  *float64 `json:"statistic"`
	PValue     *float64 `json:"p_value"`
	NObs       int      `json:"nobs"`
	ACF1       *float64 `json:"acf1"`
	LjungBoxP  *float64 `json:"ljung_box_p"`
}

// finite returns nil for values JSON cannot carry.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// WriteJSON writes the summary as indented JSON. Non-finite numbers become null.
func WriteJSON(w io.Writer, generated time.Time, entries []Entry) error {
	doc := Summary{Generated: generated.UTC(), Series: make([]jsonEntry, len(entries))}
	for i, e := range entries {
		doc.Series[i] = jsonEntry{
			Series:     e.Series,
			Test:       e.Test,
			Diffs:      e.Diffs,
			Stationary: e.Stationary,
			Capped:     e.Capped,
			Degenerate: e.Degenerate,
			Statistic:  finite(e.Statistic),
			PValue:     finite(e.PValue),
			NObs:       e.NObs,
			ACF1:       finite(e.ACF1),
			LjungBoxP:  finite(e.LjungBoxP),
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("json: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
