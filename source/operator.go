package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/shopspring/decimal"

	"github.com/sartorproj/gasweather/timeseries"
)

var (
	// ErrSourceNotFound is returned when a configured input file does not exist.
	ErrSourceNotFound = errors.New("source file not found")
	// ErrUnknownOperator is returned for an operator without a built-in layout.
	ErrUnknownOperator = errors.New("unknown operator")
	// ErrMissingColumn is returned when the date column is absent from the header.
	ErrMissingColumn = errors.New("missing column")
	// ErrBadDate is returned when a date cell does not match the layout.
	ErrBadDate = errors.New("unparseable date")
)

// Operator identifies a German gas market area operator.
type Operator string

const (
	OperatorNCG     Operator = "ncg"     // NetConnect Germany, until 2021-09-30
	OperatorGaspool Operator = "gaspool" // GASPOOL, until 2021-09-30
	OperatorTHE     Operator = "the"     // Trading Hub Europe, from 2021-10-01
)

// Operators returns the known operators in merge order.
func Operators() []Operator {
	return []Operator{OperatorNCG, OperatorGaspool, OperatorTHE}
}

// Unit is the energy unit of an operator export.
type Unit string

const (
	UnitKWh Unit = "kWh"
	UnitMWh Unit = "MWh"
)

// OperatorSource describes the layout of one operator consumption export.
// Every row holds one gas day; all numeric columns are summed.
type OperatorSource struct {
	Path       string `yaml:"path"`
	DateColumn string `yaml:"date_column"`
	DateFormat string `yaml:"date_format"` // Go time layout
	Delimiter  string `yaml:"delimiter"`
	Thousands  string `yaml:"thousands"` // Stripped from numbers before parsing
	Unit       Unit   `yaml:"unit"`
}

var operatorDefaults = map[Operator]OperatorSource{
	OperatorNCG: {
		DateColumn: "DayOfUse",
		DateFormat: "02.01.2006",
		Delimiter:  ";",
		Unit:       UnitKWh,
	},
	OperatorGaspool: {
		DateColumn: "Datum",
		DateFormat: "02.01.2006",
		Delimiter:  ";",
		Unit:       UnitMWh,
	},
	OperatorTHE: {
		DateColumn: "Gasday",
		DateFormat: "02/01/2006",
		Delimiter:  ";",
		Thousands:  ",",
		Unit:       UnitKWh,
	},
}

// DefaultOperatorSource returns the built-in layout of op without a path.
func DefaultOperatorSource(op Operator) (OperatorSource, error) {
	src, ok := operatorDefaults[op]
	if !ok {
		return OperatorSource{}, fmt.Errorf("%q: %w", op, ErrUnknownOperator)
	}
	return src, nil
}

// WithDefaults fills empty layout fields from the built-in layout of op.
func (s OperatorSource) WithDefaults(op Operator) OperatorSource {
	def, ok := operatorDefaults[op]
	if !ok {
		return s
	}
	if s.DateColumn == "" {
		s.DateColumn = def.DateColumn
	}
	if s.DateFormat == "" {
		s.DateFormat = def.DateFormat
	}
	if s.Delimiter == "" {
		s.Delimiter = def.Delimiter
	}
	if s.Thousands == "" {
		s.Thousands = def.Thousands
	}
	if s.Unit == "" {
		s.Unit = def.Unit
	}
	return s
}

// missingValues are read as NaN.
var missingValues = []string{"", "NA", "NaN", "n/a", "-", "<nil>"}

// readTable parses a delimited table with every column kept as text.
func readTable(r io.Reader, delimiter string) (dataframe.DataFrame, error) {
	delim := ','
	if delimiter != "" {
		delim = []rune(delimiter)[0]
	}
	df := dataframe.ReadCSV(r,
		dataframe.WithDelimiter(delim),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(missingValues),
	)
	if df.Err != nil {
		return df, df.Err
	}
	return df, nil
}

// ReadOperator parses one operator export and returns the daily total in MWh,
// sorted by date. Numeric columns are those whose every present cell is a
// number once the thousands separator is removed; missing cells add nothing.
func ReadOperator(r io.Reader, name string, src OperatorSource) (*timeseries.Series, error) {
	df, err := readTable(r, src.Delimiter)
	if err != nil {
		return nil, fmt.Errorf("%s: read table: %w", name, err)
	}
	if !hasColumn(df.Names(), src.DateColumn) {
		return nil, fmt.Errorf("%s: %q: %w", name, src.DateColumn, ErrMissingColumn)
	}

	dates := df.Col(src.DateColumn)
	n := dates.Len()
	timestamps := make([]time.Time, n)
	for i := 0; i < n; i++ {
		cell := strings.TrimSpace(dates.Elem(i).String())
		ts, err := time.Parse(src.DateFormat, cell)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %q: %w", name, i+1, cell, ErrBadDate)
		}
		timestamps[i] = ts.UTC()
	}

	totals := make([]decimal.Decimal, n)
	for _, col := range df.Names() {
		if col == src.DateColumn {
			continue
		}
		cells, ok := numericColumn(df.Col(col), src.Thousands)
		if !ok {
			continue
		}
		for i, c := range cells {
			if c != nil {
				totals[i] = totals[i].Add(*c)
			}
		}
	}

	divisor := decimal.NewFromInt(1)
	if src.Unit == UnitKWh {
		divisor = decimal.NewFromInt(1000)
	}
	values := make([]float64, n)
	for i, total := range totals {
		values[i] = total.Div(divisor).InexactFloat64()
	}

	s, err := timeseries.NewWithTimestamps(timestamps, values)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	s.Name = name
	return s.Sort(), nil
}

// numericColumn parses every cell of col as a decimal. Missing cells are nil.
// ok is false when some present cell is not a number.
func numericColumn(col series.Series, thousands string) ([]*decimal.Decimal, bool) {
	out := make([]*decimal.Decimal, col.Len())
	for i := range out {
		elem := col.Elem(i)
		if elem.IsNA() {
			continue
		}
		cell := strings.TrimSpace(elem.String())
		if thousands != "" {
			cell = strings.ReplaceAll(cell, thousands, "")
		}
		d, err := decimal.NewFromString(cell)
		if err != nil {
			return nil, false
		}
		out[i] = &d
	}
	return out, true
}

func hasColumn(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// openSource opens path after an explicit existence check.
func openSource(path string) (*os.File, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrSourceNotFound)
		}
		return nil, err
	}
	return os.Open(path)
}

// LoadOperator reads the export of op described by src. Empty layout fields
// take the operator defaults.
func LoadOperator(op Operator, src OperatorSource) (*timeseries.Series, error) {
	if _, ok := operatorDefaults[op]; !ok {
		return nil, fmt.Errorf("%q: %w", op, ErrUnknownOperator)
	}
	src = src.WithDefaults(op)

	file, err := openSource(src.Path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ReadOperator(file, string(op), src)
}

// GasData holds daily consumption in MWh per operator and the combined
// German total.
type GasData struct {
	NCG     *timeseries.Series
	Gaspool *timeseries.Series
	THE     *timeseries.Series
	// Total is NCG + GASPOOL (a missing day counts as zero) followed by THE.
	Total *timeseries.Series
}

// LoadGas loads the three operator exports and builds the combined total.
// NCG and GASPOOL merged into THE on 2021-10-01, so the total is the sum of
// the two older areas followed by THE.
func LoadGas(sources map[Operator]OperatorSource) (*GasData, error) {
	loaded := make(map[Operator]*timeseries.Series, len(sources))
	for _, op := range Operators() {
		src, ok := sources[op]
		if !ok {
			return nil, fmt.Errorf("%s: no source configured: %w", op, ErrSourceNotFound)
		}
		s, err := LoadOperator(op, src)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", op, err)
		}
		loaded[op] = s
	}
	return CombineGas(loaded[OperatorNCG], loaded[OperatorGaspool], loaded[OperatorTHE]), nil
}

// CombineGas builds GasData from already loaded operator series.
func CombineGas(ncg, gaspool, the *timeseries.Series) *GasData {
	total := timeseries.Concat("total", ncg.Add(gaspool, 0), the)
	return &GasData{
		NCG:     ncg,
		Gaspool: gaspool,
		THE:     the,
		Total:   total,
	}
}

// SortedOperators returns the keys of sources in a stable order.
func SortedOperators(sources map[Operator]OperatorSource) []Operator {
	ops := make([]Operator, 0, len(sources))
	for op := range sources {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}
