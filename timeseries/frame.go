package timeseries

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

var (
	// ErrUnknownColumn is returned when a frame has no column with the requested name.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrDuplicateColumn is returned when a column name is already taken.
	ErrDuplicateColumn = errors.New("duplicate column")
)

// JoinKind selects which timestamps survive an alignment.
type JoinKind int

const (
	// JoinOuter keeps the union of timestamps; absent values become NaN.
	JoinOuter JoinKind = iota
	// JoinInner keeps only timestamps present in every series.
	JoinInner
)

// Add returns s + other aligned on timestamps. The result covers the union of
// both indexes; a timestamp missing on one side contributes fill instead.
// Values that are NaN on one side are treated the same way.
func (s *Series) Add(other *Series, fill float64) *Series {
	left := indexValues(s)
	right := indexValues(other)

	keys := unionKeys(left, right)
	timestamps := make([]time.Time, len(keys))
	values := make([]float64, len(keys))
	for i, k := range keys {
		timestamps[i] = time.Unix(0, k).UTC()
		a, okA := left[k]
		b, okB := right[k]
		if !okA || math.IsNaN(a) {
			a = fill
		}
		if !okB || math.IsNaN(b) {
			b = fill
		}
		values[i] = a + b
	}

	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       s.Name,
	}
}

// Concat appends the given series in order and sorts the result by timestamp.
func Concat(name string, series ...*Series) *Series {
	out := &Series{Name: name}
	for _, s := range series {
		if s == nil {
			continue
		}
		out.Timestamps = append(out.Timestamps, s.Timestamps...)
		out.Values = append(out.Values, s.Values...)
	}
	return out.Sort()
}

// indexValues maps timestamps (as Unix nanoseconds) to values. Later
// duplicates overwrite earlier ones.
func indexValues(s *Series) map[int64]float64 {
	m := make(map[int64]float64, len(s.Values))
	for i, v := range s.Values {
		if i >= len(s.Timestamps) {
			break
		}
		m[s.Timestamps[i].UnixNano()] = v
	}
	return m
}

func unionKeys(maps ...map[int64]float64) []int64 {
	seen := make(map[int64]struct{})
	for _, m := range maps {
		for k := range m {
			seen[k] = struct{}{}
		}
	}
	keys := make([]int64, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Frame is a set of named float columns sharing one ascending date index.
type Frame struct {
	Index []time.Time
	names []string
	cols  map[string][]float64
}

// NewFrame creates an empty frame over the given index.
func NewFrame(index []time.Time) *Frame {
	idx := make([]time.Time, len(index))
	copy(idx, index)
	return &Frame{
		Index: idx,
		cols:  make(map[string][]float64),
	}
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.Index)
}

// Names returns the column names in insertion order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.names))
	copy(names, f.names)
	return names
}

// AddColumn appends a column. Its length must match the index.
func (f *Frame) AddColumn(name string, values []float64) error {
	if len(values) != len(f.Index) {
		return fmt.Errorf("column %q: %w", name, ErrLengthMismatch)
	}
	if _, ok := f.cols[name]; ok {
		return fmt.Errorf("column %q: %w", name, ErrDuplicateColumn)
	}
	col := make([]float64, len(values))
	copy(col, values)
	f.names = append(f.names, name)
	f.cols[name] = col
	return nil
}

// Column returns the named column as a series indexed by the frame dates.
func (f *Frame) Column(name string) (*Series, error) {
	col, ok := f.cols[name]
	if !ok {
		return nil, fmt.Errorf("column %q: %w", name, ErrUnknownColumn)
	}
	values := make([]float64, len(col))
	copy(values, col)
	timestamps := make([]time.Time, len(f.Index))
	copy(timestamps, f.Index)
	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       name,
	}, nil
}

// Value returns the cell at row i of the named column. It reports false,
// with a NaN cell, when the column is unknown or the row is out of range.
func (f *Frame) Value(name string, i int) (float64, bool) {
	col, ok := f.cols[name]
	if !ok || i < 0 || i >= len(col) {
		return math.NaN(), false
	}
	return col[i], true
}

// Rename changes a column name in place, keeping its position.
func (f *Frame) Rename(oldName, newName string) error {
	col, ok := f.cols[oldName]
	if !ok {
		return fmt.Errorf("column %q: %w", oldName, ErrUnknownColumn)
	}
	if oldName == newName {
		return nil
	}
	if _, ok := f.cols[newName]; ok {
		return fmt.Errorf("column %q: %w", newName, ErrDuplicateColumn)
	}
	delete(f.cols, oldName)
	f.cols[newName] = col
	for i, n := range f.names {
		if n == oldName {
			f.names[i] = newName
		}
	}
	return nil
}

// Align builds a frame from several series keyed by their timestamps. Each
// series becomes a column named after it; unnamed series get "series_<i>".
func Align(how JoinKind, series ...*Series) (*Frame, error) {
	maps := make([]map[int64]float64, len(series))
	for i, s := range series {
		maps[i] = indexValues(s)
	}

	var keys []int64
	switch how {
	case JoinInner:
		for _, k := range unionKeys(maps...) {
			inAll := true
			for _, m := range maps {
				if _, ok := m[k]; !ok {
					inAll = false
					break
				}
			}
			if inAll {
				keys = append(keys, k)
			}
		}
	default:
		keys = unionKeys(maps...)
	}

	index := make([]time.Time, len(keys))
	for i, k := range keys {
		index[i] = time.Unix(0, k).UTC()
	}
	frame := NewFrame(index)

	for i, s := range series {
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("series_%d", i)
		}
		col := make([]float64, len(keys))
		for j, k := range keys {
			v, ok := maps[i][k]
			if !ok {
				v = math.NaN()
			}
			col[j] = v
		}
		if err := frame.AddColumn(name, col); err != nil {
			return nil, err
		}
	}
	return frame, nil
}

// Join adds the columns of other to f, aligned on the index. Rows of f
// without a match in other receive NaN.
func (f *Frame) Join(other *Frame) error {
	pos := make(map[int64]int, len(other.Index))
	for i, t := range other.Index {
		pos[t.UnixNano()] = i
	}
	for _, name := range other.names {
		src := other.cols[name]
		col := make([]float64, len(f.Index))
		for i, t := range f.Index {
			if j, ok := pos[t.UnixNano()]; ok {
				col[i] = src[j]
			} else {
				col[i] = math.NaN()
			}
		}
		if err := f.AddColumn(name, col); err != nil {
			return err
		}
	}
	return nil
}
