// Package timeseries provides core time series data structures and operations.
package timeseries

import (
	"errors"
	"math"
	"sort"
	"time"
)

// ErrLengthMismatch is returned when timestamps and values differ in length.
var ErrLengthMismatch = errors.New("timestamps and values must have the same length")

// Series represents a time series with timestamps and values.
// Missing observations are stored as NaN.
type Series struct {
	Timestamps []time.Time
	Values     []float64
	Name       string
}

// New creates a new daily time series from values, starting at the Unix epoch.
func New(values []float64) *Series {
	timestamps := make([]time.Time, len(values))
	base := time.Unix(0, 0).UTC()
	for i := range timestamps {
		timestamps[i] = base.AddDate(0, 0, i)
	}
	return &Series{
		Timestamps: timestamps,
		Values:     values,
	}
}

// NewWithTimestamps creates a time series with explicit timestamps.
func NewWithTimestamps(timestamps []time.Time, values []float64) (*Series, error) {
	if len(timestamps) != len(values) {
		return nil, ErrLengthMismatch
	}
	return &Series{
		Timestamps: timestamps,
		Values:     values,
	}, nil
}

// Len returns the length of the series, missing values included.
func (s *Series) Len() int {
	return len(s.Values)
}

// CountValid returns the number of non-missing values.
func (s *Series) CountValid() int {
	n := 0
	for _, v := range s.Values {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// Mean calculates the arithmetic mean of the non-missing values.
func (s *Series) Mean() float64 {
	sum, n := 0.0, 0
	for _, v := range s.Values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Variance calculates the sample variance of the non-missing values.
func (s *Series) Variance() float64 {
	if s.CountValid() < 2 {
		return 0
	}
	mean := s.Mean()
	sumSq, n := 0.0, 0
	for _, v := range s.Values {
		if math.IsNaN(v) {
			continue
		}
		diff := v - mean
		sumSq += diff * diff
		n++
	}
	return sumSq / float64(n-1)
}

// Std calculates the standard deviation of the series.
func (s *Series) Std() float64 {
	return math.Sqrt(s.Variance())
}

// Min returns the minimum non-missing value, or NaN if there is none.
func (s *Series) Min() float64 {
	min := math.NaN()
	for _, v := range s.Values {
		if !math.IsNaN(v) && (math.IsNaN(min) || v < min) {
			min = v
		}
	}
	return min
}

// Max returns the maximum non-missing value, or NaN if there is none.
func (s *Series) Max() float64 {
	max := math.NaN()
	for _, v := range s.Values {
		if !math.IsNaN(v) && (math.IsNaN(max) || v > max) {
			max = v
		}
	}
	return max
}

// IsConstant reports whether all non-missing values are identical.
// A series without values is not constant.
func (s *Series) IsConstant() bool {
	min, max := s.Min(), s.Max()
	return !math.IsNaN(min) && min == max
}

// Diff calculates the first difference of the series. The result keeps the
// length of the input: the first position has no predecessor and is NaN.
func (s *Series) Diff() *Series {
	result := make([]float64, len(s.Values))
	for i := range s.Values {
		if i == 0 {
			result[i] = math.NaN()
			continue
		}
		result[i] = s.Values[i] - s.Values[i-1]
	}

	timestamps := make([]time.Time, len(s.Timestamps))
	copy(timestamps, s.Timestamps)

	return &Series{
		Timestamps: timestamps,
		Values:     result,
		Name:       s.Name + "_diff",
	}
}

// DiffN applies Diff n times. The first n positions are NaN.
func (s *Series) DiffN(n int) *Series {
	result := s.Copy()
	for i := 0; i < n; i++ {
		result = result.Diff()
	}
	return result
}

// DropNaN returns a copy of the series without missing observations.
func (s *Series) DropNaN() *Series {
	values := make([]float64, 0, len(s.Values))
	timestamps := make([]time.Time, 0, len(s.Values))
	withTime := len(s.Timestamps) == len(s.Values)
	for i, v := range s.Values {
		if math.IsNaN(v) {
			continue
		}
		values = append(values, v)
		if withTime {
			timestamps = append(timestamps, s.Timestamps[i])
		}
	}
	if !withTime {
		timestamps = nil
	}
	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       s.Name,
	}
}

// Slice returns a slice of the series from start to end (exclusive).
func (s *Series) Slice(start, end int) *Series {
	if start < 0 {
		start = 0
	}
	if end > len(s.Values) {
		end = len(s.Values)
	}
	if start >= end {
		return &Series{Values: []float64{}, Name: s.Name}
	}

	values := make([]float64, end-start)
	copy(values, s.Values[start:end])

	timestamps := make([]time.Time, len(values))
	if len(s.Timestamps) >= end {
		copy(timestamps, s.Timestamps[start:end])
	}

	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       s.Name,
	}
}

// Copy creates a deep copy of the series.
func (s *Series) Copy() *Series {
	values := make([]float64, len(s.Values))
	copy(values, s.Values)

	timestamps := make([]time.Time, len(s.Timestamps))
	copy(timestamps, s.Timestamps)

	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       s.Name,
	}
}

// Sort returns a copy ordered by timestamp. Equal timestamps keep their order.
func (s *Series) Sort() *Series {
	result := s.Copy()
	if len(result.Timestamps) != len(result.Values) {
		return result
	}
	sort.Stable(byTime{result})
	return result
}

type byTime struct{ s *Series }

func (b byTime) Len() int { return len(b.s.Values) }

func (b byTime) Less(i, j int) bool { return b.s.Timestamps[i].Before(b.s.Timestamps[j]) }

func (b byTime) Swap(i, j int) {
	b.s.Timestamps[i], b.s.Timestamps[j] = b.s.Timestamps[j], b.s.Timestamps[i]
	b.s.Values[i], b.s.Values[j] = b.s.Values[j], b.s.Values[i]
}
