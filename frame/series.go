package frame

import (
	"fmt"
	"strconv"
)

// Series is a one-dimensional labeled sequence. Index is optional; when
// present it has the same length as Values.
type Series struct {
	Name   string   `json:"name"`
	Index  []string `json:"index,omitempty"`
	Values []any    `json:"values"`
}

// NewSeries creates a series. A non-nil index must match values in length.
func NewSeries(name string, values []any, index []string) (*Series, error) {
	if index != nil && len(index) != len(values) {
		return nil, fmt.Errorf("frame: series %q has %d labels for %d values", name, len(index), len(values))
	}
	return &Series{Name: name, Index: index, Values: values}, nil
}

// Len returns the number of values.
func (s *Series) Len() int {
	return len(s.Values)
}

// Label returns the label of position i, falling back to the position
// itself when the series has no index.
func (s *Series) Label(i int) string {
	if i < len(s.Index) {
		return s.Index[i]
	}
	return strconv.Itoa(i)
}

// Get returns the value stored under label.
func (s *Series) Get(label string) (any, error) {
	for i := range s.Values {
		if s.Label(i) == label {
			return s.Values[i], nil
		}
	}
	return nil, fmt.Errorf("frame: series %q has no label %q", s.Name, label)
}

// Floats returns the numeric values of the series.
func (s *Series) Floats() []float64 {
	return Floats(s.Values)
}

// Sum returns the sum of the numeric values.
func (s *Series) Sum() float64 {
	return Sum(s.Floats())
}

// Mean returns the mean of the numeric values.
func (s *Series) Mean() (float64, error) {
	return Mean(s.Floats())
}

// Median returns the median of the numeric values.
func (s *Series) Median() (float64, error) {
	return Median(s.Floats())
}

// Std returns the sample standard deviation of the numeric values.
func (s *Series) Std() (float64, error) {
	return StdDev(s.Floats())
}

// Min returns the smallest numeric value.
func (s *Series) Min() (float64, error) {
	return Min(s.Floats())
}

// Max returns the largest numeric value.
func (s *Series) Max() (float64, error) {
	return Max(s.Floats())
}

// Head returns a series holding the first n values.
func (s *Series) Head(n int) *Series {
	if n < 0 || n > len(s.Values) {
		n = len(s.Values)
	}
	out := &Series{Name: s.Name, Values: append([]any(nil), s.Values[:n]...)}
	if s.Index != nil {
		out.Index = append([]string(nil), s.Index[:n]...)
	}
	return out
}

// PctChange returns the fractional change between consecutive values.
// The first position, and any position whose predecessor is zero or not
// numeric, holds nil.
func (s *Series) PctChange() *Series {
	out := &Series{Name: s.Name, Index: s.Index, Values: make([]any, len(s.Values))}
	for i := 1; i < len(s.Values); i++ {
		prev, okPrev := ParseFloat(s.Values[i-1])
		cur, okCur := ParseFloat(s.Values[i])
		if !okPrev || !okCur || prev == 0 {
			continue
		}
		out.Values[i] = (cur - prev) / prev
	}
	return out
}

// ToMap returns the series as a label to value mapping.
func (s *Series) ToMap() map[string]any {
	out := make(map[string]any, len(s.Values))
	for i, v := range s.Values {
		out[s.Label(i)] = v
	}
	return out
}
