package frame

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrEmpty is returned by statistics that are undefined on empty input.
var ErrEmpty = errors.New("frame: no numeric values")

// Sum returns the sum of xs.
func Sum(xs []float64) float64 {
	return floats.Sum(xs)
}

// Mean returns the arithmetic mean of xs.
func Mean(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return 0, ErrEmpty
	}
	return stat.Mean(xs, nil), nil
}

// Median returns the median of xs without modifying it. Even-length input
// yields the mean of the two middle values.
func Median(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return 0, ErrEmpty
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	if len(sorted)%2 == 1 {
		return stat.Quantile(0.5, stat.Empirical, sorted, nil), nil
	}
	mid := len(sorted) / 2
	return stat.Mean(sorted[mid-1:mid+1], nil), nil
}

// StdDev returns the sample standard deviation of xs.
func StdDev(xs []float64) (float64, error) {
	if len(xs) < 2 {
		return 0, ErrEmpty
	}
	return stat.StdDev(xs, nil), nil
}

// Min returns the smallest value in xs.
func Min(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return 0, ErrEmpty
	}
	return floats.Min(xs), nil
}

// Max returns the largest value in xs.
func Max(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return 0, ErrEmpty
	}
	return floats.Max(xs), nil
}

// Round rounds x to the given number of decimal places.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// MovingAverage returns the trailing means of every full window of xs.
func MovingAverage(xs []float64, window int) ([]float64, error) {
	if window <= 0 || window > len(xs) {
		return nil, fmt.Errorf("frame: window %d out of range for %d values", window, len(xs))
	}
	out := make([]float64, 0, len(xs)-window+1)
	for i := window; i <= len(xs); i++ {
		out = append(out, stat.Mean(xs[i-window:i], nil))
	}
	return out, nil
}

// Correlation returns the Pearson correlation coefficient of xs and ys.
func Correlation(xs, ys []float64) (float64, error) {
	if len(xs) != len(ys) {
		return 0, fmt.Errorf("frame: correlation of %d and %d values", len(xs), len(ys))
	}
	if len(xs) < 2 {
		return 0, ErrEmpty
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, fmt.Errorf("frame: correlation undefined for constant input")
	}
	return r, nil
}
