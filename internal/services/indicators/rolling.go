// Package indicators computes the technical series the scorers consume.
// Every function returns a slice aligned with its input; positions without
// enough history are NaN.
package indicators

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// NaNs returns n NaN values.
func NaNs(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func window(values []float64, end, period int) ([]float64, bool) {
	if period <= 0 || end+1 < period {
		return nil, false
	}
	w := values[end+1-period : end+1]
	for _, v := range w {
		if math.IsNaN(v) {
			return nil, false
		}
	}
	return w, true
}

// SMA is the rolling arithmetic mean. A window holding a NaN yields NaN.
func SMA(values []float64, period int) []float64 {
	out := NaNs(len(values))
	for i := range values {
		if w, ok := window(values, i, period); ok {
			out[i] = stat.Mean(w, nil)
		}
	}
	return out
}

// RollingStd is the rolling sample standard deviation (ddof=1).
func RollingStd(values []float64, period int) []float64 {
	out := NaNs(len(values))
	if period < 2 {
		return out
	}
	for i := range values {
		if w, ok := window(values, i, period); ok {
			out[i] = stat.StdDev(w, nil)
		}
	}
	return out
}

// Diff returns values[i] - values[i-n].
func Diff(values []float64, n int) []float64 {
	out := NaNs(len(values))
	for i := n; i < len(values); i++ {
		out[i] = values[i] - values[i-n]
	}
	return out
}

// PctChange returns the n-period percent change, already multiplied by 100.
func PctChange(values []float64, n int) []float64 {
	out := NaNs(len(values))
	for i := n; i < len(values); i++ {
		prev := values[i-n]
		if prev == 0 || math.IsNaN(prev) {
			continue
		}
		out[i] = (values[i] - prev) / prev * 100
	}
	return out
}

// Shift moves values n positions later; a negative n looks ahead.
func Shift(values []float64, n int) []float64 {
	out := NaNs(len(values))
	for i := range values {
		j := i - n
		if j >= 0 && j < len(values) {
			out[i] = values[j]
		}
	}
	return out
}

// Sub is the element-wise difference a - b.
func Sub(a, b []float64) []float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	out := NaNs(len(a))
	for i := 0; i < n; i++ {
		out[i] = a[i] - b[i]
	}
	return out
}
