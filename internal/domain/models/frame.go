package models

import (
	"math"
	"sort"
	"time"
)

// Frame is a date-aligned table of float columns. The primary series fixes
// the date axis; every other column is aligned to it and NaN where absent.
type Frame struct {
	Dates []time.Time
	cols  map[string][]float64
	order []string
}

// NewFrame builds a frame whose axis and first column come from primary.
func NewFrame(name string, primary Series) *Frame {
	primary = primary.Normalize()
	f := &Frame{
		Dates: make([]time.Time, len(primary)),
		cols:  map[string][]float64{},
	}
	vals := make([]float64, len(primary))
	for i, p := range primary {
		f.Dates[i] = p.Date
		vals[i] = p.Value
	}
	f.Set(name, vals)
	return f
}

func (f *Frame) Len() int { return len(f.Dates) }

// Set stores a column. A column of the wrong length is padded or cut to the axis.
func (f *Frame) Set(name string, vals []float64) {
	if len(vals) != len(f.Dates) {
		fixed := nanSlice(len(f.Dates))
		copy(fixed, vals)
		vals = fixed
	}
	if _, ok := f.cols[name]; !ok {
		f.order = append(f.order, name)
	}
	f.cols[name] = vals
}

// Col returns the named column or nil.
func (f *Frame) Col(name string) []float64 { return f.cols[name] }

func (f *Frame) Has(name string) bool {
	_, ok := f.cols[name]
	return ok
}

// At returns the value at row i, NaN when the column or row is missing.
func (f *Frame) At(name string, i int) float64 {
	col, ok := f.cols[name]
	if !ok || i < 0 || i >= len(col) {
		return math.NaN()
	}
	return col[i]
}

// Columns lists column names in insertion order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Series extracts a column as a series, skipping NaN rows.
func (f *Frame) Series(name string) Series {
	col := f.cols[name]
	out := make(Series, 0, len(col))
	for i, v := range col {
		if math.IsNaN(v) {
			continue
		}
		out = append(out, Point{Date: f.Dates[i], Value: v})
	}
	return out
}

// JoinLeft aligns s onto the frame's axis by exact date. Dates missing from
// s become NaN until FFill runs.
func (f *Frame) JoinLeft(name string, s Series) {
	s = s.Normalize()
	vals := nanSlice(len(f.Dates))
	j := 0
	for i, d := range f.Dates {
		for j < len(s) && s[j].Date.Before(d) {
			j++
		}
		if j < len(s) && s[j].Date.Equal(d) {
			vals[i] = s[j].Value
		}
	}
	f.Set(name, vals)
}

// FFill carries the last observed value forward in every column.
func (f *Frame) FFill() {
	for _, name := range f.order {
		col := f.cols[name]
		last := math.NaN()
		for i, v := range col {
			if math.IsNaN(v) {
				col[i] = last
				continue
			}
			last = v
		}
	}
}

// IndexOnOrBefore returns the last row dated on or before d, or -1.
func (f *Frame) IndexOnOrBefore(d time.Time) int {
	i := sort.Search(len(f.Dates), func(i int) bool { return f.Dates[i].After(d) })
	return i - 1
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
