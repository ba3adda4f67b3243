package analytics

import (
	"math"
	"strconv"
)

func itoa(n int) string { return strconv.Itoa(n) }

func clip1(v float64) float64 { return math.Max(-1, math.Min(1, v)) }

func clamp100(v float64) float64 { return math.Max(0, math.Min(100, v)) }

func isNum(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// ptr returns nil for NaN so missing values serialize as null.
func ptr(v float64) *float64 {
	if !isNum(v) {
		return nil
	}
	return &v
}
