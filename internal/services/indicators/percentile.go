package indicators

import (
	"math"
	"sort"
)

// PercentileOfScore is the "rank" percentile of score within values: the
// mean of the strict and weak percentiles, with ties counted once. NaN values
// are ignored; an empty sample yields NaN.
func PercentileOfScore(values []float64, score float64) float64 {
	if math.IsNaN(score) {
		return math.NaN()
	}
	var n, left, right int
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		n++
		if v < score {
			left++
		}
		if v <= score {
			right++
		}
	}
	return rankPercentile(left, right, n)
}

func rankPercentile(left, right, n int) float64 {
	if n == 0 {
		return math.NaN()
	}
	plus1 := 0
	if left < right {
		plus1 = 1
	}
	return float64(left+right+plus1) * 50 / float64(n)
}

// ExpandingPercentile scores every value against all observations up to and
// including itself. Rows with fewer than minPeriods observations are NaN, so
// no row ever sees later data.
func ExpandingPercentile(values []float64, minPeriods int) []float64 {
	out := NaNs(len(values))
	sorted := make([]float64, 0, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		pos := sort.SearchFloat64s(sorted, v)
		sorted = append(sorted, 0)
		copy(sorted[pos+1:], sorted[pos:])
		sorted[pos] = v
		if len(sorted) < minPeriods {
			continue
		}
		left := sort.SearchFloat64s(sorted, v)
		right := sort.Search(len(sorted), func(k int) bool { return sorted[k] > v })
		out[i] = rankPercentile(left, right, len(sorted))
	}
	return out
}
