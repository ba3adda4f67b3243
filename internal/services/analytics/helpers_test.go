package analytics

import (
	"time"

	"github.com/xllucky21/xllucky/internal/domain/models"
)

var day0 = time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)

func seriesOf(vals ...float64) models.Series {
	s := make(models.Series, len(vals))
	for i, v := range vals {
		s[i] = models.Point{Date: day0.AddDate(0, 0, i), Value: v}
	}
	return s
}

func flat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func f64(v float64) *float64 { return &v }
