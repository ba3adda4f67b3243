package analytics

import (
	"fmt"
	"math"

	"github.com/xllucky21/xllucky/internal/domain/models"
	"github.com/xllucky21/xllucky/internal/services/indicators"
	"github.com/xllucky21/xllucky/pkg/util"
)

var bucketBounds = [][2]int{{0, 20}, {20, 40}, {40, 60}, {60, 80}, {80, 101}}

// BacktestScores re-scores every row using only data available at that row.
// Rows missing any technical input or the expanding percentile are NaN.
func BacktestScores(f *models.Frame, bt BacktestConfig, sc ScoreConfig, rc RegimeConfig) []float64 {
	y := f.Col(ColYield)
	ma := f.Col(ColMA)
	pct := indicators.ExpandingPercentile(y, bt.MinPeriods)
	scores := indicators.NaNs(f.Len())
	for i := 0; i < f.Len(); i++ {
		if !rowReady(f, i) || math.IsNaN(pct[i]) {
			continue
		}
		regime := DetectRegime(y, ma, i, rc)
		scores[i] = BondScore(FactorsAt(f, i, pct[i]), &regime, sc)
	}
	return scores
}

func rowReady(f *models.Frame, i int) bool {
	for _, c := range []string{ColYield, ColMA, ColMACD, ColSignalLine, ColRSI} {
		if math.IsNaN(f.At(c, i)) {
			return false
		}
	}
	return true
}

// RunBacktest buckets historical scores by the approximate bond return over
// the following Horizon rows and checks that higher buckets earned more.
func RunBacktest(f *models.Frame, bt BacktestConfig, sc ScoreConfig, rc RegimeConfig) models.Backtest {
	scores := BacktestScores(f, bt, sc, rc)
	y := f.Col(ColYield)
	h := bt.Horizon
	carry := bt.CarryRate * float64(h) / 252

	type acc struct {
		n       int
		ret, bp float64
	}
	sums := make([]acc, len(bucketBounds))
	history := make([]models.ScorePoint, 0, f.Len()/bt.sampleStep()+1)
	scored := 0

	for i, s := range scores {
		if math.IsNaN(s) {
			continue
		}
		if scored%bt.sampleStep() == 0 {
			history = append(history, models.ScorePoint{
				Date:  util.DateKey(f.Dates[i]),
				Yield: y[i],
				Score: s,
			})
		}
		scored++

		if i+h >= len(y) || math.IsNaN(y[i+h]) {
			continue
		}
		change := y[i] - y[i+h]
		duration := util.Clip(6+(y[i]-2)*2, bt.MinDuration, bt.MaxDuration)
		k := bucketOf(s)
		if k < 0 {
			continue
		}
		sums[k].n++
		sums[k].ret += duration*change + carry
		sums[k].bp += change * 100
	}

	out := models.Backtest{HorizonDays: h, ScoreHistory: history}
	var means []float64
	for k, b := range bucketBounds {
		bucket := models.BacktestBucket{MinScore: b[0], MaxScore: b[1], Count: sums[k].n}
		if b[1] > 100 {
			bucket.MaxScore = 100
		}
		if sums[k].n > 0 {
			ret := sums[k].ret / float64(sums[k].n)
			bp := sums[k].bp / float64(sums[k].n)
			bucket.AvgForwardReturn = &ret
			bucket.AvgForwardYieldChangeBP = &bp
			means = append(means, ret)
		}
		out.Buckets = append(out.Buckets, bucket)
	}

	var ok, total int
	out.IsMonotonic, out.MonotonicScore, ok, total = Monotonicity(means)
	if out.IsMonotonic {
		out.MonotonicMsg = "✅ 单调成立，分数可信"
	} else {
		out.MonotonicMsg = fmt.Sprintf("⚠️ 单调性破坏 (%d/%d)，建议审视因子", ok, total)
	}
	return out
}

// Monotonicity checks that each defined bucket mean is at most the next one.
// The score is the share of adjacent pairs that hold, 1.0 with no pairs.
func Monotonicity(means []float64) (monotonic bool, score float64, ok, total int) {
	for i := 0; i+1 < len(means); i++ {
		total++
		if means[i] <= means[i+1] {
			ok++
		}
	}
	if total == 0 {
		return true, 1.0, 0, 0
	}
	return ok == total, float64(ok) / float64(total), ok, total
}

func bucketOf(score float64) int {
	for k, b := range bucketBounds {
		if score >= float64(b[0]) && score < float64(b[1]) {
			return k
		}
	}
	return -1
}

func (c BacktestConfig) sampleStep() int {
	if c.SampleEvery <= 0 {
		return 1
	}
	return c.SampleEvery
}
