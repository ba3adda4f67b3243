package analytics

import (
	"math"

	"github.com/xllucky21/xllucky/internal/domain/models"
	"github.com/xllucky21/xllucky/internal/services/indicators"
	"github.com/xllucky21/xllucky/pkg/util"
)

// Dividend index frame columns.
const (
	ColClose         = "close"
	ColMA20          = "MA20"
	ColPctChange     = "pct_change"
	ColPctChange5D   = "pct_change_5d"
	ColPctChange20D  = "pct_change_20d"
	ColDividendYield = "dividend_yield"
	ColBondYield     = "bond_yield"
	ColDYSpread      = "spread"
)

const (
	historyRows   = 2520
	historyStep   = 5
	rawTail       = 500
	trendDevScale = 10
	trendPoints   = 15
	rsiPoints     = 10
	spreadPoints  = 25
)

// DividendInputs are the series behind the dividend index analysis. Close
// is required; the others may be empty.
type DividendInputs struct {
	Close         models.Series
	DividendYield models.Series
	BondYield     models.Series
}

// BuildDividendFrame computes the index technicals, joins the dividend and
// bond yields, forward-fills and derives the yield spread.
func BuildDividendFrame(in DividendInputs, cfg DividendConfig) *models.Frame {
	f := models.NewFrame(ColClose, in.Close)
	c := f.Col(ColClose)
	f.Set(ColMA20, indicators.SMA(c, cfg.MAShort))
	f.Set(ColMA, indicators.SMA(c, cfg.MALong))
	f.Set(ColRSI, indicators.RSI(c, cfg.RSIPeriod))
	f.Set(ColPctChange, indicators.PctChange(c, 1))
	f.Set(ColPctChange5D, indicators.PctChange(c, 5))
	f.Set(ColPctChange20D, indicators.PctChange(c, 20))
	f.JoinLeft(ColDividendYield, in.DividendYield)
	f.JoinLeft(ColBondYield, in.BondYield)
	f.FFill()
	f.Set(ColDYSpread, indicators.Sub(f.Col(ColDividendYield), f.Col(ColBondYield)))
	return f
}

// DividendIndexScore scores the index in [0,100]. NaN inputs are skipped.
func DividendIndexScore(spread, maDeviation, rsi float64, cfg DividendConfig) float64 {
	score := cfg.Base
	if isNum(spread) {
		norm := clip1((spread - cfg.SpreadNeutral) / (cfg.SpreadVeryAttractive - cfg.SpreadNeutral))
		score += norm * spreadPoints * cfg.SpreadWeight * 2
	}

	trend := 0.0
	if isNum(maDeviation) {
		trend += clip1(-maDeviation/trendDevScale) * trendPoints
	}
	if isNum(rsi) {
		switch {
		case rsi < cfg.RSIOversold:
			trend += (cfg.RSIOversold - rsi) / 30 * rsiPoints
		case rsi > cfg.RSIOverbought:
			trend -= (rsi - cfg.RSIOverbought) / 30 * rsiPoints
		}
	}
	score += trend * cfg.TrendWeight * 2
	return clamp100(score)
}

func maDeviation(f *models.Frame, i int) float64 {
	ma := f.At(ColMA, i)
	if !isNum(ma) || ma <= 0 {
		return math.NaN()
	}
	return (f.At(ColClose, i) - ma) / ma * 100
}

func indexScoreAt(f *models.Frame, i int, cfg DividendConfig) float64 {
	return DividendIndexScore(f.At(ColDYSpread, i), maDeviation(f, i), f.At(ColRSI, i), cfg)
}

// SpreadStatus labels the dividend-yield minus bond-yield spread.
func SpreadStatus(spread float64, cfg DividendConfig) string {
	switch {
	case !isNum(spread):
		return "⚖️ 中性"
	case spread >= cfg.SpreadVeryAttractive:
		return "🟢 极具吸引力"
	case spread >= cfg.SpreadAttractive:
		return "🟢 有吸引力"
	case spread <= cfg.SpreadUnattractive:
		return "🔴 缺乏吸引力"
	}
	return "⚖️ 中性"
}

// TrendStatus reports moving-average alignment.
func TrendStatus(close, ma20, ma60 float64) string {
	if !isNum(ma20) || !isNum(ma60) {
		return "⚖️ 震荡"
	}
	switch {
	case close > ma20 && ma20 > ma60:
		return "🟢 多头排列"
	case close < ma20 && ma20 < ma60:
		return "🔴 空头排列"
	}
	return "⚖️ 震荡"
}

// AnalyzeIndex scores the newest row, samples the score history and keeps a
// raw tail for charts. It returns nil for an empty frame.
func AnalyzeIndex(f *models.Frame, bondHistory models.Series, cfg DividendConfig) *models.IndexAnalysis {
	n := f.Len()
	if n == 0 {
		return nil
	}
	i := n - 1
	score := indexScoreAt(f, i, cfg)
	w := DividendWeather(score)
	spread := f.At(ColDYSpread, i)

	out := &models.IndexAnalysis{
		Conclusion: models.IndexConclusion{
			LastDate:      util.DateKey(f.Dates[i]),
			LastClose:     f.At(ColClose, i),
			Score:         score,
			Weather:       w.Label,
			Signal:        w.Signal,
			DividendYield: ptr(f.At(ColDividendYield, i)),
			BondYield:     ptr(f.At(ColBondYield, i)),
			Spread:        ptr(spread),
			SpreadStatus:  SpreadStatus(spread, cfg),
			TrendStatus:   TrendStatus(f.At(ColClose, i), f.At(ColMA20, i), f.At(ColMA, i)),
			MADeviation:   ptr(maDeviation(f, i)),
			RSI:           ptr(f.At(ColRSI, i)),
			PctChange5D:   ptr(f.At(ColPctChange5D, i)),
			PctChange20D:  ptr(f.At(ColPctChange20D, i)),
			SuggestionCon: w.Conservative,
			SuggestionAgg: w.Aggressive,
		},
	}

	start := n - historyRows
	if start < 0 {
		start = 0
	}
	for k := start; k < n; k += historyStep {
		if !isNum(f.At(ColClose, k)) {
			continue
		}
		out.ScoreHistory = append(out.ScoreHistory, models.IndexScorePoint{
			Date:  util.DateKey(f.Dates[k]),
			Score: util.Round(indexScoreAt(f, k, cfg), 1),
			Close: util.Round(f.At(ColClose, k), 2),
		})
	}

	raw := &models.IndexRaw{Index: []models.Record{}, Bond: bondHistory.Tail(rawTail).Records(ColBondYield)}
	from := n - rawTail
	if from < 0 {
		from = 0
	}
	for k := from; k < n; k++ {
		raw.Index = append(raw.Index, models.Record{
			"date":       util.DateKey(f.Dates[k]),
			ColClose:     f.At(ColClose, k),
			ColMA20:      nullable(f.At(ColMA20, k)),
			ColMA:        nullable(f.At(ColMA, k)),
			ColRSI:       nullable(f.At(ColRSI, k)),
			ColPctChange: nullable(f.At(ColPctChange, k)),
		})
	}
	out.Raw = raw
	return out
}

// nullable maps NaN to a JSON null.
func nullable(v float64) interface{} {
	if !isNum(v) {
		return nil
	}
	return v
}
