package analytics

import (
	"fmt"
	"time"

	"github.com/xllucky21/xllucky/internal/domain/models"
	"github.com/xllucky21/xllucky/internal/services/indicators"
	"github.com/xllucky21/xllucky/pkg/util"
)

const (
	percentileCheap     = 80
	percentileExpensive = 20
	erpCheapStocks      = 5.5
	erpBubble           = 2.0
	changeAlert         = 0.3
)

// CurrentPercentile ranks the newest yield against the trailing window of
// the given length in years (365-day years).
func CurrentPercentile(f *models.Frame, years int) float64 {
	n := f.Len()
	if n == 0 {
		return 0
	}
	from := f.Dates[n-1].Add(-time.Duration(years*365) * 24 * time.Hour)
	y := f.Col(ColYield)
	window := make([]float64, 0, n)
	for i, d := range f.Dates {
		if d.After(from) {
			window = append(window, y[i])
		}
	}
	return indicators.PercentileOfScore(window, y[n-1])
}

// ConcludeBond renders the status block for the newest row of f.
func ConcludeBond(f *models.Frame, percentile, score float64, regime models.MarketRegime) models.BondConclusion {
	i := f.Len() - 1
	y := f.At(ColYield, i)
	ma := f.At(ColMA, i)
	w := BondWeather(score)

	c := models.BondConclusion{
		LastDate:      util.DateKey(f.Dates[i]),
		LastYield:     y,
		Score:         score,
		Weather:       w.Label,
		Percentile:    percentile,
		ValStatus:     "⚖️ 适中",
		TrendVal:      "熊",
		TrendStatus:   "🔴 Yield > MA60",
		MACDVal:       "恶化",
		MACDStatus:    "🔴 金叉(涨)",
		RSI:           ptr(f.At(ColRSI, i)),
		PEVal:         "N/A",
		MacroMsg:      "⚪️ 缺失",
		ShiborVal:     "N/A",
		ShiborChange:  "N/A",
		LiquidityMsg:  "⚪️ 缺失",
		SpreadVal:     "N/A",
		SpreadChange:  "N/A",
		SpreadMsg:     "⚪️ 缺失",
		USYield:       "N/A",
		SuggestionCon: w.Conservative,
		SuggestionAgg: w.Aggressive,
		MarketRegime: models.BondRegimeView{
			Regime:          regime.Regime,
			RegimeMsg:       RegimeMessage(regime),
			ConsecutiveDays: regime.ConsecutiveDays,
			TrendWeight:     regime.TrendWeight,
			Direction:       regime.Direction,
		},
	}

	switch {
	case percentile < percentileExpensive:
		c.ValStatus = "🔴 极贵"
	case percentile > percentileCheap:
		c.ValStatus = "🟢 便宜"
	}

	if y < ma {
		c.TrendVal = "牛"
		c.TrendStatus = "🟢 Yield < MA60"
	}
	if f.At(ColMACD, i) < f.At(ColSignalLine, i) {
		c.MACDVal = "向好"
		c.MACDStatus = "🟢 死叉(跌)"
	}

	if pe := f.At(ColPE, i); isNum(pe) && pe > 0 {
		c.PEVal = fmt.Sprintf("PE=%.1f", pe)
		erp := ERP(pe, y)
		switch {
		case erp > erpCheapStocks:
			c.MacroMsg = fmt.Sprintf("⚠️ 股市极具性价比 (ERP=%.1f)", erp)
		case erp < erpBubble:
			c.MacroMsg = fmt.Sprintf("✅ 股市泡沫 (ERP=%.1f)", erp)
		default:
			c.MacroMsg = fmt.Sprintf("⚖️ 股债平衡 (ERP=%.1f)", erp)
		}
	}

	if shibor := f.At(ColShibor, i); isNum(shibor) && shibor > 0 {
		c.ShiborVal = fmt.Sprintf("%.2f%%", shibor)
		if chg := f.At(ColShiborChange, i); isNum(chg) {
			c.ShiborChange = fmt.Sprintf("%+.2f%%", chg)
			c.LiquidityMsg = changeMessage(chg, "🔥 资金收紧", "💧 资金宽松", "⚖️ 资金平稳")
		}
	}

	spread, us := f.At(ColSpread, i), f.At(ColUSYield, i)
	if isNum(spread) && isNum(us) {
		c.SpreadVal = fmt.Sprintf("%.2f%%", spread)
		c.USYield = fmt.Sprintf("%.2f%%", us)
		if chg := f.At(ColSpreadChange, i); isNum(chg) {
			c.SpreadChange = fmt.Sprintf("%+.2f%%", chg)
			c.SpreadMsg = changeMessage(chg, "✅ 利差收窄", "⚠️ 利差走阔", "⚖️ 利差平稳")
		}
	}
	return c
}

// changeMessage labels a percentage-point change, showing it in basis points.
func changeMessage(chg float64, up, down, flat string) string {
	label := flat
	switch {
	case chg > changeAlert:
		label = up
	case chg < -changeAlert:
		label = down
	}
	return fmt.Sprintf("%s (%+.0fbp)", label, chg*100)
}
