package analytics

import (
	"math"

	"github.com/xllucky21/xllucky/internal/domain/models"
)

// UnknownRegime is returned when there is not enough history to judge.
func UnknownRegime() models.MarketRegime {
	return models.MarketRegime{Regime: models.RegimeUnknown, TrendWeight: 0.5}
}

// DetectRegime counts how many consecutive rows, ending at cur, sit on the
// same side of the moving average. Long runs mark an extended trend whose
// trend factor is faded out; short runs mean the series keeps crossing its
// average and the trend factor stays mostly intact.
func DetectRegime(values, ma []float64, cur int, cfg RegimeConfig) models.MarketRegime {
	if cur < 0 || cur >= len(values) || cur >= len(ma) || cur+1 < cfg.MAPeriod || math.IsNaN(ma[cur]) {
		return UnknownRegime()
	}

	above := values[cur] > ma[cur]
	stop := cur - cfg.Lookback
	if stop < 0 {
		stop = 0
	}
	days := 0
	for i := cur; i > stop; i-- {
		if math.IsNaN(ma[i]) || (values[i] > ma[i]) != above {
			break
		}
		days++
	}

	dir := models.DirectionBull
	if above {
		dir = models.DirectionBear
	}
	threshold := float64(cfg.ConsecutiveDays)
	r := models.MarketRegime{ConsecutiveDays: days, Direction: &dir}
	if days >= cfg.ConsecutiveDays {
		r.Regime = models.RegimeExtended
		r.TrendWeight = math.Max(0, 1-math.Min(1, (float64(days)-threshold)/threshold))
	} else {
		r.Regime = models.RegimeMeanReverting
		r.TrendWeight = 1 - float64(days)/threshold*0.3
	}
	return r
}

// RegimeMessage renders the regime as shown in the bond conclusion, e.g.
// "持续偏离(熊市, 连续52天)".
func RegimeMessage(r models.MarketRegime) string {
	kind := "均值回归"
	if r.Regime == models.RegimeExtended {
		kind = "持续偏离"
	}
	dir := "熊市"
	if r.Direction != nil && *r.Direction == models.DirectionBull {
		dir = "牛市"
	}
	return kind + "(" + dir + ", 连续" + itoa(r.ConsecutiveDays) + "天)"
}
