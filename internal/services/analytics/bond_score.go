package analytics

import (
	"math"

	"github.com/xllucky21/xllucky/internal/domain/models"
)

// BondFactors is one row of scorer input. NaN marks a missing factor, which
// then contributes nothing.
type BondFactors struct {
	Yield           float64
	MA              float64
	RSI             float64
	Percentile      float64
	ShiborChange    float64
	ShiborChangeStd float64
	ERP             float64
	SpreadChange    float64
	SpreadChangeStd float64
}

// MissingFactors returns factors with every field NaN.
func MissingFactors() BondFactors {
	n := math.NaN()
	return BondFactors{n, n, n, n, n, n, n, n, n}
}

// BondScore is the composite buy score in [0,100]. High means bonds are cheap.
// A nil regime leaves the trend and RSI terms at full weight.
func BondScore(f BondFactors, regime *models.MarketRegime, cfg ScoreConfig) float64 {
	score := cfg.Base

	tw := 1.0
	extendedBear, extendedBull := false, false
	if regime != nil {
		tw = regime.TrendWeight
		extendedBear = regime.Is(models.RegimeExtended, models.DirectionBear)
		extendedBull = regime.Is(models.RegimeExtended, models.DirectionBull)
	}

	if isNum(f.Percentile) {
		score += (f.Percentile - 50) * cfg.PercentileWeight
	}

	if isNum(f.MA) && f.MA > 0 && isNum(f.Yield) {
		dev := (f.Yield - f.MA) / f.MA * 100
		norm := clip1(dev / cfg.TrendDeviationCap)
		extra := 1.0
		if extendedBear {
			// trend and valuation point the same way in a rising-yield run
			extra = cfg.ExtendedBearTrend
		}
		score += norm * cfg.TrendBonus * tw * extra
	}

	if isNum(f.RSI) {
		bonus := (f.RSI - 50) / 50 * cfg.RSIBonus * tw
		if extendedBull {
			bonus *= cfg.ExtendedBullRSI
		}
		score += bonus
	}

	if isNum(f.ShiborChange) {
		var norm float64
		if isNum(f.ShiborChangeStd) && f.ShiborChangeStd > 0 {
			norm = clip1(f.ShiborChange / f.ShiborChangeStd / 2)
		} else {
			norm = clip1(f.ShiborChange / cfg.ShiborMaxChange)
		}
		score += -norm * cfg.LiquidityPenalty
	}

	if isNum(f.ERP) {
		switch {
		case f.ERP < cfg.ERPLow:
			score += cfg.ERPLowBonus
		case f.ERP > cfg.ERPHigh:
			score -= cfg.ERPHighPenalty
		}
	}

	if isNum(f.SpreadChange) {
		var norm float64
		if isNum(f.SpreadChangeStd) && f.SpreadChangeStd > 0 {
			norm = clip1(f.SpreadChange / f.SpreadChangeStd / 2)
		} else {
			norm = clip1(f.SpreadChange / cfg.SpreadMaxChange)
		}
		score += norm * cfg.LiquidityPenalty
	}

	return clamp100(score)
}

// ERP is the equity risk premium 100/pe - yield, NaN when pe is not positive.
func ERP(pe, yield float64) float64 {
	if !isNum(pe) || pe <= 0 || !isNum(yield) {
		return math.NaN()
	}
	return 100/pe - yield
}
