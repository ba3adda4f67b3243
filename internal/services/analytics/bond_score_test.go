package analytics

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xllucky21/xllucky/internal/domain/models"
)

func TestBondScore_PercentileOnly(t *testing.T) {
	f := MissingFactors()
	f.Percentile = 90
	assert.InDelta(t, 74.0, BondScore(f, nil, DefaultScoreConfig()), 1e-12)

	f.Percentile = 50
	assert.InDelta(t, 50.0, BondScore(f, nil, DefaultScoreConfig()), 1e-12)
}

func TestBondScore_AllMissingIsBase(t *testing.T) {
	assert.Equal(t, 50.0, BondScore(MissingFactors(), nil, DefaultScoreConfig()))
}

func TestBondScore_BoundsAndDeterminism(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	cfg := DefaultScoreConfig()
	pick := func(lo, hi float64) float64 {
		if rng.Intn(6) == 0 {
			return math.NaN()
		}
		return lo + rng.Float64()*(hi-lo)
	}
	kinds := []models.RegimeKind{models.RegimeExtended, models.RegimeMeanReverting, models.RegimeUnknown}
	for i := 0; i < 2000; i++ {
		f := BondFactors{
			Yield:           pick(0.5, 6),
			MA:              pick(0.5, 6),
			RSI:             pick(0, 100),
			Percentile:      pick(0, 100),
			ShiborChange:    pick(-3, 3),
			ShiborChangeStd: pick(-0.1, 1),
			ERP:             pick(-5, 15),
			SpreadChange:    pick(-3, 3),
			SpreadChangeStd: pick(-0.1, 1),
		}
		dir := models.DirectionBull
		if rng.Intn(2) == 0 {
			dir = models.DirectionBear
		}
		regime := &models.MarketRegime{Regime: kinds[rng.Intn(3)], TrendWeight: rng.Float64(), Direction: &dir}

		a := BondScore(f, regime, cfg)
		b := BondScore(f, regime, cfg)
		assert.GreaterOrEqual(t, a, 0.0)
		assert.LessOrEqual(t, a, 100.0)
		assert.Equal(t, a, b)
	}
}

func TestBondScore_TrendTerm(t *testing.T) {
	cfg := DefaultScoreConfig()
	f := MissingFactors()
	f.Yield, f.MA = 2.75, 2.5 // +10% deviation, clipped to 1

	assert.InDelta(t, 58.0, BondScore(f, nil, cfg), 1e-12)

	bear := models.DirectionBear
	ext := &models.MarketRegime{Regime: models.RegimeExtended, TrendWeight: 0.5, Direction: &bear}
	assert.InDelta(t, 50+8*0.5*0.3, BondScore(f, ext, cfg), 1e-12)
}

func TestBondScore_RSIHalvedInExtendedBull(t *testing.T) {
	cfg := DefaultScoreConfig()
	f := MissingFactors()
	f.RSI = 100
	bull := models.DirectionBull
	mr := &models.MarketRegime{Regime: models.RegimeMeanReverting, TrendWeight: 1, Direction: &bull}
	ext := &models.MarketRegime{Regime: models.RegimeExtended, TrendWeight: 1, Direction: &bull}
	assert.InDelta(t, 56.0, BondScore(f, mr, cfg), 1e-12)
	assert.InDelta(t, 53.0, BondScore(f, ext, cfg), 1e-12)
}

func TestBondScore_LiquidityPaths(t *testing.T) {
	cfg := DefaultScoreConfig()

	f := MissingFactors()
	f.ShiborChange = 0.25 // fallback path: 0.25/0.5 = 0.5
	assert.InDelta(t, 46.0, BondScore(f, nil, cfg), 1e-12)

	f.ShiborChangeStd = 0.25 // z path: 0.25/0.25/2 = 0.5
	assert.InDelta(t, 46.0, BondScore(f, nil, cfg), 1e-12)

	g := MissingFactors()
	g.SpreadChange = 1.0
	assert.InDelta(t, 58.0, BondScore(g, nil, cfg), 1e-12)
	g.SpreadChangeStd = 1.0
	assert.InDelta(t, 54.0, BondScore(g, nil, cfg), 1e-12)
}

func TestBondScore_TighteningLowersScoreOnBothPaths(t *testing.T) {
	cfg := DefaultScoreConfig()
	for _, std := range []float64{0.2, 0, math.NaN()} {
		f := MissingFactors()
		f.ShiborChange = 0.4
		f.ShiborChangeStd = std
		tight := BondScore(f, nil, cfg)
		assert.Less(t, tight, 50.0, "std=%v", std)

		f.ShiborChange = -0.4
		assert.Greater(t, BondScore(f, nil, cfg), 50.0, "std=%v", std)
	}
}

func TestBondScore_ERPSteps(t *testing.T) {
	cfg := DefaultScoreConfig()
	f := MissingFactors()
	f.ERP = 1.0
	assert.Equal(t, 55.0, BondScore(f, nil, cfg))
	f.ERP = 4.0
	assert.Equal(t, 50.0, BondScore(f, nil, cfg))
	f.ERP = 7.0
	assert.Equal(t, 40.0, BondScore(f, nil, cfg))
}

func TestBondScore_Clamped(t *testing.T) {
	cfg := DefaultScoreConfig()
	f := BondFactors{Yield: 4, MA: 2, RSI: 100, Percentile: 100, ShiborChange: -1,
		ShiborChangeStd: 0.1, ERP: 1, SpreadChange: 2, SpreadChangeStd: 0.1}
	assert.Equal(t, 100.0, BondScore(f, nil, cfg))

	g := BondFactors{Yield: 1, MA: 2, RSI: 0, Percentile: 0, ShiborChange: 1,
		ShiborChangeStd: 0.1, ERP: 10, SpreadChange: -2, SpreadChangeStd: 0.1}
	assert.Equal(t, 0.0, BondScore(g, nil, cfg))
}

func TestERP(t *testing.T) {
	assert.InDelta(t, 100.0/12.5-2.0, ERP(12.5, 2.0), 1e-12)
	assert.True(t, math.IsNaN(ERP(0, 2.0)))
	assert.True(t, math.IsNaN(ERP(math.NaN(), 2.0)))
}
