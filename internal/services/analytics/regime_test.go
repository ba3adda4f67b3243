package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xllucky21/xllucky/internal/domain/models"
	"github.com/xllucky21/xllucky/internal/services/indicators"
)

func TestDetectRegime_ShortHistoryIsUnknown(t *testing.T) {
	vals := flat(30, 2.5)
	r := DetectRegime(vals, indicators.SMA(vals, 60), 29, DefaultRegimeConfig())
	assert.Equal(t, models.RegimeUnknown, r.Regime)
	assert.Equal(t, 0.5, r.TrendWeight)
	assert.Nil(t, r.Direction)
}

func TestDetectRegime_MissingAverageIsUnknown(t *testing.T) {
	vals := flat(200, 2.5)
	ma := indicators.NaNs(200)
	r := DetectRegime(vals, ma, 199, DefaultRegimeConfig())
	assert.Equal(t, models.RegimeUnknown, r.Regime)
	assert.Equal(t, 0.5, r.TrendWeight)
	assert.Nil(t, r.Direction)
}

func TestDetectRegime_CountCappedByLookback(t *testing.T) {
	cfg := DefaultRegimeConfig()
	vals := flat(400, 3.0)
	ma := flat(400, 2.0)
	r := DetectRegime(vals, ma, 399, cfg)
	assert.Equal(t, cfg.Lookback, r.ConsecutiveDays)
	assert.Equal(t, models.RegimeExtended, r.Regime)
	assert.Equal(t, 0.0, r.TrendWeight)
	require.NotNil(t, r.Direction)
	assert.Equal(t, models.DirectionBear, *r.Direction)

	// near the start of the series the walk stops before index 0
	r = DetectRegime(vals, ma, 70, cfg)
	assert.Equal(t, 70, r.ConsecutiveDays)
}

func TestDetectRegime_MeanRevertingWeight(t *testing.T) {
	vals := flat(100, 2.0)
	ma := flat(100, 2.5)
	for i := 0; i < 90; i++ {
		vals[i] = 3.0
	}
	r := DetectRegime(vals, ma, 99, DefaultRegimeConfig())
	assert.Equal(t, models.RegimeMeanReverting, r.Regime)
	assert.Equal(t, 10, r.ConsecutiveDays)
	assert.InDelta(t, 0.925, r.TrendWeight, 1e-12)
	require.NotNil(t, r.Direction)
	assert.Equal(t, models.DirectionBull, *r.Direction)
}

func TestDetectRegime_ExtendedWeightDecays(t *testing.T) {
	vals := flat(200, 3.0)
	ma := flat(200, 2.0)
	for i := 0; i < 140; i++ {
		vals[i] = 1.0
	}
	// 60 days above the average
	r := DetectRegime(vals, ma, 199, DefaultRegimeConfig())
	assert.Equal(t, 60, r.ConsecutiveDays)
	assert.InDelta(t, 0.5, r.TrendWeight, 1e-12)
}

func TestSpikeScenario(t *testing.T) {
	cfg := DefaultIndicatorConfig()
	build := func(spikeDays int) (*models.Frame, models.MarketRegime) {
		vals := flat(500+spikeDays, 2.5)
		for i := 500; i < len(vals); i++ {
			vals[i] = 3.0
		}
		f := BuildBondFrame(BondInputs{Yield: seriesOf(vals...)}, cfg)
		last := f.Len() - 1
		return f, DetectRegime(f.Col(ColYield), f.Col(ColMA), last, DefaultRegimeConfig())
	}

	f, short := build(5)
	flatIdx := 400
	dev := (f.At(ColYield, flatIdx) - f.At(ColMA, flatIdx)) / f.At(ColMA, flatIdx) * 100
	assert.InDelta(t, 0, dev, 1e-9)

	last := f.Len() - 1
	spikeDev := (f.At(ColYield, last) - f.At(ColMA, last)) / f.At(ColMA, last) * 100
	assert.Greater(t, spikeDev, 15.0)
	assert.False(t, math.IsNaN(spikeDev))

	require.NotNil(t, short.Direction)
	assert.Equal(t, models.DirectionBear, *short.Direction)
	assert.Equal(t, models.RegimeMeanReverting, short.Regime)
	assert.Equal(t, 5, short.ConsecutiveDays)

	_, long := build(50)
	require.NotNil(t, long.Direction)
	assert.Equal(t, models.DirectionBear, *long.Direction)
	assert.Equal(t, models.RegimeExtended, long.Regime)
	assert.Equal(t, 50, long.ConsecutiveDays)
}

func TestRegimeMessage(t *testing.T) {
	bull := models.DirectionBull
	assert.Equal(t, "持续偏离(牛市, 连续52天)", RegimeMessage(models.MarketRegime{
		Regime: models.RegimeExtended, ConsecutiveDays: 52, Direction: &bull,
	}))
	assert.Equal(t, "均值回归(熊市, 连续0天)", RegimeMessage(UnknownRegime()))
}
