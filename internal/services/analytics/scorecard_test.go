package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xllucky21/xllucky/internal/domain/models"
)

func TestScoreThresholds(t *testing.T) {
	assert.Equal(t, models.ScoreItem{Score: 100, Level: models.LevelGold, Text: "极佳 (3.0%)"}, ScoreSpread(f64(3)))
	assert.Equal(t, 80, ScoreSpread(f64(2)).Score)
	assert.Equal(t, 50, ScoreSpread(f64(1)).Score)
	assert.Equal(t, models.ScoreItem{Score: 20, Level: models.LevelBad, Text: "偏低 (0.9%)"}, ScoreSpread(f64(0.9)))
	assert.Equal(t, models.ScoreItem{Score: 0, Level: models.LevelUnknown, Text: "数据缺失"}, ScoreSpread(nil))

	assert.Equal(t, "极低 (0.80)", ScorePB(f64(0.8)).Text)
	assert.Equal(t, 80, ScorePB(f64(1.0)).Score)
	assert.Equal(t, 50, ScorePB(f64(1.5)).Score)
	assert.Equal(t, 20, ScorePB(f64(1.51)).Score)

	assert.Equal(t, models.ScoreItem{Score: 20, Level: models.LevelBad, Text: "过高 (90%)"}, ScorePayoutRatio(f64(90)))
	assert.Equal(t, "过低 (10%)", ScorePayoutRatio(f64(10)).Text)
	assert.Equal(t, 100, ScorePayoutRatio(f64(30)).Score)
	assert.Equal(t, 100, ScorePayoutRatio(f64(70)).Score)
	assert.Equal(t, models.ScoreItem{Score: 60, Level: models.LevelWarn, Text: "偏离 (80%)"}, ScorePayoutRatio(f64(80)))

	assert.Equal(t, "无分红记录", ScoreDividendYears(0).Text)
	assert.Equal(t, "优秀 (10年)", ScoreDividendYears(10).Text)
	assert.Equal(t, 80, ScoreDividendYears(5).Score)
	assert.Equal(t, 50, ScoreDividendYears(3).Score)
	assert.Equal(t, "较短 (2年)", ScoreDividendYears(2).Text)

	assert.Equal(t, "优秀 (15.2%)", ScoreROE(f64(15.2)).Text)
	assert.Equal(t, 80, ScoreROE(f64(10)).Score)
	assert.Equal(t, 50, ScoreROE(f64(6)).Score)
	assert.Equal(t, 20, ScoreROE(f64(5.9)).Score)

	assert.Equal(t, 100, ScoreIndustry(models.IndustryStable).Score)
	assert.Equal(t, 60, ScoreIndustry(models.IndustrySemiStable).Score)
	assert.Equal(t, "强周期", ScoreIndustry(models.IndustryCyclical).Text)
}

func TestTotalScoreSkipsMissing(t *testing.T) {
	var s models.StockScores
	s.Valuation.Spread = ScoreSpread(nil)
	s.Valuation.PB = ScorePB(f64(0.7))
	s.DividendAbility.PayoutRatio = ScorePayoutRatio(f64(80))
	s.DividendAbility.DividendYears = ScoreDividendYears(0)
	s.AssetQuality.ROE = ScoreROE(f64(11))
	s.AssetQuality.Industry = ScoreIndustry(models.IndustryStable)
	// (100 + 60 + 80 + 100) / 4
	assert.Equal(t, 85.0, TotalScore(s))
	assert.Equal(t, 0.0, TotalScore(models.StockScores{}))
}

func dividends() []models.DividendRecord {
	return []models.DividendRecord{
		{AnnounceDate: "2024-03-28", CashPer10: 3.0, Progress: "实施", ExDate: "2024-07-10"},
		{AnnounceDate: "2024-03-28", CashPer10: 1.0, Progress: "预案"},
		{AnnounceDate: "2023-03-30", CashPer10: 2.8, Progress: "实施", ExDate: "2023-07-11"},
		{AnnounceDate: "2022-03-30", CashPer10: 2.6, Progress: "实施", ExDate: "2022-07-12"},
		{AnnounceDate: "2020-03-30", CashPer10: 2.5, Progress: "实施", ExDate: "2020-07-12"},
	}
}

func TestTTMDividendYield(t *testing.T) {
	now := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	y := TTMDividendYield(f64(6.0), dividends(), now)
	require.NotNil(t, y)
	assert.Equal(t, 5.0, *y)

	// nothing in the last year: fall back to the 365 days before the latest
	// payout, which reaches the 2023-07-11 payout as well
	later := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	y = TTMDividendYield(f64(6.0), dividends(), later)
	require.NotNil(t, y)
	assert.Equal(t, 9.67, *y)

	assert.Nil(t, TTMDividendYield(nil, dividends(), now))
	assert.Nil(t, TTMDividendYield(f64(6.0), nil, now))
}

func TestDividendYearsAndPayout(t *testing.T) {
	assert.Equal(t, 3, DividendYears(dividends()))
	assert.Equal(t, 0, DividendYears(nil))

	p := PayoutRatio(dividends())
	require.NotNil(t, p)
	assert.Equal(t, 30.0, *p)
	p = PayoutRatio([]models.DividendRecord{{CashPer10: 16, Progress: "实施"}})
	assert.Equal(t, 50.0, *p)
	p = PayoutRatio([]models.DividendRecord{{CashPer10: 9, Progress: "实施"}})
	assert.Equal(t, 40.0, *p)
	assert.Nil(t, PayoutRatio([]models.DividendRecord{{CashPer10: 9, Progress: "预案"}}))
}

func TestDividendYieldHistory(t *testing.T) {
	prices := models.Series{
		{Date: time.Date(2024, 7, 9, 0, 0, 0, 0, time.UTC), Value: 5},
		{Date: time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC), Value: 5},
		{Date: time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC), Value: 5},
	}
	h := DividendYieldHistory(dividends(), prices)
	require.Len(t, h, 2)
	// 2023-07-11 payout still inside the window on 2024-07-09
	assert.Equal(t, 5.6, h[0].Value)
	assert.Equal(t, 6.0, h[1].Value)
}

func TestAnalyzeStock(t *testing.T) {
	now := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	info := DividendStocks[0]
	res := AnalyzeStock(info, StockInputs{
		Price:     f64(6.0),
		PB:        seriesOf(0.6, 0.65),
		Prices:    seriesOf(6.0, 6.1),
		Dividends: dividends(),
	}, 1.9, now)

	assert.Equal(t, "601398", res.Code)
	require.NotNil(t, res.Metrics.DividendYield)
	assert.Equal(t, 5.0, *res.Metrics.DividendYield)
	require.NotNil(t, res.Metrics.Spread)
	assert.Equal(t, 3.1, *res.Metrics.Spread)
	assert.Equal(t, 0.65, *res.Metrics.PB)
	assert.Equal(t, 10.5, *res.Metrics.ROE)
	require.NotNil(t, res.Scores)
	assert.Equal(t, 100, res.Scores.Valuation.Spread.Score)
	assert.Equal(t, 100, res.Scores.Valuation.PB.Score)
	// spread 100, pb 100, payout 100, years 50, roe 80, industry 100
	assert.Equal(t, 88.3, res.TotalScore)

	brief := res.Brief()
	assert.Nil(t, brief.Scores)
	assert.Nil(t, brief.PBHistory)
	assert.Equal(t, res.TotalScore, brief.TotalScore)
}

func TestRankStocks(t *testing.T) {
	s := []models.StockAnalysis{{Code: "a", TotalScore: 50}, {Code: "b", TotalScore: 90}, {Code: "c", TotalScore: 70}}
	RankStocks(s)
	assert.Equal(t, []string{"b", "c", "a"}, []string{s[0].Code, s[1].Code, s[2].Code})
}
