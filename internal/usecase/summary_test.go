package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xllucky21/xllucky/internal/domain/models"
	"github.com/xllucky21/xllucky/pkg/logger"
)

func sampleBondReport() models.BondReport {
	return models.BondReport{
		GeneratedAt: "2024-06-28 15:30:00",
		Conclusion: models.BondConclusion{
			LastDate:      "2024-06-28",
			LastYield:     2.2134,
			Score:         72.24,
			Weather:       "🌤️ 晴朗 (较好)",
			Percentile:    12.345,
			ValStatus:     "🟢 低估 (利率低位)",
			TrendStatus:   "🔴 上行趋势",
			USYield:       "4.36%",
			SuggestionCon: "【稳健型】继续持有中长久期债基",
		},
	}
}

func sampleDividendReport() models.DividendReport {
	return models.DividendReport{
		GeneratedAt: "2024-06-28 15:40:00",
		Index: &models.IndexAnalysis{Conclusion: models.IndexConclusion{
			LastDate:      "2024-06-28",
			Score:         64.96,
			Weather:       "☁️ 多云",
			Signal:        models.SignalStrongBuy,
			DividendYield: f64(5.678),
			Spread:        f64(3.4),
			RSI:           f64(48.26),
		}},
		Stocks: []models.StockAnalysis{
			{Code: "601088", Name: "中国神华", TotalScore: 81.04, Metrics: models.StockMetrics{DividendYield: f64(6.5)}},
			{Code: "600000", Name: "无股息", TotalScore: 80},
			{Code: "600900", Name: "长江电力", TotalScore: 77, Metrics: models.StockMetrics{DividendYield: f64(3.456)}},
		},
	}
}

func TestBondSummaryOf(t *testing.T) {
	s := BondSummaryOf(sampleBondReport())
	assert.Equal(t, 72.2, s.Score)
	assert.Equal(t, "2.21%", s.Yield)
	assert.Equal(t, "12.3", s.Percentile)
	assert.Equal(t, "低估 (利率低位)", s.Valuation)
	assert.Equal(t, "上行趋势", s.Trend)
	assert.Equal(t, "稳健型 - 继续持有中长久期债基", s.Suggestion)
	assert.Equal(t, "☀️", s.WeatherIcon)
	assert.Equal(t, "2024-06-28", s.Date)
}

func TestDividendSummaryOf(t *testing.T) {
	s := DividendSummaryOf(sampleDividendReport())
	require.NotNil(t, s)
	assert.Equal(t, 65.0, s.Score)
	assert.Equal(t, "hold", s.Signal)
	assert.Equal(t, "5.68%", s.DividendYield)
	assert.Equal(t, "3.40%", s.Spread)
	assert.Equal(t, 48.3, s.RSI)
	assert.Equal(t, "⛅", s.WeatherIcon)
	require.Len(t, s.TopStocks, 2)
	assert.Equal(t, "中国神华", s.TopStocks[0].Name)
	assert.Equal(t, "6.50%", s.TopStocks[0].Yield)
	assert.Equal(t, "3.46%", s.TopStocks[1].Yield)

	assert.Nil(t, DividendSummaryOf(models.DividendReport{}))
}

func TestWeatherIcon(t *testing.T) {
	assert.Equal(t, "🌧️", weatherIcon("⛈️ 暴雨 (极差)"))
	assert.Equal(t, "🌧️", weatherIcon("🌧️ 小雨 (较差)"))
	assert.Equal(t, "⛅", weatherIcon("☁️ 多云 (震荡)"))
	assert.Equal(t, "☀️", weatherIcon("☀️ 烈日 (极好)"))
	assert.Equal(t, "☀️", weatherIcon(""))
}

func TestShortSuggestionTruncatesRunes(t *testing.T) {
	long := ""
	for i := 0; i < 120; i++ {
		long += "债"
	}
	assert.Len(t, []rune(shortSuggestion(long)), 100)
}

func TestStocksSummaryOf(t *testing.T) {
	sh := models.Quote{Code: "000001", Price: 2967.4, ChangePct: 0.73, Amount: 4.1e11}
	sz := models.Quote{Code: "399001", Price: 8848.7, ChangePct: -0.2, Amount: 5.2e11}
	s := StocksSummaryOf(sh, sz)
	assert.Equal(t, "2967", s.SHIndex)
	assert.Equal(t, "+0.73%", s.SHChange)
	assert.Equal(t, "up", s.SHChangeClass)
	assert.Equal(t, "-0.20%", s.SZChange)
	assert.Equal(t, "down", s.SZChangeClass)
	assert.Equal(t, "9300亿", s.Volume)
	assert.Equal(t, "震荡", s.Sentiment)

	sh.Amount, sz.Amount = 6e11, 5e11
	sz.ChangePct = 1.1
	s = StocksSummaryOf(sh, sz)
	assert.Equal(t, "1.10万亿", s.Volume)
	assert.Equal(t, "偏多", s.Sentiment)
	assert.Equal(t, "up", s.SentimentClass)
}

func TestSummaryBuilderRunWritesFile(t *testing.T) {
	cfg := testConfig(t.TempDir())
	bonds := &memStore[models.BondReport]{list: []models.BondReport{sampleBondReport()}}
	divs := &memStore[models.DividendReport]{list: []models.DividendReport{sampleDividendReport()}}
	market := &fakeMarket{quotes: []models.Quote{
		{Code: "000001", Price: 3000, ChangePct: -3.5, Amount: 4e11},
		{Code: "399001", Price: 9000, ChangePct: -2.1, Amount: 5e11},
		{Code: "NDX", Price: 19682.87, ChangePct: 1.26},
		{Code: "VIX", Price: 31.24},
		{Code: "NVDA", ChangePct: 6.18},
		{Code: "TSLA", ChangePct: -2.04},
	}}
	b := NewSummaryBuilder(cfg, bonds, divs, market, logger.Nop())
	b.now = func() time.Time { return testNow }

	s, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-06-28 15:30", s.GeneratedAt)

	require.NotNil(t, s.Stocks)
	assert.Equal(t, "偏空", s.Stocks.Sentiment)

	require.NotNil(t, s.USStocks)
	assert.Equal(t, "19,683", s.USStocks.Nasdaq)
	assert.Equal(t, "+1.26%", s.USStocks.NasdaqChange)
	assert.Empty(t, s.USStocks.SPX)
	assert.Equal(t, "31.2", s.USStocks.VIX)
	assert.Equal(t, "up", s.USStocks.VIXClass)
	assert.Equal(t, "4.36%", s.USStocks.Bond10Y)
	require.Len(t, s.USStocks.Mag7, 2)
	assert.Equal(t, models.StarChange{Name: "英伟达", Change: "+6.2%", ChangeClass: "up"}, s.USStocks.Mag7[0])
	assert.Equal(t, "特斯拉", s.USStocks.Mag7[1].Name)

	read, err := ReadSummary(b.Path())
	require.NoError(t, err)
	assert.Equal(t, s, read)
}

func TestSummaryBuilderWithoutMarketOrHistory(t *testing.T) {
	cfg := testConfig(t.TempDir())
	b := NewSummaryBuilder(cfg, &memStore[models.BondReport]{}, &memStore[models.DividendReport]{}, nil, logger.Nop())
	s, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Nil(t, s.Bond)
	assert.Nil(t, s.Dividend)
	assert.Nil(t, s.Stocks)
	assert.Nil(t, s.USStocks)
}

func TestSummaryBuilderSkipsFailedQuotes(t *testing.T) {
	cfg := testConfig(t.TempDir())
	bonds := &memStore[models.BondReport]{list: []models.BondReport{sampleBondReport()}}
	market := &fakeMarket{quotesErr: errors.New("blocked")}
	b := NewSummaryBuilder(cfg, bonds, &memStore[models.DividendReport]{}, market, logger.Nop())
	s, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, s.Bond)
	assert.Nil(t, s.USStocks)
}
