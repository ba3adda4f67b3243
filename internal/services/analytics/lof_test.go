package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xllucky21/xllucky/internal/domain/models"
)

func TestClassifyFund_Priority(t *testing.T) {
	cases := map[string]string{
		"南方原油":        TypeCommodity,
		"华宝油气LOF":     TypeCommodity,
		"广发全球能源":      TypeCommodity, // commodity beats us_global
		"印度基金":        TypeGlobal,
		"交银中证海外互联网":   TypeHK, // hk beats sector
		"嘉实恒生中国企业":    TypeHK,
		"招商中证白酒":      TypeSector,
		"鹏华中证银行":      TypeSector,
		"易方达科创板":      TypeBroad,
		"嘉实沪深300":     TypeBroad,
		"某某稳健增利":      TypeOther,
		"工银h股精选":      TypeHK, // case-insensitive keyword match
	}
	for name, want := range cases {
		assert.Equal(t, want, ClassifyFund(name).Name, name)
	}

	c := ClassifyFund("南方原油")
	assert.Equal(t, 5.0, c.Threshold)
	assert.Equal(t, 3, c.SettlementDays)
	o := ClassifyFund("某某稳健增利")
	assert.Equal(t, 2.0, o.Threshold)
	assert.Equal(t, 2, o.SettlementDays)
	assert.Equal(t, 4, ClassifyFund("华安纳斯达克100").SettlementDays)
}

func TestIOPVReliability(t *testing.T) {
	r, why := IOPVReliability(TypeBroad, 9)
	assert.Equal(t, models.ReliabilityHigh, r)
	assert.Equal(t, "A股IOPV跟踪准确", why)

	r, why = IOPVReliability(TypeHK, -6.3)
	assert.Equal(t, models.ReliabilityMedium, r)
	assert.Equal(t, "港股估值波动较大(6.3%)", why)

	r, _ = IOPVReliability(TypeGlobal, 5)
	assert.Equal(t, models.ReliabilityHigh, r)

	_, why = IOPVReliability(TypeCommodity, 7)
	assert.Equal(t, "商品类波动(7.0%)", why)

	_, why = IOPVReliability(TypeOther, 20)
	assert.Equal(t, "IOPV", why)
}

func TestArbitragePath(t *testing.T) {
	p, _ := ArbitragePath(0.5, 1.0, true)
	assert.Equal(t, models.ArbNone, p)
	p, _ = ArbitragePath(1.0, 1.0, true)
	assert.Equal(t, models.ArbInToOut, p)
	p, d := ArbitragePath(3.0, 1.0, false)
	assert.Equal(t, models.ArbPriceReversion, p)
	assert.Equal(t, "价格回归博弈（无法申购，非无风险套利）", d)
}

func TestCapitalEfficiency(t *testing.T) {
	a, s := CapitalEfficiency(-1, 2)
	assert.Equal(t, 0.0, a)
	assert.Equal(t, 0.0, s)

	a, s = CapitalEfficiency(2, 2) // 365% annualized
	assert.Equal(t, 365.0, a)
	assert.Equal(t, 100.0, s)

	a, s = CapitalEfficiency(0.4, 2) // 73%
	assert.Equal(t, 73.0, a)
	assert.Equal(t, 89.0, s)

	a, s = CapitalEfficiency(0.2, 2) // 36.5%
	assert.Equal(t, 36.5, a)
	assert.Equal(t, 71.0, s)

	_, s = CapitalEfficiency(0.08, 2) // 14.6%
	assert.Equal(t, 49.0, s)

	_, s = CapitalEfficiency(0.02, 2) // 3.65%
	assert.Equal(t, 15.0, s)
}

func TestRiskNotes(t *testing.T) {
	assert.Empty(t, RiskNotes(2, 1))
	assert.NotNil(t, RiskNotes(2, 1))
	assert.Equal(t, []string{"⏰ T+4结算，资金占用较长", "📈 今日估值下跌3.5%"}, RiskNotes(4, -3.5))
	assert.Equal(t, []string{"📈 今日估值上涨4.0%"}, RiskNotes(3, 4))
}

func TestEvaluateFund(t *testing.T) {
	q := models.FundQuote{Code: "161725", Name: "招商中证白酒", Price: 1.05, Amount: 3_000_000}
	est := models.FundEstimate{Code: "161725", EstNAV: f64(1.0), EstChangePct: f64(0.5), PrevNAV: f64(0.98)}

	f, ok := EvaluateFund(q, est, nil, 500)
	require.True(t, ok)
	assert.Equal(t, 5.0, f.RealtimeDiscount)
	require.NotNil(t, f.T1Discount)
	assert.Equal(t, 7.14, *f.T1Discount)
	assert.Equal(t, TypeSector, f.FundType)
	assert.True(t, f.CanSubscribe)
	assert.Equal(t, "未知", f.SubscribeStatus)
	assert.True(t, f.LowLiquidity)
	assert.Equal(t, 300.0, f.Amount)
	require.NotNil(t, f.SignalType)
	assert.Equal(t, SignalPremiumArb, *f.SignalType)
	assert.Equal(t, 100.0, f.SignalStrength)
	assert.Equal(t, models.ArbInToOut, f.ArbPath)

	closed := &models.SubscribeStatus{SubscribeStatus: "暂停申购", RedeemStatus: "开放赎回"}
	q.Price = 1.02
	f, ok = EvaluateFund(q, est, closed, 500)
	require.True(t, ok)
	assert.False(t, f.CanSubscribe)
	assert.Equal(t, models.ArbPriceReversion, f.ArbPath)
	assert.InDelta(t, 33.3, f.SignalStrength, 1e-9)

	q.Price = 1.01
	f, _ = EvaluateFund(q, est, nil, 500)
	assert.Nil(t, f.SignalType)
	assert.Equal(t, 0.0, f.SignalStrength)

	_, ok = EvaluateFund(q, models.FundEstimate{}, nil, 500)
	assert.False(t, ok)
	q.Price = 0
	_, ok = EvaluateFund(q, est, nil, 500)
	assert.False(t, ok)
}

func TestOverviewAndOpportunities(t *testing.T) {
	sig := SignalPremiumArb
	funds := []models.LOFFund{
		{Code: "a", RealtimeDiscount: -4},
		{Code: "b", RealtimeDiscount: -1},
		{Code: "c", RealtimeDiscount: 0.5},
		{Code: "d", RealtimeDiscount: 1, SignalType: &sig},
		{Code: "e", RealtimeDiscount: 6, SignalType: &sig},
	}
	o := Overview(funds)
	assert.Equal(t, 5, o.TotalCount)
	assert.Equal(t, 0.5, o.AvgDiscountRate)
	assert.Equal(t, -4.0, o.MaxDiscount)
	assert.Equal(t, 6.0, o.MaxPremium)
	assert.Equal(t, models.Distribution{DeepDiscount: 1, SlightDiscount: 1, FairValue: 1, SlightPremium: 1, DeepPremium: 1}, o.Distribution)

	assert.Equal(t, models.LOFOverview{}, Overview(nil))

	opps := PremiumOpportunities(funds, 20)
	require.Len(t, opps, 2)
	assert.Equal(t, "e", opps[0].Code)
	assert.Len(t, PremiumOpportunities(funds, 1), 1)
}

func TestDiscountHistory(t *testing.T) {
	prices := []models.PricePoint{{Date: "2024-01-02", Close: 1.1}, {Date: "2024-01-03", Close: 1.0}}
	navs := []models.NAVPoint{{Date: "2024-01-02", NAV: 1.0}}
	h := DiscountHistory(prices, navs)
	require.Len(t, h, 1)
	assert.Equal(t, 10.0, h[0].DiscountRate)
}
