package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/xllucky21/xllucky/internal/domain/models"
	"github.com/xllucky21/xllucky/pkg/util"
)

// FundCategory groups LOFs whose normal premium range is similar.
type FundCategory struct {
	Key            string
	Name           string
	Threshold      float64
	SettlementDays int
	Keywords       []string
}

const (
	TypeBroad     = "A股宽基"
	TypeSector    = "A股行业"
	TypeHK        = "QDII港股"
	TypeGlobal    = "QDII全球"
	TypeCommodity = "商品原油"
	TypeOther     = "其他"

	SignalPremiumArb = "溢价套利"
)

// fundCategories is in match priority order.
var fundCategories = []FundCategory{
	{Key: "commodity", Name: TypeCommodity, Threshold: 5.0, SettlementDays: 3,
		Keywords: []string{"原油", "油气", "黄金", "白银", "商品", "能源"}},
	{Key: "us_global", Name: TypeGlobal, Threshold: 4.0, SettlementDays: 4,
		Keywords: []string{"纳斯达克", "标普", "美国", "全球", "印度", "德国", "日本", "越南"}},
	{Key: "hk_qdii", Name: TypeHK, Threshold: 3.0, SettlementDays: 3,
		Keywords: []string{"恒生", "港股", "香港", "中概", "海外", "H股", "国企指数"}},
	{Key: "a_stock_sector", Name: TypeSector, Threshold: 1.5, SettlementDays: 2,
		Keywords: []string{"白酒", "医药", "消费", "科技", "新能源", "军工", "国防", "银行",
			"证券", "非银", "金融", "地产", "煤炭", "钢铁", "有色", "化工",
			"环保", "传媒", "互联网", "芯片", "半导体", "光伏", "电池"}},
	{Key: "a_stock_broad", Name: TypeBroad, Threshold: 1.0, SettlementDays: 2,
		Keywords: []string{"沪深300", "中证500", "中证1000", "上证50", "创业板", "科创板",
			"基本面50", "红利", "价值", "成长", "中小盘", "大盘"}},
}

var otherCategory = FundCategory{Key: "other", Name: TypeOther, Threshold: 2.0, SettlementDays: 2}

// ClassifyFund matches the fund name against each category's keywords,
// case-insensitively, in priority order.
func ClassifyFund(name string) FundCategory {
	lower := strings.ToLower(name)
	for _, c := range fundCategories {
		for _, kw := range c.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				return c
			}
		}
	}
	return otherCategory
}

// IOPVReliability judges how far the intraday estimate can be trusted. Only
// overseas and commodity funds moving more than 5% are downgraded.
func IOPVReliability(fundType string, estChangePct float64) (models.Reliability, string) {
	move := 0.0
	if isNum(estChangePct) {
		move = math.Abs(estChangePct)
	}
	switch fundType {
	case TypeBroad, TypeSector:
		return models.ReliabilityHigh, "A股IOPV跟踪准确"
	case TypeHK:
		if move > 5 {
			return models.ReliabilityMedium, fmt.Sprintf("港股估值波动较大(%.1f%%)", move)
		}
		return models.ReliabilityHigh, "港股IOPV"
	case TypeGlobal:
		if move > 5 {
			return models.ReliabilityMedium, fmt.Sprintf("全球市场估值波动(%.1f%%)", move)
		}
		return models.ReliabilityHigh, "全球IOPV"
	case TypeCommodity:
		if move > 5 {
			return models.ReliabilityMedium, fmt.Sprintf("商品类波动(%.1f%%)", move)
		}
		return models.ReliabilityHigh, "商品IOPV"
	}
	return models.ReliabilityHigh, "IOPV"
}

// ArbitragePath tells whether a premium can be captured by subscribing
// off-exchange and selling on-exchange.
func ArbitragePath(discount, threshold float64, canSubscribe bool) (models.ArbPath, string) {
	switch {
	case discount < threshold:
		return models.ArbNone, "未达套利阈值"
	case canSubscribe:
		return models.ArbInToOut, "场内→场外套利（经典LOF套利）"
	}
	return models.ArbPriceReversion, "价格回归博弈（无法申购，非无风险套利）"
}

// CapitalEfficiency annualizes a premium over the settlement cycle and maps
// it onto a 0-100 score.
func CapitalEfficiency(discount float64, settlementDays int) (annualized, score float64) {
	if discount <= 0 || settlementDays <= 0 {
		return 0, 0
	}
	a := discount / float64(settlementDays) * 365
	switch {
	case a >= 100:
		score = 100
	case a >= 50:
		score = 80 + (a-50)/50*20
	case a >= 20:
		score = 60 + (a-20)/30*20
	case a >= 10:
		score = 40 + (a-10)/10*20
	default:
		score = a / 10 * 40
	}
	return util.Round(a, 1), util.Round(score, 0)
}

// RiskNotes lists only the notable risks: long settlement and large moves.
func RiskNotes(settlementDays int, estChangePct float64) []string {
	notes := []string{}
	if settlementDays >= 4 {
		notes = append(notes, fmt.Sprintf("⏰ T+%d结算，资金占用较长", settlementDays))
	}
	if isNum(estChangePct) && math.Abs(estChangePct) > 3 {
		dir := "下跌"
		if estChangePct > 0 {
			dir = "上涨"
		}
		notes = append(notes, fmt.Sprintf("📈 今日估值%s%.1f%%", dir, math.Abs(estChangePct)))
	}
	return notes
}

func val(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

func rounded(p *float64, n int) *float64 {
	if p == nil || !isNum(*p) {
		return nil
	}
	v := util.Round(*p, n)
	return &v
}

// EvaluateFund joins the quote, estimate and subscribe status of one fund.
// It reports false when price or estimate are missing or not positive.
// A nil status means unknown, which is treated as subscribable.
func EvaluateFund(q models.FundQuote, est models.FundEstimate, status *models.SubscribeStatus, lowLiquidityWan float64) (models.LOFFund, bool) {
	estNAV := val(est.EstNAV)
	if !isNum(q.Price) || q.Price <= 0 || !isNum(estNAV) || estNAV <= 0 {
		return models.LOFFund{}, false
	}

	discount := (q.Price - estNAV) / estNAV * 100
	var t1 *float64
	if prev := val(est.PrevNAV); isNum(prev) && prev > 0 {
		v := util.Round((q.Price-prev)/prev*100, 2)
		t1 = &v
	}
	estChange := val(est.EstChangePct)
	amountWan := 0.0
	if isNum(q.Amount) {
		amountWan = q.Amount / 10000
	}

	cat := ClassifyFund(q.Name)
	st := models.SubscribeStatus{SubscribeStatus: "未知", RedeemStatus: "未知", CanSubscribe: true}
	if status != nil {
		st = *status
	}
	reliability, reason := IOPVReliability(cat.Name, estChange)
	path, pathDesc := ArbitragePath(discount, cat.Threshold, st.CanSubscribe)
	annualized, efficiency := CapitalEfficiency(discount, cat.SettlementDays)

	fund := models.LOFFund{
		Code:              q.Code,
		Name:              q.Name,
		Price:             util.Round(q.Price, 4),
		EstNAV:            util.Round(estNAV, 4),
		PrevNAV:           rounded(est.PrevNAV, 4),
		RealtimeDiscount:  util.Round(discount, 2),
		T1Discount:        t1,
		EstChangePct:      rounded(est.EstChangePct, 2),
		ChangePct:         rounded(q.ChangePct, 2),
		Volume:            int64(q.Volume),
		Amount:            util.Round(amountWan, 2),
		TurnoverRate:      rounded(q.TurnoverRate, 2),
		FundType:          cat.Name,
		Threshold:         cat.Threshold,
		CanSubscribe:      st.CanSubscribe,
		SubscribeStatus:   st.SubscribeStatus,
		RedeemStatus:      st.RedeemStatus,
		LowLiquidity:      amountWan < lowLiquidityWan,
		DailyLimit:        st.DailyLimit,
		IOPVReliability:   reliability,
		IOPVReason:        reason,
		ArbPath:           path,
		ArbPathDesc:       pathDesc,
		SettlementDays:    cat.SettlementDays,
		AnnualizedReturn:  annualized,
		CapitalEfficiency: efficiency,
		RiskNotes:         RiskNotes(cat.SettlementDays, estChange),
	}
	if discount >= cat.Threshold {
		sig := SignalPremiumArb
		fund.SignalType = &sig
		fund.SignalStrength = util.Round(math.Min((discount-cat.Threshold)/cat.Threshold*100, 100), 1)
	}
	return fund, true
}

// Overview summarizes the discount distribution across all funds.
func Overview(funds []models.LOFFund) models.LOFOverview {
	out := models.LOFOverview{TotalCount: len(funds)}
	if len(funds) == 0 {
		return out
	}
	sum := 0.0
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, f := range funds {
		r := f.RealtimeDiscount
		sum += r
		lo = math.Min(lo, r)
		hi = math.Max(hi, r)
		switch {
		case r <= -3:
			out.Distribution.DeepDiscount++
		case r <= -1:
			out.Distribution.SlightDiscount++
		case r < 1:
			out.Distribution.FairValue++
		case r < 3:
			out.Distribution.SlightPremium++
		default:
			out.Distribution.DeepPremium++
		}
	}
	out.AvgDiscountRate = util.Round(sum/float64(len(funds)), 2)
	out.MaxDiscount = util.Round(lo, 2)
	out.MaxPremium = util.Round(hi, 2)
	return out
}

// PremiumOpportunities keeps signalled funds, highest premium first.
func PremiumOpportunities(funds []models.LOFFund, topN int) []models.LOFFund {
	out := []models.LOFFund{}
	for _, f := range funds {
		if f.SignalType != nil && *f.SignalType == SignalPremiumArb {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RealtimeDiscount > out[j].RealtimeDiscount })
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

// DiscountHistory joins closing prices to NAVs published for the same day.
func DiscountHistory(prices []models.PricePoint, navs []models.NAVPoint) []models.DiscountPoint {
	byDate := make(map[string]float64, len(navs))
	for _, n := range navs {
		byDate[n.Date] = n.NAV
	}
	out := []models.DiscountPoint{}
	for _, p := range prices {
		nav, ok := byDate[p.Date]
		if !ok || nav <= 0 {
			continue
		}
		out = append(out, models.DiscountPoint{
			Date:         p.Date,
			Price:        p.Close,
			NAV:          nav,
			DiscountRate: util.Round((p.Close-nav)/nav*100, 2),
		})
	}
	return out
}

// HotLOFs is the watched fund list shown with price and discount history.
var HotLOFs = []models.HotLOF{
	{Code: "501050", Name: "华夏上证50AH", TrackIndex: "上证50AH优选"},
	{Code: "160119", Name: "南方中证500ETF联接", TrackIndex: "中证500"},
	{Code: "161017", Name: "富国中证500", TrackIndex: "中证500"},
	{Code: "160706", Name: "嘉实沪深300", TrackIndex: "沪深300"},
	{Code: "160716", Name: "嘉实基本面50", TrackIndex: "基本面50"},
	{Code: "163407", Name: "兴全沪深300", TrackIndex: "沪深300"},
	{Code: "501057", Name: "华夏创业板动量", TrackIndex: "创业板动量"},
	{Code: "161725", Name: "招商中证白酒", TrackIndex: "中证白酒"},
	{Code: "161726", Name: "招商中证煤炭", TrackIndex: "中证煤炭"},
	{Code: "161028", Name: "富国中证新能源汽车", TrackIndex: "新能源车"},
	{Code: "160225", Name: "国泰国证有色金属", TrackIndex: "有色金属"},
	{Code: "161024", Name: "富国中证军工", TrackIndex: "中证军工"},
	{Code: "160628", Name: "鹏华中证国防", TrackIndex: "中证国防"},
	{Code: "160630", Name: "鹏华中证传媒", TrackIndex: "中证传媒"},
	{Code: "160633", Name: "鹏华中证环保", TrackIndex: "中证环保"},
	{Code: "160635", Name: "鹏华中证银行", TrackIndex: "中证银行"},
	{Code: "161720", Name: "招商中证证券", TrackIndex: "中证证券"},
	{Code: "161116", Name: "易方达中证银行", TrackIndex: "中证银行"},
	{Code: "161121", Name: "易方达中证军工", TrackIndex: "中证军工"},
	{Code: "161122", Name: "易方达中证非银金融", TrackIndex: "非银金融"},
	{Code: "164906", Name: "交银中证海外互联网", TrackIndex: "中概互联"},
	{Code: "501021", Name: "华宝香港中小", TrackIndex: "港股中小"},
	{Code: "160717", Name: "嘉实恒生中国企业", TrackIndex: "恒生国企"},
	{Code: "164824", Name: "印度基金", TrackIndex: "印度市场"},
	{Code: "164701", Name: "汇添富恒生指数", TrackIndex: "恒生指数"},
	{Code: "501018", Name: "南方原油", TrackIndex: "原油"},
	{Code: "506000", Name: "科创板基金", TrackIndex: "科创板"},
	{Code: "506002", Name: "易方达科创板", TrackIndex: "科创板"},
	{Code: "162411", Name: "华宝油气LOF", TrackIndex: "油气"},
}
