package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/xllucky21/xllucky/internal/domain/models"
	"github.com/xllucky21/xllucky/pkg/util"
)

// DividendStocks is the monitored high-dividend list.
var DividendStocks = []models.StockInfo{
	{Code: "601398", Name: "工商银行", Industry: "银行", Type: models.IndustryStable},
	{Code: "601939", Name: "建设银行", Industry: "银行", Type: models.IndustryStable},
	{Code: "601288", Name: "农业银行", Industry: "银行", Type: models.IndustryStable},
	{Code: "601988", Name: "中国银行", Industry: "银行", Type: models.IndustryStable},
	{Code: "600036", Name: "招商银行", Industry: "银行", Type: models.IndustryStable},
	{Code: "601658", Name: "邮储银行", Industry: "银行", Type: models.IndustryStable},
	{Code: "600900", Name: "长江电力", Industry: "电力", Type: models.IndustryStable},
	{Code: "600674", Name: "川投能源", Industry: "电力", Type: models.IndustryStable},
	{Code: "600886", Name: "国投电力", Industry: "电力", Type: models.IndustryStable},
	{Code: "601006", Name: "大秦铁路", Industry: "交运", Type: models.IndustryStable},
	{Code: "600377", Name: "宁沪高速", Industry: "交运", Type: models.IndustryStable},
	{Code: "600941", Name: "中国移动", Industry: "通信", Type: models.IndustryStable},
}

// ROEPreset holds reference ROE figures (%) for the monitored list.
var ROEPreset = map[string]float64{
	"601398": 10.5, "601939": 11.2, "601288": 10.8, "601988": 9.8, "600036": 15.2,
	"601658": 11.0,
	"600900": 16.5, "600674": 12.3, "600886": 11.8,
	"601006": 10.2, "600377": 9.5,
	"600941": 11.0,
}

const (
	progressImplemented = "实施"
	historyTail         = 1260
	yearDays            = 365
)

func item(score int, level models.ScoreLevel, text string) models.ScoreItem {
	return models.ScoreItem{Score: score, Level: level, Text: text}
}

var missing = item(0, models.LevelUnknown, "数据缺失")

func ScoreSpread(spread *float64) models.ScoreItem {
	if spread == nil {
		return missing
	}
	s := *spread
	switch {
	case s >= 3:
		return item(100, models.LevelGold, fmt.Sprintf("极佳 (%.1f%%)", s))
	case s >= 2:
		return item(80, models.LevelGood, fmt.Sprintf("良好 (%.1f%%)", s))
	case s >= 1:
		return item(50, models.LevelWarn, fmt.Sprintf("一般 (%.1f%%)", s))
	}
	return item(20, models.LevelBad, fmt.Sprintf("偏低 (%.1f%%)", s))
}

func ScorePB(pb *float64) models.ScoreItem {
	if pb == nil {
		return missing
	}
	v := *pb
	switch {
	case v <= 0.8:
		return item(100, models.LevelGold, fmt.Sprintf("极低 (%.2f)", v))
	case v <= 1.0:
		return item(80, models.LevelGood, fmt.Sprintf("较低 (%.2f)", v))
	case v <= 1.5:
		return item(50, models.LevelWarn, fmt.Sprintf("适中 (%.2f)", v))
	}
	return item(20, models.LevelBad, fmt.Sprintf("偏高 (%.2f)", v))
}

func ScorePayoutRatio(ratio *float64) models.ScoreItem {
	if ratio == nil {
		return missing
	}
	r := *ratio
	switch {
	case r >= 90:
		return item(20, models.LevelBad, fmt.Sprintf("过高 (%.0f%%)", r))
	case r <= 10:
		return item(20, models.LevelBad, fmt.Sprintf("过低 (%.0f%%)", r))
	case r >= 30 && r <= 70:
		return item(100, models.LevelGold, fmt.Sprintf("健康 (%.0f%%)", r))
	}
	return item(60, models.LevelWarn, fmt.Sprintf("偏离 (%.0f%%)", r))
}

func ScoreDividendYears(years int) models.ScoreItem {
	switch {
	case years == 0:
		return item(0, models.LevelUnknown, "无分红记录")
	case years >= 10:
		return item(100, models.LevelGold, fmt.Sprintf("优秀 (%d年)", years))
	case years >= 5:
		return item(80, models.LevelGood, fmt.Sprintf("良好 (%d年)", years))
	case years >= 3:
		return item(50, models.LevelWarn, fmt.Sprintf("一般 (%d年)", years))
	}
	return item(20, models.LevelBad, fmt.Sprintf("较短 (%d年)", years))
}

func ScoreROE(roe *float64) models.ScoreItem {
	if roe == nil {
		return missing
	}
	v := *roe
	switch {
	case v >= 15:
		return item(100, models.LevelGold, fmt.Sprintf("优秀 (%.1f%%)", v))
	case v >= 10:
		return item(80, models.LevelGood, fmt.Sprintf("良好 (%.1f%%)", v))
	case v >= 6:
		return item(50, models.LevelWarn, fmt.Sprintf("一般 (%.1f%%)", v))
	}
	return item(20, models.LevelBad, fmt.Sprintf("较低 (%.1f%%)", v))
}

func ScoreIndustry(t models.IndustryType) models.ScoreItem {
	switch t {
	case models.IndustryStable:
		return item(100, models.LevelGold, "稳定型")
	case models.IndustrySemiStable:
		return item(60, models.LevelWarn, "半周期")
	}
	return item(30, models.LevelBad, "强周期")
}

// TotalScore averages the scorecard entries that have data.
func TotalScore(s models.StockScores) float64 {
	sum, n := 0, 0
	for _, it := range s.Items() {
		if it.Score > 0 {
			sum += it.Score
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return util.Round(float64(sum)/float64(n), 1)
}

type payout struct {
	date time.Time
	cash float64 // per share
}

// implemented returns the carried-out cash dividends that have a valid
// ex-dividend date, sorted by that date.
func implemented(records []models.DividendRecord) []payout {
	var out []payout
	for _, r := range records {
		if r.Progress != progressImplemented {
			continue
		}
		d, ok := util.ParseDate(r.ExDate)
		if !ok {
			continue
		}
		out = append(out, payout{date: d, cash: r.CashPer10 / 10})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].date.Before(out[j].date) })
	return out
}

// TTMDividendYield sums cash dividends with an ex-date in the year before
// now. When none qualify it uses the year before the latest payout instead.
func TTMDividendYield(price *float64, records []models.DividendRecord, now time.Time) *float64 {
	if price == nil || *price <= 0 {
		return nil
	}
	pays := implemented(records)
	if len(pays) == 0 {
		return nil
	}
	from := now.AddDate(0, 0, -yearDays)
	if !anySince(pays, from) {
		from = pays[len(pays)-1].date.AddDate(0, 0, -yearDays)
	}
	v := util.Round(sumSince(pays, from)/(*price)*100, 2)
	return &v
}

func sumSince(pays []payout, from time.Time) float64 {
	total := 0.0
	for _, p := range pays {
		if !p.date.Before(from) {
			total += p.cash
		}
	}
	return total
}

func anySince(pays []payout, from time.Time) bool {
	for _, p := range pays {
		if !p.date.Before(from) {
			return true
		}
	}
	return false
}

// DividendYieldHistory computes the trailing-year dividend yield for every
// price date that has at least one payout in (d-365d, d].
func DividendYieldHistory(records []models.DividendRecord, prices models.Series) models.Series {
	pays := implemented(records)
	if len(pays) == 0 || len(prices) == 0 {
		return nil
	}
	var out models.Series
	for _, p := range prices {
		from := p.Date.AddDate(0, 0, -yearDays)
		total := 0.0
		for _, d := range pays {
			if d.date.After(from) && !d.date.After(p.Date) {
				total += d.cash
			}
		}
		if total > 0 && p.Value > 0 {
			out = append(out, models.Point{Date: p.Date, Value: util.Round(total/p.Value*100, 2)})
		}
	}
	return out.Tail(historyTail)
}

// DividendYears counts consecutive announcement years, newest first.
func DividendYears(records []models.DividendRecord) int {
	seen := map[int]bool{}
	for _, r := range records {
		if r.Progress != progressImplemented {
			continue
		}
		if d, ok := util.ParseDate(r.AnnounceDate); ok {
			seen[d.Year()] = true
		}
	}
	if len(seen) == 0 {
		return 0
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	n := 1
	for i := 1; i < len(years) && years[i-1]-years[i] == 1; i++ {
		n++
	}
	return n
}

// PayoutRatio is a coarse payout estimate from the latest implemented cash
// dividend per 10 shares.
func PayoutRatio(records []models.DividendRecord) *float64 {
	for _, r := range records {
		if r.Progress != progressImplemented {
			continue
		}
		v := 30.0
		switch {
		case r.CashPer10 > 15:
			v = 50
		case r.CashPer10 > 8:
			v = 40
		}
		return &v
	}
	return nil
}

// StockInputs are the fetched per-stock series. Any of them may be empty.
type StockInputs struct {
	Price     *float64
	PB        models.Series
	Prices    models.Series
	Dividends []models.DividendRecord
}

// AnalyzeStock builds the metrics and scorecard for one stock.
func AnalyzeStock(info models.StockInfo, in StockInputs, bondYield float64, now time.Time) models.StockAnalysis {
	var pb *float64
	if last, ok := in.PB.Last(); ok {
		v := last.Value
		pb = &v
	}
	dy := TTMDividendYield(in.Price, in.Dividends, now)
	var spread *float64
	if dy != nil {
		v := *dy - bondYield
		spread = &v
	}
	years := DividendYears(in.Dividends)
	payoutRatio := PayoutRatio(in.Dividends)
	var roe *float64
	if v, ok := ROEPreset[info.Code]; ok {
		roe = &v
	}

	var scores models.StockScores
	scores.Valuation.Spread = ScoreSpread(spread)
	scores.Valuation.PB = ScorePB(pb)
	scores.DividendAbility.PayoutRatio = ScorePayoutRatio(payoutRatio)
	scores.DividendAbility.DividendYears = ScoreDividendYears(years)
	scores.AssetQuality.ROE = ScoreROE(roe)
	scores.AssetQuality.Industry = ScoreIndustry(info.Type)

	var roundedSpread *float64
	if spread != nil {
		v := util.Round(*spread, 2)
		roundedSpread = &v
	}

	return models.StockAnalysis{
		Code:     info.Code,
		Name:     info.Name,
		Industry: info.Industry,
		Type:     info.Type,
		Price:    in.Price,
		Metrics: models.StockMetrics{
			DividendYield: dy,
			Spread:        roundedSpread,
			PB:            pb,
			PayoutRatio:   payoutRatio,
			DividendYears: years,
			ROE:           roe,
		},
		Scores:               &scores,
		TotalScore:           TotalScore(scores),
		PBHistory:            in.PB.Tail(historyTail),
		DividendYieldHistory: DividendYieldHistory(in.Dividends, in.Prices),
		PriceHistory:         in.Prices.Tail(historyTail),
	}
}

// RankStocks sorts by total score, best first.
func RankStocks(stocks []models.StockAnalysis) {
	sort.SliceStable(stocks, func(i, j int) bool { return stocks[i].TotalScore > stocks[j].TotalScore })
}
