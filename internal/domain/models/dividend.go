package models

type DividendSignal string

const (
	SignalStrongBuy DividendSignal = "strong_buy"
	SignalBuy       DividendSignal = "buy"
	SignalHold      DividendSignal = "hold"
	SignalReduce    DividendSignal = "reduce"
	SignalSell      DividendSignal = "sell"
)

type IndexConclusion struct {
	LastDate      string         `json:"last_date"`
	LastClose     float64        `json:"last_close"`
	Score         float64        `json:"score"`
	Weather       string         `json:"weather"`
	Signal        DividendSignal `json:"signal"`
	DividendYield *float64       `json:"dividend_yield"`
	BondYield     *float64       `json:"bond_yield"`
	Spread        *float64       `json:"spread"`
	SpreadStatus  string         `json:"spread_status"`
	TrendStatus   string         `json:"trend_status"`
	MADeviation   *float64       `json:"ma_deviation"`
	RSI           *float64       `json:"rsi"`
	PctChange5D   *float64       `json:"pct_change_5d"`
	PctChange20D  *float64       `json:"pct_change_20d"`
	SuggestionCon string         `json:"suggestion_con"`
	SuggestionAgg string         `json:"suggestion_agg"`
}

type IndexScorePoint struct {
	Date  string  `json:"date"`
	Score float64 `json:"score"`
	Close float64 `json:"close"`
}

type IndexRaw struct {
	Index []Record `json:"index"`
	Bond  []Record `json:"bond"`
}

type IndexAnalysis struct {
	Conclusion   IndexConclusion   `json:"conclusion"`
	ScoreHistory []IndexScorePoint `json:"score_history"`
	Raw          *IndexRaw         `json:"raw,omitempty"`
}

type IndustryType string

const (
	IndustryStable     IndustryType = "stable"
	IndustrySemiStable IndustryType = "semi_stable"
	IndustryCyclical   IndustryType = "cyclical"
)

// StockInfo is one entry of the monitored dividend stock list.
type StockInfo struct {
	Code     string       `json:"code" yaml:"code"`
	Name     string       `json:"name" yaml:"name"`
	Industry string       `json:"industry" yaml:"industry"`
	Type     IndustryType `json:"type" yaml:"type"`
}

type ScoreLevel string

const (
	LevelGold    ScoreLevel = "gold"
	LevelGood    ScoreLevel = "good"
	LevelWarn    ScoreLevel = "warn"
	LevelBad     ScoreLevel = "bad"
	LevelUnknown ScoreLevel = "unknown"
)

type ScoreItem struct {
	Score int        `json:"score"`
	Level ScoreLevel `json:"level"`
	Text  string     `json:"text"`
}

type StockScores struct {
	Valuation struct {
		Spread ScoreItem `json:"spread"`
		PB     ScoreItem `json:"pb"`
	} `json:"valuation"`
	DividendAbility struct {
		PayoutRatio   ScoreItem `json:"payout_ratio"`
		DividendYears ScoreItem `json:"dividend_years"`
	} `json:"dividend_ability"`
	AssetQuality struct {
		ROE      ScoreItem `json:"roe"`
		Industry ScoreItem `json:"industry"`
	} `json:"asset_quality"`
}

// Items lists every scorecard entry in a fixed order.
func (s StockScores) Items() []ScoreItem {
	return []ScoreItem{
		s.Valuation.Spread, s.Valuation.PB,
		s.DividendAbility.PayoutRatio, s.DividendAbility.DividendYears,
		s.AssetQuality.ROE, s.AssetQuality.Industry,
	}
}

type StockMetrics struct {
	DividendYield *float64 `json:"dividend_yield"`
	Spread        *float64 `json:"spread"`
	PB            *float64 `json:"pb"`
	PayoutRatio   *float64 `json:"payout_ratio,omitempty"`
	DividendYears int      `json:"dividend_years,omitempty"`
	ROE           *float64 `json:"roe,omitempty"`
}

type StockAnalysis struct {
	Code                 string       `json:"code"`
	Name                 string       `json:"name"`
	Industry             string       `json:"industry,omitempty"`
	Type                 IndustryType `json:"type,omitempty"`
	Price                *float64     `json:"price,omitempty"`
	Metrics              StockMetrics `json:"metrics"`
	Scores               *StockScores `json:"scores,omitempty"`
	TotalScore           float64      `json:"total_score"`
	PBHistory            Series       `json:"pb_history,omitempty"`
	DividendYieldHistory Series       `json:"dividend_yield_history,omitempty"`
	PriceHistory         Series       `json:"price_history,omitempty"`
}

// Brief strips a full analysis down to what older snapshots keep.
func (s StockAnalysis) Brief() StockAnalysis {
	return StockAnalysis{
		Code:       s.Code,
		Name:       s.Name,
		TotalScore: s.TotalScore,
		Metrics: StockMetrics{
			DividendYield: s.Metrics.DividendYield,
			Spread:        s.Metrics.Spread,
			PB:            s.Metrics.PB,
		},
	}
}

// DividendRecord is one row of a per-stock dividend history page.
type DividendRecord struct {
	AnnounceDate string  `json:"announce_date"`
	BonusShares  float64 `json:"bonus_shares"`
	Transfer     float64 `json:"transfer"`
	CashPer10    float64 `json:"cash_per_10"`
	Progress     string  `json:"progress"`
	ExDate       string  `json:"ex_date"`
}

// DividendReport is one dividend barometer snapshot.
type DividendReport struct {
	GeneratedAt string          `json:"generated_at"`
	BondYield   float64         `json:"bond_yield"`
	Index       *IndexAnalysis  `json:"index"`
	Stocks      []StockAnalysis `json:"stocks"`
}
