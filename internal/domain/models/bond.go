package models

// BondRegimeView is the regime block embedded in the bond conclusion.
type BondRegimeView struct {
	Regime          RegimeKind `json:"regime"`
	RegimeMsg       string     `json:"regime_msg"`
	ConsecutiveDays int        `json:"consecutive_days"`
	TrendWeight     float64    `json:"trend_weight"`
	Direction       *Direction `json:"direction"`
}

type BondConclusion struct {
	LastDate      string         `json:"last_date"`
	LastYield     float64        `json:"last_yield"`
	Score         float64        `json:"score"`
	Weather       string         `json:"weather"`
	Percentile    float64        `json:"percentile"`
	ValStatus     string         `json:"val_status"`
	TrendVal      string         `json:"trend_val"`
	TrendStatus   string         `json:"trend_status"`
	MACDVal       string         `json:"macd_val"`
	MACDStatus    string         `json:"macd_status"`
	RSI           *float64       `json:"rsi"`
	PEVal         string         `json:"pe_val"`
	MacroMsg      string         `json:"macro_msg"`
	ShiborVal     string         `json:"shibor_val"`
	ShiborChange  string         `json:"shibor_change"`
	LiquidityMsg  string         `json:"liquidity_msg"`
	SpreadVal     string         `json:"spread_val"`
	SpreadChange  string         `json:"spread_change"`
	SpreadMsg     string         `json:"spread_msg"`
	USYield       string         `json:"us_yield"`
	MarketRegime  BondRegimeView `json:"market_regime"`
	SuggestionCon string         `json:"suggestion_con"`
	SuggestionAgg string         `json:"suggestion_agg"`
}

// BacktestBucket aggregates scored rows whose score fell in [MinScore, MaxScore).
// The last bucket is closed at 100.
type BacktestBucket struct {
	MinScore                int      `json:"min_score"`
	MaxScore                int      `json:"max_score"`
	Count                   int      `json:"count"`
	AvgForwardReturn        *float64 `json:"avg_forward_return"`
	AvgForwardYieldChangeBP *float64 `json:"avg_forward_yield_change_bp"`
}

type ScorePoint struct {
	Date  string  `json:"date"`
	Yield float64 `json:"yield"`
	Score float64 `json:"score"`
}

type Backtest struct {
	HorizonDays    int              `json:"horizon_days"`
	Buckets        []BacktestBucket `json:"buckets"`
	IsMonotonic    bool             `json:"is_monotonic"`
	MonotonicScore float64          `json:"monotonic_score"`
	MonotonicMsg   string           `json:"monotonic_msg"`
	ScoreHistory   []ScorePoint     `json:"score_history"`
}

type BondRaw struct {
	Bond10Y   []Record `json:"bond_10y"`
	StockPE   []Record `json:"stock_pe"`
	ShiborON  []Record `json:"shibor_on"`
	USBond10Y []Record `json:"us_bond_10y"`
}

// BondReport is one bond barometer snapshot. Only the newest snapshot in a
// history file carries Raw.
type BondReport struct {
	GeneratedAt string         `json:"generated_at"`
	Conclusion  BondConclusion `json:"conclusion"`
	Backtest    Backtest       `json:"backtest"`
	Raw         *BondRaw       `json:"raw,omitempty"`
}
