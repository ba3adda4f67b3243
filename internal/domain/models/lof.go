package models

// FundQuote is an exchange-traded LOF quote. Amount is in yuan.
type FundQuote struct {
	Code         string   `json:"code"`
	Name         string   `json:"name"`
	Price        float64  `json:"price"`
	ChangePct    *float64 `json:"change_pct"`
	Volume       float64  `json:"volume"`
	Amount       float64  `json:"amount"`
	TurnoverRate *float64 `json:"turnover_rate"`
	PrevClose    *float64 `json:"prev_close"`
}

// FundEstimate is the intraday estimated NAV (IOPV) with the last published NAV.
type FundEstimate struct {
	Code         string   `json:"code"`
	Name         string   `json:"name"`
	EstNAV       *float64 `json:"est_nav"`
	EstChangePct *float64 `json:"est_change_pct"`
	PrevNAV      *float64 `json:"prev_nav"`
}

// SubscribeStatus is the primary-market state of a fund. DailyLimit is in
// yuan and nil when unlimited.
type SubscribeStatus struct {
	SubscribeStatus string   `json:"subscribe_status"`
	RedeemStatus    string   `json:"redeem_status"`
	CanSubscribe    bool     `json:"can_subscribe"`
	DailyLimit      *float64 `json:"daily_limit"`
}

type Reliability string

const (
	ReliabilityHigh   Reliability = "high"
	ReliabilityMedium Reliability = "medium"
	ReliabilityLow    Reliability = "low"
)

type ArbPath string

const (
	ArbNone           ArbPath = "none"
	ArbInToOut        ArbPath = "in_to_out"
	ArbPriceReversion ArbPath = "price_reversion"
)

// LOFFund is the evaluated arbitrage view of one fund. Amount is in 万元.
type LOFFund struct {
	Code              string      `json:"code"`
	Name              string      `json:"name"`
	Price             float64     `json:"price"`
	EstNAV            float64     `json:"est_nav"`
	PrevNAV           *float64    `json:"prev_nav"`
	RealtimeDiscount  float64     `json:"realtime_discount"`
	T1Discount        *float64    `json:"t1_discount"`
	EstChangePct      *float64    `json:"est_change_pct"`
	ChangePct         *float64    `json:"change_pct"`
	Volume            int64       `json:"volume"`
	Amount            float64     `json:"amount"`
	TurnoverRate      *float64    `json:"turnover_rate"`
	SignalType        *string     `json:"signal_type"`
	SignalStrength    float64     `json:"signal_strength"`
	FundType          string      `json:"fund_type"`
	Threshold         float64     `json:"threshold"`
	CanSubscribe      bool        `json:"can_subscribe"`
	SubscribeStatus   string      `json:"subscribe_status"`
	RedeemStatus      string      `json:"redeem_status"`
	LowLiquidity      bool        `json:"low_liquidity"`
	DailyLimit        *float64    `json:"daily_limit"`
	IOPVReliability   Reliability `json:"iopv_reliability"`
	IOPVReason        string      `json:"iopv_reason"`
	ArbPath           ArbPath     `json:"arb_path"`
	ArbPathDesc       string      `json:"arb_path_desc"`
	SettlementDays    int         `json:"settlement_days"`
	AnnualizedReturn  float64     `json:"annualized_return"`
	CapitalEfficiency float64     `json:"capital_efficiency"`
	RiskNotes         []string    `json:"risk_notes"`
}

type Distribution struct {
	DeepDiscount   int `json:"deep_discount"`
	SlightDiscount int `json:"slight_discount"`
	FairValue      int `json:"fair_value"`
	SlightPremium  int `json:"slight_premium"`
	DeepPremium    int `json:"deep_premium"`
}

type LOFOverview struct {
	TotalCount      int          `json:"total_count"`
	AvgDiscountRate float64      `json:"avg_discount_rate"`
	MaxDiscount     float64      `json:"max_discount"`
	MaxPremium      float64      `json:"max_premium"`
	Distribution    Distribution `json:"distribution"`
}

type Opportunities struct {
	Premium []LOFFund `json:"premium"`
}

type NAVPoint struct {
	Date string  `json:"date"`
	NAV  float64 `json:"nav"`
}

type PricePoint struct {
	Date   string  `json:"date"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

type DiscountPoint struct {
	Date         string  `json:"date"`
	Price        float64 `json:"price"`
	NAV          float64 `json:"nav"`
	DiscountRate float64 `json:"discount_rate"`
}

type HotFund struct {
	LOFFund
	TrackIndex      string          `json:"track_index"`
	PriceHistory    []PricePoint    `json:"price_history"`
	DiscountHistory []DiscountPoint `json:"discount_history"`
}

// HotLOF is an entry of the watched fund list.
type HotLOF struct {
	Code       string `json:"code" yaml:"code"`
	Name       string `json:"name" yaml:"name"`
	TrackIndex string `json:"track_index" yaml:"track_index"`
}

type LOFMeta struct {
	UpdatedAt string `json:"updated_at"`
	Desc      string `json:"desc"`
	Note      string `json:"note"`
}

type LOFReport struct {
	Meta          LOFMeta       `json:"meta"`
	Overview      LOFOverview   `json:"overview"`
	Opportunities Opportunities `json:"opportunities"`
	AllFunds      []LOFFund     `json:"all_funds"`
	HotFunds      []HotFund     `json:"hot_funds"`
}
