package models

type RegimeKind string

const (
	RegimeExtended      RegimeKind = "extended"
	RegimeMeanReverting RegimeKind = "mean-reverting"
	RegimeUnknown       RegimeKind = "unknown"
)

type Direction string

const (
	DirectionBull Direction = "bull"
	DirectionBear Direction = "bear"
)

// MarketRegime classifies the newest observation against its trailing MA.
// Direction is nil when the regime is unknown.
type MarketRegime struct {
	Regime          RegimeKind `json:"regime"`
	ConsecutiveDays int        `json:"consecutive_days"`
	TrendWeight     float64    `json:"trend_weight"`
	Direction       *Direction `json:"direction"`
}

func (r MarketRegime) Is(kind RegimeKind, dir Direction) bool {
	return r.Regime == kind && r.Direction != nil && *r.Direction == dir
}
