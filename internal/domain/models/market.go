package models

import "time"

// Quote is a realtime snapshot of one listed instrument. Amount is in yuan.
type Quote struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	ChangePct float64   `json:"change_pct"`
	PrevClose float64   `json:"prev_close"`
	Amount    float64   `json:"amount"`
	PB        *float64  `json:"pb,omitempty"`
	At        time.Time `json:"at"`
}

// Bar is one daily kline row.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	Close  float64   `json:"close"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Volume float64   `json:"volume"`
	Amount float64   `json:"amount"`
}

type AlertLevel string

const (
	AlertHigh   AlertLevel = "high"
	AlertMedium AlertLevel = "medium"
)

type Alert struct {
	Type    string     `json:"type"`
	Level   AlertLevel `json:"level"`
	Message string     `json:"message"`
}

// ScoreEvent is emitted once per scored subject per job run.
type ScoreEvent struct {
	Job         string    `json:"job"`
	Subject     string    `json:"subject"`
	Date        string    `json:"date"`
	Score       float64   `json:"score"`
	Value       float64   `json:"value"`
	Label       string    `json:"label"`
	GeneratedAt time.Time `json:"generated_at"`
}

// IndexValuation holds the published valuation series of one index.
type IndexValuation struct {
	PE            Series `json:"pe"`
	DividendYield Series `json:"dividend_yield"`
}
