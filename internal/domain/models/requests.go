package models

// Query parameters of the report endpoints.

type HistoryRequest struct {
	Limit int `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=200"`
}

type ScoresRequest struct {
	Job     string `query:"job" json:"job" validate:"required,oneof=bond dividend lof"`
	Subject string `query:"subject" json:"subject"`
	Limit   int    `query:"limit" json:"limit" default:"250" validate:"gte=1,lte=5000"`
}

type LOFRequest struct {
	Type        string  `query:"type" json:"type"`
	MinDiscount float64 `query:"min_discount" json:"min_discount"`
	OnlyArbable bool    `query:"only_arbable" json:"only_arbable"`
	Limit       int     `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=1000"`
}
