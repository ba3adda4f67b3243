package models

import "time"

// Overview is the newest state of every barometer in one response. A
// section that could not be read is nil and its error is listed by name.
type Overview struct {
	Bond      *BondConclusion   `json:"bond,omitempty"`
	Dividend  *IndexConclusion  `json:"dividend,omitempty"`
	LOF       *LOFOverview      `json:"lof,omitempty"`
	Summary   *Summary          `json:"summary,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Errors    map[string]string `json:"errors,omitempty"`
}
