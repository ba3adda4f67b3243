package util

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical day key used across reports and history files.
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	"20060102",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// ParseDate accepts the date shapes market providers emit and returns the
// calendar day in UTC. Unix seconds and milliseconds are accepted as well.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), true
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		if ts > 1e11 {
			return Day(time.UnixMilli(ts).UTC()), true
		}
		return Day(time.Unix(ts, 0).UTC()), true
	}
	return time.Time{}, false
}

// ParseDateDefault parses a date or returns def if empty/invalid.
func ParseDateDefault(s string, def time.Time) time.Time {
	if t, ok := ParseDate(s); ok {
		return t
	}
	return def
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateKey formats t as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// YearsBefore returns the day n years before t.
func YearsBefore(t time.Time, n int) time.Time {
	return Day(t).AddDate(-n, 0, 0)
}

// WindowFrom returns the start of an incremental fetch window ending at now.
func WindowFrom(now time.Time, days int) time.Time {
	if days <= 0 {
		days = 30
	}
	return Day(now).AddDate(0, 0, -days)
}
