package sources

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/xllucky21/xllucky/internal/domain/models"
	"github.com/xllucky21/xllucky/pkg/util"
)

// RawTable is a provider table before column mapping: headers plus string
// cells. Adapters sniff columns by header keyword because providers rename
// them without notice.
type RawTable struct {
	Headers []string
	Rows    [][]string
}

func (t *RawTable) Len() int { return len(t.Rows) }

// Column returns the index of the first header matching a candidate, or -1.
// Candidates are tried in order: exact (case-insensitive) matches first,
// then substring matches for non-ASCII candidates such as "隔夜".
func (t *RawTable) Column(candidates ...string) int {
	for _, c := range candidates {
		for i, h := range t.Headers {
			if strings.EqualFold(strings.TrimSpace(h), c) {
				return i
			}
		}
	}
	for _, c := range candidates {
		if utf8.RuneCountInString(c) == len(c) {
			continue
		}
		for i, h := range t.Headers {
			if strings.Contains(h, c) {
				return i
			}
		}
	}
	return -1
}

// ColumnOr is Column with a positional fallback.
func (t *RawTable) ColumnOr(fallback int, candidates ...string) int {
	if i := t.Column(candidates...); i >= 0 {
		return i
	}
	if fallback < len(t.Headers) {
		return fallback
	}
	return -1
}

// Series reads a (date, value) pair of columns. Rows with an unparseable
// date or value are dropped.
func (t *RawTable) Series(dateCol, valueCol int) models.Series {
	if dateCol < 0 || valueCol < 0 {
		return models.Series{}
	}
	out := make(models.Series, 0, len(t.Rows))
	for _, row := range t.Rows {
		if dateCol >= len(row) || valueCol >= len(row) {
			continue
		}
		d, ok := util.ParseDate(row[dateCol])
		if !ok {
			continue
		}
		v := util.ParseFloat(row[valueCol])
		if math.IsNaN(v) {
			continue
		}
		out = append(out, models.Point{Date: d, Value: v})
	}
	return out.Normalize()
}
