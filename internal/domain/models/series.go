package models

import (
	"encoding/json"
	"math"
	"sort"
	"time"
)

const dateLayout = "2006-01-02"

// Point is one dated observation of a tracked metric.
type Point struct {
	Date  time.Time
	Value float64
}

type pointJSON struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal(pointJSON{Date: p.Date.Format(dateLayout), Value: p.Value})
}

func (p *Point) UnmarshalJSON(b []byte) error {
	var raw pointJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	t, err := time.Parse(dateLayout, raw.Date)
	if err != nil {
		return err
	}
	p.Date = t
	p.Value = raw.Value
	return nil
}

// Series is ordered by date once Normalize has run.
type Series []Point

// Normalize sorts by date, drops NaN values and keeps the last occurrence of
// a duplicated date.
func (s Series) Normalize() Series {
	if len(s) == 0 {
		return s
	}
	byDate := make(map[time.Time]int, len(s))
	out := make(Series, 0, len(s))
	for _, p := range s {
		if math.IsNaN(p.Value) {
			continue
		}
		if i, ok := byDate[p.Date]; ok {
			out[i] = p
			continue
		}
		byDate[p.Date] = len(out)
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Values returns the value column.
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// Last returns the newest point.
func (s Series) Last() (Point, bool) {
	if len(s) == 0 {
		return Point{}, false
	}
	return s[len(s)-1], true
}

// Since keeps the points dated on or after from.
func (s Series) Since(from time.Time) Series {
	i := sort.Search(len(s), func(i int) bool { return !s[i].Date.Before(from) })
	return s[i:]
}

// Tail keeps at most the last n points.
func (s Series) Tail(n int) Series {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// Records renders the series as {date, key} rows, the shape of the raw
// sections of every report.
func (s Series) Records(key string) []Record {
	out := make([]Record, 0, len(s))
	for _, p := range s {
		out = append(out, Record{"date": p.Date.Format(dateLayout), key: p.Value})
	}
	return out
}

// SeriesFromRecords is the inverse of Records. Rows without a parseable date
// or a numeric value under key are skipped.
func SeriesFromRecords(rows []Record, key string) Series {
	out := make(Series, 0, len(rows))
	for _, r := range rows {
		ds, _ := r["date"].(string)
		t, err := time.Parse(dateLayout, ds)
		if err != nil {
			continue
		}
		v, ok := r[key].(float64)
		if !ok {
			continue
		}
		out = append(out, Point{Date: t, Value: v})
	}
	return out.Normalize()
}

// Record is a loosely typed row kept verbatim in report raw sections.
type Record map[string]interface{}

// Merge combines a stored series with freshly fetched points. On a shared
// date the fresh value wins; the result is sorted ascending.
func Merge(existing, fresh Series) Series {
	out := make(Series, 0, len(existing)+len(fresh))
	out = append(out, existing...)
	out = append(out, fresh...)
	return out.Normalize()
}
