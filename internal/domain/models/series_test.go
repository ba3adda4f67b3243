package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(day int) time.Time { return time.Date(2024, 6, day, 0, 0, 0, 0, time.UTC) }

func TestNormalizeSortsDedupsAndDropsNaN(t *testing.T) {
	s := Series{
		{Date: d(3), Value: 3},
		{Date: d(1), Value: 1},
		{Date: d(2), Value: math.NaN()},
		{Date: d(3), Value: 33},
	}
	got := s.Normalize()
	require.Len(t, got, 2)
	assert.Equal(t, d(1), got[0].Date)
	assert.Equal(t, 33.0, got[1].Value)
}

func TestMergeFreshWins(t *testing.T) {
	existing := Series{{Date: d(1), Value: 1}, {Date: d(2), Value: 2}, {Date: d(3), Value: 3}}
	fresh := Series{{Date: d(4), Value: 4}, {Date: d(3), Value: 30}}

	got := Merge(existing, fresh)
	assert.Equal(t, []float64{1, 2, 30, 4}, got.Values())
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].Date.Before(got[i].Date))
	}
	// merging the same data again changes nothing
	assert.Equal(t, got, Merge(got, fresh))
	assert.Empty(t, Merge(nil, nil))
}

func TestRecordsRoundTrip(t *testing.T) {
	s := Series{{Date: d(1), Value: 2.31}, {Date: d(2), Value: 2.29}}
	rows := s.Records("yield")
	assert.Equal(t, Record{"date": "2024-06-01", "yield": 2.31}, rows[0])

	// rows travel through JSON in the stored reports
	b, err := json.Marshal(rows)
	require.NoError(t, err)
	var back []Record
	require.NoError(t, json.Unmarshal(b, &back))
	back = append(back, Record{"date": "bad", "yield": 1.0}, Record{"date": "2024-06-05"})
	assert.Equal(t, s, SeriesFromRecords(back, "yield"))
}

func TestSinceAndTail(t *testing.T) {
	s := Series{{Date: d(1), Value: 1}, {Date: d(2), Value: 2}, {Date: d(3), Value: 3}}
	assert.Equal(t, []float64{2, 3}, s.Since(d(2)).Values())
	assert.Empty(t, s.Since(d(9)))
	assert.Equal(t, []float64{3}, s.Tail(1).Values())
	assert.Len(t, s.Tail(0), 3)
	last, ok := s.Last()
	assert.True(t, ok)
	assert.Equal(t, 3.0, last.Value)
	_, ok = Series{}.Last()
	assert.False(t, ok)
}

func TestFrameJoinAndFFill(t *testing.T) {
	f := NewFrame("yield", Series{{Date: d(1), Value: 2.0}, {Date: d(2), Value: 2.1}, {Date: d(3), Value: 2.2}, {Date: d(4), Value: 2.3}})
	f.JoinLeft("pe", Series{{Date: d(2), Value: 12}, {Date: d(4), Value: 13}, {Date: d(9), Value: 99}})

	pe := f.Col("pe")
	assert.True(t, math.IsNaN(pe[0]))
	assert.True(t, math.IsNaN(pe[2]))

	f.FFill()
	pe = f.Col("pe")
	// nothing observed before the first value, so it stays NaN
	assert.True(t, math.IsNaN(pe[0]))
	assert.Equal(t, []float64{12, 12, 13}, pe[1:])
	assert.Equal(t, []string{"yield", "pe"}, f.Columns())
	assert.Equal(t, 3, f.IndexOnOrBefore(d(20)))
	assert.Equal(t, -1, f.IndexOnOrBefore(d(0).AddDate(0, 0, -1)))
	assert.True(t, math.IsNaN(f.At("missing", 0)))
	assert.Len(t, f.Series("pe"), 3)
}

func TestPointJSON(t *testing.T) {
	b, err := json.Marshal(Point{Date: d(28), Value: 1.5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-06-28","value":1.5}`, string(b))
}
