package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/xllucky21/xllucky/internal/domain/models"
)

// Line is one plotted series. Secondary lines use the right-hand axis.
type Line struct {
	Name      string
	Series    models.Series
	Color     string
	Width     float64
	Dashed    bool
	Secondary bool
}

// Flat builds a constant line spanning the dates of s, used for zone and
// threshold markers.
func Flat(name string, s models.Series, v float64, color string) Line {
	out := make(models.Series, 0, 2)
	if first, ok := firstPoint(s); ok {
		last, _ := s.Last()
		out = append(out, models.Point{Date: first.Date, Value: v}, models.Point{Date: last.Date, Value: v})
	}
	return Line{Name: name, Series: out, Color: color, Width: 1, Dashed: true}
}

func firstPoint(s models.Series) (models.Point, bool) {
	if len(s) == 0 {
		return models.Point{}, false
	}
	return s[0], true
}

// RenderLineChart draws lines sharing a date axis and returns PNG bytes.
func RenderLineChart(title string, lines []Line) ([]byte, error) {
	series := make([]chart.Series, 0, len(lines))
	secondary := false
	for _, ln := range lines {
		if len(ln.Series) < 2 {
			continue
		}
		xs := make([]time.Time, len(ln.Series))
		ys := make([]float64, len(ln.Series))
		for i, p := range ln.Series {
			xs[i] = p.Date
			ys[i] = p.Value
		}
		width := ln.Width
		if width == 0 {
			width = 2
		}
		style := chart.Style{
			StrokeColor: drawing.ColorFromHex(ln.Color),
			StrokeWidth: width,
		}
		if ln.Dashed {
			style.StrokeDashArray = []float64{5.0, 3.0}
		}
		ts := chart.TimeSeries{Name: ln.Name, Style: style, XValues: xs, YValues: ys}
		if ln.Secondary {
			ts.YAxis = chart.YAxisSecondary
			secondary = true
		}
		series = append(series, ts)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("need at least one series with 2 points")
	}

	graph := chart.Chart{
		Title:  title,
		Width:  1200,
		Height: 560,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("2006-01")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{ValueFormatter: twoDecimals},
		Series: series,
	}
	if secondary {
		graph.YAxisSecondary = chart.YAxis{ValueFormatter: twoDecimals}
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

func twoDecimals(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.2f", f)
	}
	return ""
}
