// Package chart renders intraday valuation charts
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/fundval/internal/models"
)

// ErrTooFewPoints is returned when a quote has fewer than two plottable points
var ErrTooFewPoints = errors.New("not enough intraday points")

// shanghai is the exchange timezone; falls back to a fixed UTC+8 zone when
// tzdata is unavailable.
var shanghai = mustLoadLocation("Asia/Shanghai")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("CST", 8*60*60)
	}
	return loc
}

// RenderIntradayChart renders a PNG line chart of the intraday estimate series
// against the previous NAV. Returns raw PNG bytes.
func RenderIntradayChart(quote *models.QuoteSnapshot) ([]byte, error) {
	if quote == nil {
		return nil, fmt.Errorf("no quote to chart")
	}
	if len(quote.Points) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewPoints, len(quote.Points))
	}

	day, err := time.ParseInLocation("2006-01-02", quote.PrevNAVDate, shanghai)
	if err != nil {
		day = time.Date(2000, 1, 1, 0, 0, 0, 0, shanghai)
	}

	xValues := make([]time.Time, 0, len(quote.Points))
	estY := make([]float64, 0, len(quote.Points))
	for _, p := range quote.Points {
		t, err := time.ParseInLocation("1504", p.Time, shanghai)
		if err != nil {
			continue
		}
		xValues = append(xValues, day.Add(time.Duration(t.Hour())*time.Hour+time.Duration(t.Minute())*time.Minute))
		estY = append(estY, p.Estimate)
	}
	if len(xValues) < 2 {
		return nil, fmt.Errorf("%w: %d with valid times", ErrTooFewPoints, len(xValues))
	}

	prevY := make([]float64, len(xValues))
	for i := range prevY {
		prevY[i] = quote.PrevNAV
	}

	// red for up, green for down (mainland convention)
	color := drawing.ColorFromHex("dc2626")
	if estY[len(estY)-1] < quote.PrevNAV {
		color = drawing.ColorFromHex("16a34a")
	}

	estSeries := chart.TimeSeries{
		Name: "Estimate",
		Style: chart.Style{
			StrokeColor: color,
			StrokeWidth: 2.5,
		},
		XValues: xValues,
		YValues: estY,
	}

	prevSeries := chart.TimeSeries{
		Name: "Prev NAV",
		Style: chart.Style{
			StrokeColor:     drawing.ColorFromHex("9ca3af"), // gray-400
			StrokeWidth:     1.5,
			StrokeDashArray: []float64{5.0, 3.0},
		},
		XValues: xValues,
		YValues: prevY,
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s intraday estimate %s", quote.Code, quote.PrevNAVDate),
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).In(shanghai).Format("15:04")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.4f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{
			estSeries,
			prevSeries,
		},
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}
