package render

import (
	"errors"
	"fmt"
	"io"
	"time"

	"ForecastLens/internal/series"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrTooFewPoints is returned when the lines span less than two dates.
var ErrTooFewPoints = errors.New("chart needs at least two dates")

// LineColors are the hex colors of each line kind.
var LineColors = map[series.LineKind]string{
	series.LineHistorical: "3b82f6",
	series.LineForecast:   "ef4444",
	series.LineMA50:       "a855f7",
	series.LineMA100:      "f97316",
	series.LineMA200:      "ec4899",
}

func lineStyle(kind series.LineKind) chart.Style {
	st := chart.Style{
		StrokeColor: drawing.ColorFromHex(LineColors[kind]),
		StrokeWidth: 2,
	}
	switch kind {
	case series.LineForecast:
		st.StrokeDashArray = []float64{5, 5}
	case series.LineMA50, series.LineMA100, series.LineMA200:
		st.StrokeWidth = 1.5
	}
	return st
}

// PNG draws lines as a time-series chart with a legend.
func PNG(w io.Writer, title string, lines []series.Line, width, height int) error {
	var first, last time.Time
	var all []chart.Series
	for _, l := range lines {
		if len(l.Points) == 0 {
			continue
		}
		xs := make([]time.Time, len(l.Points))
		ys := make([]float64, len(l.Points))
		for i, p := range l.Points {
			xs[i] = p.Time
			ys[i] = p.Value
			if first.IsZero() || p.Time.Before(first) {
				first = p.Time
			}
			if p.Time.After(last) {
				last = p.Time
			}
		}
		all = append(all, chart.TimeSeries{Name: l.Name, XValues: xs, YValues: ys, Style: lineStyle(l.Kind)})
	}
	if len(all) == 0 || !last.After(first) {
		return ErrTooFewPoints
	}

	ch := chart.Chart{
		Title:      title,
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{ValueFormatter: chart.TimeDateValueFormatter},
		YAxis:      chart.YAxis{Name: "Price ($)"},
		Series:     all,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render png: %w", err)
	}
	return nil
}
