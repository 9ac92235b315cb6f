package series

import (
	"time"

	"ForecastLens/internal/model"

	"github.com/guregu/null/v6"
)

// LineKind identifies a drawable line.
type LineKind string

const (
	LineHistorical LineKind = "historical"
	LineForecast   LineKind = "forecast"
	LineMA50       LineKind = "ma50"
	LineMA100      LineKind = "ma100"
	LineMA200      LineKind = "ma200"
)

// Point is a present value on a line.
type Point struct {
	Date  string
	Time  time.Time
	Value float64
}

// Line is one drawable series of a chart.
type Line struct {
	Kind   LineKind
	Name   string
	Points []Point
}

// Lines projects merged records onto the lines a chart draws: historical,
// forecast, then each enabled moving-average overlay. Absent values are left
// out of a line. The records are only read.
func Lines(records []model.UnifiedRecord, vis model.OverlayVisibility) []Line {
	lines := []Line{
		collect(records, LineHistorical, "Historical Price", func(r model.UnifiedRecord) null.Float { return r.HistoricalPrice }),
		collect(records, LineForecast, "Predicted Price", func(r model.UnifiedRecord) null.Float { return r.ForecastPrice }),
	}
	if vis.ShowMA50 {
		lines = append(lines, collect(records, LineMA50, "MA50", func(r model.UnifiedRecord) null.Float { return r.MA50 }))
	}
	if vis.ShowMA100 {
		lines = append(lines, collect(records, LineMA100, "MA100", func(r model.UnifiedRecord) null.Float { return r.MA100 }))
	}
	if vis.ShowMA200 {
		lines = append(lines, collect(records, LineMA200, "MA200", func(r model.UnifiedRecord) null.Float { return r.MA200 }))
	}
	return lines
}

func collect(records []model.UnifiedRecord, kind LineKind, name string, field func(model.UnifiedRecord) null.Float) Line {
	line := Line{Kind: kind, Name: name}
	for _, r := range records {
		v := field(r)
		if !v.Valid {
			continue
		}
		line.Points = append(line.Points, Point{Date: r.Date, Time: r.Time, Value: v.Float64})
	}
	return line
}
