package render

import (
	"fmt"
	"io"

	"ForecastLens/internal/model"
	"ForecastLens/internal/series"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/guregu/null/v6"
)

// HTML writes an interactive line chart page. Every record is a category on
// the x-axis; absent values leave gaps.
func HTML(w io.Writer, title string, records []model.UnifiedRecord, vis model.OverlayVisibility) error {
	dates := make([]string, len(records))
	for i, r := range records {
		dates[i] = r.Date
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "0"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Price ($)"}),
	)
	line.SetXAxis(dates)

	add := func(kind series.LineKind, name string, field func(model.UnifiedRecord) null.Float) {
		data := make([]opts.LineData, len(records))
		for i, r := range records {
			if v := field(r); v.Valid {
				data[i] = opts.LineData{Value: v.Float64}
			} else {
				data[i] = opts.LineData{Value: nil}
			}
		}
		style := opts.LineStyle{Color: "#" + LineColors[kind], Width: 2}
		if kind == series.LineForecast {
			style.Type = "dashed"
		}
		line.AddSeries(name, data,
			charts.WithLineStyleOpts(style),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: "#" + LineColors[kind]}),
		)
	}

	add(series.LineHistorical, "Historical Price", func(r model.UnifiedRecord) null.Float { return r.HistoricalPrice })
	add(series.LineForecast, "Predicted Price", func(r model.UnifiedRecord) null.Float { return r.ForecastPrice })
	if vis.ShowMA50 {
		add(series.LineMA50, "MA50", func(r model.UnifiedRecord) null.Float { return r.MA50 })
	}
	if vis.ShowMA100 {
		add(series.LineMA100, "MA100", func(r model.UnifiedRecord) null.Float { return r.MA100 })
	}
	if vis.ShowMA200 {
		add(series.LineMA200, "MA200", func(r model.UnifiedRecord) null.Float { return r.MA200 })
	}

	if err := line.Render(w); err != nil {
		return fmt.Errorf("render html chart: %w", err)
	}
	return nil
}
