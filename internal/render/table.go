package render

import (
	"fmt"
	"io"

	"ForecastLens/internal/model"
	"ForecastLens/internal/trend"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Table writes the metrics, trend windows, verdicts and moving-average cards
// of a forecast as plain-text tables.
func Table(w io.Writer, symbol string, metrics model.Metrics, p trend.Panel) {
	mt := table.NewWriter()
	mt.SetOutputMirror(w)
	mt.SetTitle(fmt.Sprintf("%s forecast", symbol))
	mt.AppendHeader(table.Row{"Current", "Predicted", "Change", "Avg", "Range", "95% Band"})
	mt.AppendRow(table.Row{
		Money(metrics.CurrentPrice),
		Money(metrics.PredictedPrice),
		fmt.Sprintf("%s (%s)", SignedMoney(metrics.Change), Signed(metrics.ChangePercent)),
		Money(metrics.AvgPrediction),
		fmt.Sprintf("%s - %s", Money(metrics.MinPrediction), Money(metrics.MaxPrediction)),
		fmt.Sprintf("%s - %s", Money(metrics.ConfidenceIntervalLower), Money(metrics.ConfidenceIntervalUpper)),
	})
	mt.Render()

	tt := table.NewWriter()
	tt.SetOutputMirror(w)
	tt.SetTitle("Trend comparison")
	tt.AppendHeader(table.Row{"Window", "Direction", "Slope", "Avg Price", "Volatility"})
	for _, c := range p.Windows {
		tt.AppendRow(table.Row{
			c.Title,
			fmt.Sprintf("%s %s", arrow(c.Class.Icon), c.Summary.Direction),
			Number(c.Summary.Slope, 4),
			Money(c.Summary.AvgPrice),
			Number(c.Summary.Volatility, 2),
		})
	}
	tt.AppendSeparator()
	tt.AppendRow(table.Row{p.Consistency.Label, "", "", "", ""})
	tt.AppendRow(table.Row{"Volatility", Signed(p.Volatility.Value), p.Volatility.Message, "", ""})
	tt.AppendRow(table.Row{"Momentum", Number(p.Momentum.Value, 4), p.Momentum.Message, "", ""})
	tt.Render()

	at := table.NewWriter()
	at.SetOutputMirror(w)
	at.SetTitle("Moving averages")
	at.AppendHeader(table.Row{"Average", "Value", "Current vs MA", "Position"})
	for _, c := range p.MovingAverages {
		at.AppendRow(table.Row{c.Period, OptionalMoney(c.Gap.Value), OptionalSigned(c.Gap.Percentage), GapLabel(c.Gap.State)})
	}
	at.Render()
}

// GapLabel is the display text of a moving-average position.
func GapLabel(s trend.GapState) string {
	switch s {
	case trend.GapAbove:
		return "Above"
	case trend.GapBelow:
		return "Below"
	default:
		return "Insufficient data"
	}
}

func arrow(i trend.Icon) string {
	if i == trend.IconUp {
		return "↑"
	}
	return "↓"
}
