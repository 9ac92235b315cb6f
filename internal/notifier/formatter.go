package notifier

import (
	"fmt"
	"html"
	"strings"

	"ForecastLens/internal/render"
	"ForecastLens/internal/trend"
	"ForecastLens/internal/view"
)

// FormatDigest formats a forecast view into a Telegram message.
func FormatDigest(v *view.View) string {
	var b strings.Builder
	p := v.Panel

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %d-day forecast | %s\n\n",
		html.EscapeString(v.Symbol), v.Days, v.CreatedAt.Format("2006-01-02")))

	if v.Result != nil {
		m := v.Result.Metrics
		b.WriteString(fmt.Sprintf("Current: %s\n", render.Money(m.CurrentPrice)))
		b.WriteString(fmt.Sprintf("Predicted: %s (%s)\n", render.Money(m.PredictedPrice), render.Signed(m.ChangePercent)))
		b.WriteString(fmt.Sprintf("95%% band: %s - %s\n\n",
			render.Money(m.ConfidenceIntervalLower), render.Money(m.ConfidenceIntervalUpper)))
	}

	b.WriteString("📈 <b>Trend:</b>\n")
	for _, w := range p.Windows {
		b.WriteString(fmt.Sprintf("  %s %s: %s (slope %s)\n",
			icon(w.Class.Icon), w.Title, w.Summary.Direction, render.Number(w.Summary.Slope, 4)))
	}
	b.WriteString(fmt.Sprintf("\n%s %s\n", badge(p.Consistency), p.Consistency.Label))
	b.WriteString(fmt.Sprintf("The model predicts a %s trend%s\n", p.PredictedDirection, p.ConsistencyNote))
	b.WriteString(fmt.Sprintf("• Volatility %s: %s\n", render.Signed(p.Volatility.Value), p.Volatility.Message))
	b.WriteString(fmt.Sprintf("• Momentum %s: %s\n", render.Number(p.Momentum.Value, 4), p.Momentum.Message))

	b.WriteString("\n📐 <b>Moving averages:</b>\n")
	for _, c := range p.MovingAverages {
		if c.Gap.State == trend.GapInsufficientData {
			b.WriteString(fmt.Sprintf("  %s: Insufficient data\n", c.Period))
			continue
		}
		b.WriteString(fmt.Sprintf("  %s: %s (%s, %s)\n", c.Period,
			render.OptionalMoney(c.Gap.Value), render.OptionalSigned(c.Gap.Percentage), render.GapLabel(c.Gap.State)))
	}
	return b.String()
}

// FormatFailure formats a failed forecast for symbol.
func FormatFailure(symbol string, err error) string {
	return fmt.Sprintf("❌ <b>%s</b>: %s", html.EscapeString(symbol), html.EscapeString(err.Error()))
}

// FormatHelp lists the supported commands.
func FormatHelp(symbols []string) string {
	var b strings.Builder
	b.WriteString("Available commands:\n")
	b.WriteString("• /forecast SYMBOL [DAYS]\n")
	b.WriteString("• /watchlist\n")
	if len(symbols) > 0 {
		b.WriteString(fmt.Sprintf("\nWatching: %s", html.EscapeString(strings.Join(symbols, ", "))))
	}
	return b.String()
}

func icon(i trend.Icon) string {
	if i == trend.IconUp {
		return "🟢▲"
	}
	return "🔴▼"
}

func badge(c trend.ConsistencyClass) string {
	if c.IsConsistent {
		return "✅"
	}
	return "⚠️"
}
