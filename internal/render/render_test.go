package render

import (
	"bytes"
	"strings"
	"testing"

	"ForecastLens/internal/model"
	"ForecastLens/internal/series"
	"ForecastLens/internal/trend"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatting(t *testing.T) {
	cases := []struct {
		got, want string
	}{
		{Money(189.5), "$189.50"},
		{Money(-2), "-$2.00"},
		{Money(0.004), "$0.00"},
		{SignedMoney(3.456), "+$3.46"},
		{SignedMoney(-3.456), "-$3.46"},
		{Percent(2.5449), "2.54%"},
		{Signed(2.545), "+2.55%"},
		{Signed(-0.3), "-0.30%"},
		{Signed(0), "0.00%"},
		{Number(0.123456, 4), "0.1235"},
		{OptionalMoney(null.Float{}), NotAvailable},
		{OptionalMoney(null.FloatFrom(10)), "$10.00"},
		{OptionalSigned(null.FloatFrom(1)), "+1.00%"},
		{OptionalSigned(null.Float{}), NotAvailable},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.got)
	}
}

func sampleRecords(t *testing.T) []model.UnifiedRecord {
	t.Helper()
	hist := []model.HistoricalPoint{
		{Date: "2024-01-01", Price: 100, MA50: null.FloatFrom(98)},
		{Date: "2024-01-02", Price: 101, MA50: null.FloatFrom(98.5)},
		{Date: "2024-01-03", Price: 102, MA50: null.FloatFrom(99)},
	}
	records, err := series.Merge(hist, []float64{103, 104}, []string{"2024-01-04", "2024-01-05"})
	require.NoError(t, err)
	return records
}

func TestPNG(t *testing.T) {
	var buf bytes.Buffer
	lines := series.Lines(sampleRecords(t), model.DefaultOverlays())
	require.NoError(t, PNG(&buf, "TEST", lines, 800, 400))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestPNG_TooFewPoints(t *testing.T) {
	records, err := series.Merge([]model.HistoricalPoint{{Date: "2024-01-01", Price: 1}}, nil, nil)
	require.NoError(t, err)
	err = PNG(&bytes.Buffer{}, "TEST", series.Lines(records, model.OverlayVisibility{}), 800, 400)
	assert.ErrorIs(t, err, ErrTooFewPoints)
}

func TestHTML_RespectsOverlays(t *testing.T) {
	records := sampleRecords(t)

	var all bytes.Buffer
	require.NoError(t, HTML(&all, "TEST", records, model.DefaultOverlays()))
	assert.Contains(t, all.String(), "Predicted Price")
	assert.Contains(t, all.String(), "MA50")

	var bare bytes.Buffer
	require.NoError(t, HTML(&bare, "TEST", records, model.OverlayVisibility{}))
	assert.Contains(t, bare.String(), "Historical Price")
	assert.NotContains(t, bare.String(), "MA50")
}

func TestTable(t *testing.T) {
	p := trend.Interpret(model.TrendComparison{
		Historical30d: model.TrendSummary{Direction: model.DirectionUpward, Slope: 0.3, AvgPrice: 100},
		Predicted:     model.TrendSummary{Direction: model.DirectionUpward, Slope: 0.4, AvgPrice: 104},
		Comparison:    model.ComparisonDeltas{TrendConsistency: model.ConsistencyConsistent, VolatilityChange: 0.2},
	}, model.MovingAverages{MA50: null.FloatFrom(95), CurrentVsMA50: null.FloatFrom(5.26)})

	var buf bytes.Buffer
	Table(&buf, "AAPL", model.Metrics{CurrentPrice: 100, PredictedPrice: 104, Change: 4, ChangePercent: 4}, p)
	out := buf.String()
	assert.Contains(t, out, "Consistent Trend")
	assert.Contains(t, out, "Expected volatility remains stable.")
	assert.Contains(t, out, "+5.26%")
	assert.Equal(t, 2, strings.Count(out, "Insufficient data"))
}
