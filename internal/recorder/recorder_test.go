package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"ForecastLens/internal/model"
	"ForecastLens/internal/trend"
	"ForecastLens/internal/view"

	"github.com/google/uuid"
	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleView(symbol string, at time.Time) *view.View {
	res := &model.PredictionResult{
		Symbol:  symbol,
		Metrics: model.Metrics{CurrentPrice: 100, PredictedPrice: 104, ChangePercent: 4},
		TrendComparison: model.TrendComparison{
			Comparison: model.ComparisonDeltas{
				TrendConsistency: model.ConsistencyDivergent,
				VolatilityChange: 2.5,
				MomentumShift:    -0.3,
			},
		},
		MovingAverages: model.MovingAverages{MA50: null.FloatFrom(95), CurrentVsMA50: null.FloatFrom(5.26)},
	}
	return &view.View{
		ID:        uuid.New(),
		Symbol:    symbol,
		Days:      30,
		CreatedAt: at,
		Result:    res,
		Panel:     trend.InterpretResult(res),
	}
}

func TestNewSnapshot(t *testing.T) {
	snap := NewSnapshot(sampleView("AAPL", time.Unix(1700000000, 0)))
	assert.Equal(t, "AAPL", snap.Symbol)
	assert.Equal(t, 104.0, snap.PredictedPrice)
	assert.Equal(t, "Divergent Trend", snap.Consistency)
	assert.Equal(t, "increased", snap.VolatilityKind)
	assert.Equal(t, "decelerating", snap.MomentumKind)
	assert.Equal(t, "above", snap.MA50State)
	assert.Equal(t, "insufficient_data", snap.MA200State)
}

func TestSQLiteRecorder_RoundTrip(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "forecasts.db"))
	require.NoError(t, err)
	defer r.Close()

	base := time.Unix(1700000000, 0).UTC()
	require.NoError(t, r.RecordForecast(NewSnapshot(sampleView("AAPL", base))))
	require.NoError(t, r.RecordForecast(NewSnapshot(sampleView("AAPL", base.Add(time.Hour)))))
	require.NoError(t, r.RecordForecast(NewSnapshot(sampleView("MSFT", base))))

	got, err := r.Recent("AAPL", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, base.Add(time.Hour), got[0].CreatedAt)
	assert.Equal(t, "increased", got[0].VolatilityKind)
	assert.Equal(t, 30, got[0].Days)

	got, err = r.Recent("MSFT", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordForecast(&ForecastSnapshot{}))
	assert.NoError(t, r.Close())
}
