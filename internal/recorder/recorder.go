package recorder

import (
	"time"

	"ForecastLens/internal/trend"
	"ForecastLens/internal/view"
)

// ForecastSnapshot is one persisted forecast with its qualitative reading.
type ForecastSnapshot struct {
	Symbol           string
	Days             int
	CreatedAt        time.Time
	CurrentPrice     float64
	PredictedPrice   float64
	ChangePercent    float64
	Consistency      string
	VolatilityChange float64
	VolatilityKind   string
	MomentumShift    float64
	MomentumKind     string
	MA50State        string
	MA100State       string
	MA200State       string
}

// NewSnapshot extracts the persisted fields of a view.
func NewSnapshot(v *view.View) *ForecastSnapshot {
	snap := &ForecastSnapshot{
		Symbol:           v.Symbol,
		Days:             v.Days,
		CreatedAt:        v.CreatedAt,
		Consistency:      v.Panel.Consistency.Label,
		VolatilityChange: v.Panel.Volatility.Value,
		VolatilityKind:   string(v.Panel.Volatility.Kind),
		MomentumShift:    v.Panel.Momentum.Value,
		MomentumKind:     string(v.Panel.Momentum.Kind),
	}
	if v.Result != nil {
		snap.CurrentPrice = v.Result.Metrics.CurrentPrice
		snap.PredictedPrice = v.Result.Metrics.PredictedPrice
		snap.ChangePercent = v.Result.Metrics.ChangePercent
	}
	states := []*string{&snap.MA50State, &snap.MA100State, &snap.MA200State}
	for i, card := range v.Panel.MovingAverages {
		if i < len(states) {
			*states[i] = string(card.Gap.State)
		}
	}
	for _, s := range states {
		if *s == "" {
			*s = string(trend.GapInsufficientData)
		}
	}
	return snap
}

// Recorder persists forecast history for later analysis.
type Recorder interface {
	RecordForecast(snap *ForecastSnapshot) error
	Close() error
}
