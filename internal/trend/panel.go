package trend

import "ForecastLens/internal/model"

// WindowCard is one trend window of the summary panel.
type WindowCard struct {
	Title      string             `json:"title"`
	Historical bool               `json:"historical"`
	Summary    model.TrendSummary `json:"summary"`
	Class      DirectionClass     `json:"class"`
}

// GapCard is one moving-average card of the summary panel.
type GapCard struct {
	Period string   `json:"period"`
	Gap    GapClass `json:"gap"`
}

// Panel is everything the summary panel shows, derived from one prediction.
type Panel struct {
	Windows            []WindowCard     `json:"windows"`
	PredictedDirection model.Direction  `json:"predicted_direction"`
	Consistency        ConsistencyClass `json:"consistency"`
	ConsistencyNote    string           `json:"consistency_note"`
	Volatility         Verdict          `json:"volatility"`
	Momentum           Verdict          `json:"momentum"`
	MovingAverages     []GapCard        `json:"moving_averages"`
}

// Interpret classifies a trend comparison and moving-average snapshot.
func Interpret(tc model.TrendComparison, ma model.MovingAverages) Panel {
	consistency := ClassifyConsistency(tc.Comparison.TrendConsistency)
	note := ", diverging from the recent historical trend pattern."
	if consistency.IsConsistent {
		note = ", matching the recent historical trend pattern."
	}

	return Panel{
		Windows: []WindowCard{
			window("Past 30 Days", true, tc.Historical30d),
			window("Past 60 Days", true, tc.Historical60d),
			window("Past 90 Days", true, tc.Historical90d),
			window("Predicted Trend", false, tc.Predicted),
		},
		PredictedDirection: tc.Predicted.Direction,
		Consistency:        consistency,
		ConsistencyNote:    note,
		Volatility:         DescribeVolatilityChange(tc.Comparison.VolatilityChange),
		Momentum:           DescribeMomentumShift(tc.Comparison.MomentumShift),
		MovingAverages: []GapCard{
			{Period: "50-Day MA", Gap: ClassifyMovingAverageGap(ma.MA50, ma.CurrentVsMA50)},
			{Period: "100-Day MA", Gap: ClassifyMovingAverageGap(ma.MA100, ma.CurrentVsMA100)},
			{Period: "200-Day MA", Gap: ClassifyMovingAverageGap(ma.MA200, ma.CurrentVsMA200)},
		},
	}
}

// InterpretResult interprets the trend data carried by a prediction result.
func InterpretResult(res *model.PredictionResult) Panel {
	return Interpret(res.TrendComparison, res.MovingAverages)
}

func window(title string, historical bool, s model.TrendSummary) WindowCard {
	return WindowCard{Title: title, Historical: historical, Summary: s, Class: ClassifyDirection(s)}
}
