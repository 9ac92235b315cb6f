package model

import "github.com/guregu/null/v6"

// Direction is the sign of a least-squares trend slope.
type Direction string

const (
	DirectionUpward   Direction = "upward"
	DirectionDownward Direction = "downward"
)

// Consistency tells whether the predicted trend keeps the recent historical direction.
type Consistency string

const (
	ConsistencyConsistent Consistency = "consistent"
	ConsistencyDivergent  Consistency = "divergent"
)

// PredictRequest is the body posted to the prediction service.
type PredictRequest struct {
	Symbol string `json:"symbol"`
	Days   int    `json:"days"`
}

// HistoricalPoint is one trading day as returned by the prediction service.
// Moving averages are invalid while the window exceeds available history.
type HistoricalPoint struct {
	Date   string     `json:"date"`
	Price  float64    `json:"price"`
	Volume int64      `json:"volume"`
	MA20   null.Float `json:"ma20"`
	MA50   null.Float `json:"ma50"`
	MA100  null.Float `json:"ma100"`
	MA200  null.Float `json:"ma200"`
}

// ForecastPoint pairs a predicted price with its forecast date.
type ForecastPoint struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// TrendSummary describes one window: direction, slope, mean price and price standard deviation.
type TrendSummary struct {
	Direction  Direction `json:"direction"`
	Slope      float64   `json:"slope"`
	AvgPrice   float64   `json:"avg_price"`
	Volatility float64   `json:"volatility"`
}

// ComparisonDeltas compares the predicted window with the most recent historical one.
type ComparisonDeltas struct {
	TrendConsistency Consistency `json:"trend_consistency"`
	VolatilityChange float64     `json:"volatility_change"` // signed, percentage points
	MomentumShift    float64     `json:"momentum_shift"`
}

// TrendComparison holds the four window summaries and their comparison.
type TrendComparison struct {
	Historical30d TrendSummary     `json:"historical_trend_30d"`
	Historical60d TrendSummary     `json:"historical_trend_60d"`
	Historical90d TrendSummary     `json:"historical_trend_90d"`
	Predicted     TrendSummary     `json:"predicted_trend"`
	Comparison    ComparisonDeltas `json:"comparison"`
}

// MovingAverages holds the latest MA values and the current price's distance to them in percent.
type MovingAverages struct {
	MA50           null.Float `json:"ma50"`
	MA100          null.Float `json:"ma100"`
	MA200          null.Float `json:"ma200"`
	CurrentVsMA50  null.Float `json:"current_vs_ma50"`
	CurrentVsMA100 null.Float `json:"current_vs_ma100"`
	CurrentVsMA200 null.Float `json:"current_vs_ma200"`
}

// Metrics summarises the forecast against the last close.
type Metrics struct {
	CurrentPrice            float64 `json:"current_price"`
	PredictedPrice          float64 `json:"predicted_price"`
	Change                  float64 `json:"change"`
	ChangePercent           float64 `json:"change_percent"`
	AvgPrediction           float64 `json:"avg_prediction"`
	MaxPrediction           float64 `json:"max_prediction"`
	MinPrediction           float64 `json:"min_prediction"`
	ConfidenceIntervalUpper float64 `json:"confidence_interval_upper"`
	ConfidenceIntervalLower float64 `json:"confidence_interval_lower"`
}

// PredictionResult is the prediction service's response payload.
// Predictions[i] belongs to ForecastDates[i].
type PredictionResult struct {
	Symbol          string            `json:"symbol"`
	Predictions     []float64         `json:"predictions"`
	HistoricalData  []HistoricalPoint `json:"historical_data"`
	ForecastDates   []string          `json:"forecast_dates"`
	Metrics         Metrics           `json:"metrics"`
	TrendComparison TrendComparison   `json:"trend_comparison"`
	MovingAverages  MovingAverages    `json:"moving_averages"`
}
