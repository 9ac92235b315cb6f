package calculator

import (
	"errors"
	"fmt"

	"ForecastLens/internal/model"

	"github.com/markcheno/go-talib"
)

// Trend windows, in trading days.
const (
	Window30 = 30
	Window60 = 60
	Window90 = 90
)

// confidenceZ is the two-sided 95% normal quantile.
const confidenceZ = 1.96

var errNoValues = errors.New("no values provided")

// LinearSlope returns the least-squares slope of values against their index.
// Fewer than two values have no slope and yield 0.
func LinearSlope(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	out := talib.LinearRegSlope(values, n)
	return out[n-1]
}

// Mean returns the arithmetic mean.
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, errNoValues
	}
	out := talib.Sma(values, len(values))
	return out[len(out)-1], nil
}

// StdDev returns the population standard deviation.
func StdDev(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, errNoValues
	}
	if len(values) == 1 {
		return 0, nil
	}
	out := talib.StdDev(values, len(values), 1.0)
	return out[len(out)-1], nil
}

// CoefficientOfVariation returns the standard deviation as a percentage of the mean.
func CoefficientOfVariation(values []float64) (float64, error) {
	mean, err := Mean(values)
	if err != nil {
		return 0, err
	}
	if mean == 0 {
		return 0, errors.New("mean is zero")
	}
	sd, _ := StdDev(values)
	return sd / mean * 100, nil
}

// Summarize describes a window: slope sign, slope, mean and standard deviation.
func Summarize(values []float64) (model.TrendSummary, error) {
	mean, err := Mean(values)
	if err != nil {
		return model.TrendSummary{}, err
	}
	sd, _ := StdDev(values)
	slope := LinearSlope(values)
	dir := model.DirectionDownward
	if slope > 0 {
		dir = model.DirectionUpward
	}
	return model.TrendSummary{Direction: dir, Slope: slope, AvgPrice: mean, Volatility: sd}, nil
}

// CompareTrends summarises the last 30/60/90 closes and the predictions, and
// compares the predicted window with the 30-day one.
func CompareTrends(closes, predictions []float64) (model.TrendComparison, error) {
	var tc model.TrendComparison
	var err error
	if tc.Historical30d, err = Summarize(Tail(closes, Window30)); err != nil {
		return tc, fmt.Errorf("30d trend: %w", err)
	}
	if tc.Historical60d, err = Summarize(Tail(closes, Window60)); err != nil {
		return tc, fmt.Errorf("60d trend: %w", err)
	}
	if tc.Historical90d, err = Summarize(Tail(closes, Window90)); err != nil {
		return tc, fmt.Errorf("90d trend: %w", err)
	}
	if tc.Predicted, err = Summarize(predictions); err != nil {
		return tc, fmt.Errorf("predicted trend: %w", err)
	}

	histCV, err := CoefficientOfVariation(Tail(closes, Window30))
	if err != nil {
		return tc, fmt.Errorf("historical volatility: %w", err)
	}
	predCV, err := CoefficientOfVariation(predictions)
	if err != nil {
		return tc, fmt.Errorf("predicted volatility: %w", err)
	}

	consistency := model.ConsistencyDivergent
	if (tc.Historical30d.Slope > 0) == (tc.Predicted.Slope > 0) {
		consistency = model.ConsistencyConsistent
	}
	tc.Comparison = model.ComparisonDeltas{
		TrendConsistency: consistency,
		VolatilityChange: predCV - histCV,
		MomentumShift:    tc.Predicted.Slope - tc.Historical30d.Slope,
	}
	return tc, nil
}

// ForecastMetrics compares the predictions against the current price.
func ForecastMetrics(current float64, predictions []float64) (model.Metrics, error) {
	if len(predictions) == 0 {
		return model.Metrics{}, errNoValues
	}
	if current == 0 {
		return model.Metrics{}, errors.New("current price is zero")
	}
	mean, _ := Mean(predictions)
	sd, _ := StdDev(predictions)
	high, low, _ := Range(predictions)
	last := predictions[len(predictions)-1]
	change := last - current
	return model.Metrics{
		CurrentPrice:            current,
		PredictedPrice:          last,
		Change:                  change,
		ChangePercent:           change / current * 100,
		AvgPrediction:           mean,
		MaxPrediction:           high,
		MinPrediction:           low,
		ConfidenceIntervalUpper: mean + confidenceZ*sd,
		ConfidenceIntervalLower: mean - confidenceZ*sd,
	}, nil
}
