// Package series reconciles the historical and forecast sequences of a prediction
// into one chart-ready timeline.
package series

import (
	"errors"
	"fmt"
	"time"

	"ForecastLens/internal/model"

	"github.com/guregu/null/v6"
)

// DateLayout is the calendar-date format used by the prediction service.
const DateLayout = "2006-01-02"

var (
	// ErrLengthMismatch means predictions and forecast dates cannot be paired positionally.
	ErrLengthMismatch = errors.New("predictions and forecast dates differ in length")
	// ErrMalformedDate means a date is not a YYYY-MM-DD calendar date.
	ErrMalformedDate = errors.New("malformed date")
)

// Merge concatenates historical points and forecast points into one sequence.
// Historical records come first, in input order, with their moving averages copied
// unchanged; forecast records follow, pairing forecast[i] with forecastDates[i],
// with no moving averages. Nothing is sorted or de-duplicated.
//
// A length mismatch or a malformed date is an upstream contract violation and
// returns an error without partial output.
func Merge(historical []model.HistoricalPoint, forecast []float64, forecastDates []string) ([]model.UnifiedRecord, error) {
	if len(forecast) != len(forecastDates) {
		return nil, fmt.Errorf("%w: %d predictions, %d dates", ErrLengthMismatch, len(forecast), len(forecastDates))
	}

	records := make([]model.UnifiedRecord, 0, len(historical)+len(forecast))
	for i, p := range historical {
		t, err := parseDate(p.Date)
		if err != nil {
			return nil, fmt.Errorf("historical_data[%d]: %w", i, err)
		}
		records = append(records, model.UnifiedRecord{
			Date:            p.Date,
			Time:            t,
			Segment:         model.SegmentHistorical,
			HistoricalPrice: null.FloatFrom(p.Price),
			MA50:            p.MA50,
			MA100:           p.MA100,
			MA200:           p.MA200,
		})
	}
	for i, price := range forecast {
		t, err := parseDate(forecastDates[i])
		if err != nil {
			return nil, fmt.Errorf("forecast_dates[%d]: %w", i, err)
		}
		records = append(records, model.UnifiedRecord{
			Date:          forecastDates[i],
			Time:          t,
			Segment:       model.SegmentForecast,
			ForecastPrice: null.FloatFrom(price),
		})
	}
	return records, nil
}

// MergeResult merges the sequences carried by a prediction result.
func MergeResult(res *model.PredictionResult) ([]model.UnifiedRecord, error) {
	if res == nil {
		return nil, errors.New("nil prediction result")
	}
	return Merge(res.HistoricalData, res.Predictions, res.ForecastDates)
}

// ForecastPoints pairs predictions with their dates.
func ForecastPoints(forecast []float64, forecastDates []string) ([]model.ForecastPoint, error) {
	if len(forecast) != len(forecastDates) {
		return nil, fmt.Errorf("%w: %d predictions, %d dates", ErrLengthMismatch, len(forecast), len(forecastDates))
	}
	points := make([]model.ForecastPoint, len(forecast))
	for i, price := range forecast {
		points[i] = model.ForecastPoint{Date: forecastDates[i], Price: price}
	}
	return points, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q", ErrMalformedDate, s)
	}
	return t, nil
}
