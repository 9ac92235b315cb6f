// Package predictor obtains forecasts either from the prediction service or
// by computing the same response locally from market data.
package predictor

import (
	"context"
	"fmt"
	"net/http"

	"ForecastLens/internal/model"
)

// Forecast horizon accepted by every source, in days.
const (
	MinDays = 5
	MaxDays = 60
)

// Predictor produces a forecast for a symbol.
type Predictor interface {
	Predict(ctx context.Context, symbol string, days int) (*model.PredictionResult, error)
	Name() string
}

// StatusError is a refusal from the prediction source. Detail is the
// human-readable reason (e.g. "Days must be between 5 and 60").
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("prediction service: status %d", e.StatusCode)
	}
	return fmt.Sprintf("prediction service: status %d: %s", e.StatusCode, e.Detail)
}

// IsClientError reports whether the request itself was rejected.
func (e *StatusError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// ValidateDays checks the forecast horizon.
func ValidateDays(days int) error {
	if days < MinDays || days > MaxDays {
		return &StatusError{
			StatusCode: http.StatusBadRequest,
			Detail:     fmt.Sprintf("Days must be between %d and %d", MinDays, MaxDays),
		}
	}
	return nil
}

func noData(symbol string) error {
	return &StatusError{StatusCode: http.StatusNotFound, Detail: "No data found for symbol: " + symbol}
}
