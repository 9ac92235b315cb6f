package collector

import (
	"context"
	"errors"

	"ForecastLens/internal/model"
)

// ErrNoData is returned when a symbol has no price history.
var ErrNoData = errors.New("no data found")

// Fetcher defines the interface for fetching daily price history.
type Fetcher interface {
	// FetchDailyBars returns daily bars over the given Yahoo-style range ("1y", "2y", ...), oldest first.
	FetchDailyBars(ctx context.Context, symbol, rng string) ([]model.OHLCV, error)
	Name() string
}
