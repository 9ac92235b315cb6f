package collector

import (
	"context"
	"fmt"
	"time"

	"ForecastLens/internal/model"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price     float64
	Count     int
	DailyData []model.OHLCV
	Err       error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ context.Context, _ string, _ string) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.DailyData != nil {
		return m.DailyData, nil
	}
	count := m.Count
	if count == 0 {
		count = 500
	}
	return generateMockBars(m.Price, count), nil
}

func generateMockBars(basePrice float64, count int) []model.OHLCV {
	end := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   end.AddDate(0, 0, -(count - 1 - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector fetches the price history a local forecast is derived from.
type Collector struct {
	Fetcher Fetcher
	Range   string
	logger  zerolog.Logger
}

// NewCollector creates a new Collector fetching two years of daily bars.
func NewCollector(fetcher Fetcher) *Collector {
	return &Collector{
		Fetcher: fetcher,
		Range:   "2y",
		logger:  log.With().Str("component", "collector").Str("source", fetcher.Name()).Logger(),
	}
}

// Collect fetches daily bars for symbol.
func (c *Collector) Collect(ctx context.Context, symbol string) (*model.PriceSeries, error) {
	bars, err := c.Fetcher.FetchDailyBars(ctx, symbol, c.Range)
	if err != nil {
		return nil, fmt.Errorf("fetch daily bars: %w", err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}
	c.logger.Debug().Str("symbol", symbol).Int("bars", len(bars)).Msg("collected daily bars")
	return &model.PriceSeries{Symbol: symbol, DailyBars: bars, FetchedAt: time.Now()}, nil
}
