package predictor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ForecastLens/internal/calculator"
	"ForecastLens/internal/collector"
	"ForecastLens/internal/model"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// historyLimit is the number of trailing days returned as historical data.
const historyLimit = 200

// Local computes forecasts in-process from daily bars.
type Local struct {
	collector *collector.Collector
	logger    zerolog.Logger
}

// NewLocal creates a Local predictor over the given market data fetcher.
func NewLocal(fetcher collector.Fetcher) *Local {
	return &Local{
		collector: collector.NewCollector(fetcher),
		logger:    log.With().Str("component", "predictor_local").Logger(),
	}
}

func (l *Local) Name() string { return "local" }

// Predict builds a full prediction result from two years of daily closes.
func (l *Local) Predict(ctx context.Context, symbol string, days int) (*model.PredictionResult, error) {
	if err := ValidateDays(days); err != nil {
		return nil, err
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	series, err := l.collector.Collect(ctx, symbol)
	if err != nil {
		if errors.Is(err, collector.ErrNoData) {
			return nil, noData(symbol)
		}
		return nil, fmt.Errorf("collect %s: %w", symbol, err)
	}
	res, err := Build(series, days)
	if err != nil {
		return nil, err
	}
	l.logger.Debug().Str("symbol", symbol).Int("days", days).Int("bars", len(series.DailyBars)).Msg("local prediction built")
	return res, nil
}

// Build derives the prediction result for days ahead from a price series.
func Build(series *model.PriceSeries, days int) (*model.PredictionResult, error) {
	if len(series.DailyBars) == 0 {
		return nil, noData(series.Symbol)
	}
	closes := series.Closes()

	predictions, err := calculator.Project(closes, days)
	if err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}

	last := series.DailyBars[len(series.DailyBars)-1].Time
	dates := make([]string, days)
	for i := range dates {
		dates[i] = last.AddDate(0, 0, i+1).Format("2006-01-02")
	}

	current := closes[len(closes)-1]
	metrics, err := calculator.ForecastMetrics(current, predictions)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	comparison, err := calculator.CompareTrends(closes, predictions)
	if err != nil {
		return nil, fmt.Errorf("trend comparison: %w", err)
	}

	return &model.PredictionResult{
		Symbol:          series.Symbol,
		Predictions:     predictions,
		HistoricalData:  calculator.HistoricalPoints(series.DailyBars, historyLimit),
		ForecastDates:   dates,
		Metrics:         metrics,
		TrendComparison: comparison,
		MovingAverages:  calculator.LatestMovingAverages(closes),
	}, nil
}
