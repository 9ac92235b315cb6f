// Package view assembles a prediction into the records and panel a page shows,
// and keeps recent views so overlays can be toggled without fetching again.
package view

import (
	"context"
	"fmt"
	"time"

	"ForecastLens/internal/model"
	"ForecastLens/internal/predictor"
	"ForecastLens/internal/series"
	"ForecastLens/internal/trend"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// View is one rendered forecast.
type View struct {
	ID        uuid.UUID               `json:"id"`
	Symbol    string                  `json:"symbol"`
	Days      int                     `json:"days"`
	CreatedAt time.Time               `json:"created_at"`
	Result    *model.PredictionResult `json:"-"`
	Records   []model.UnifiedRecord   `json:"records"`
	Panel     trend.Panel             `json:"panel"`
}

// Builder fetches predictions and turns them into views.
type Builder struct {
	Predictor predictor.Predictor
	Store     *Store
	logger    zerolog.Logger
}

// NewBuilder creates a Builder. A nil store keeps nothing.
func NewBuilder(p predictor.Predictor, store *Store) *Builder {
	return &Builder{
		Predictor: p,
		Store:     store,
		logger:    log.With().Str("component", "view_builder").Str("source", p.Name()).Logger(),
	}
}

// Build predicts symbol for days ahead, merges the series and interprets the trend.
func (b *Builder) Build(ctx context.Context, symbol string, days int) (*View, error) {
	res, err := b.Predictor.Predict(ctx, symbol, days)
	if err != nil {
		return nil, err
	}
	records, err := series.MergeResult(res)
	if err != nil {
		b.logger.Error().Err(err).Str("symbol", symbol).Msg("prediction violates series contract")
		return nil, fmt.Errorf("merge %s: %w", symbol, err)
	}

	v := &View{
		ID:        uuid.New(),
		Symbol:    res.Symbol,
		Days:      days,
		CreatedAt: time.Now().UTC(),
		Result:    res,
		Records:   records,
		Panel:     trend.InterpretResult(res),
	}
	if v.Symbol == "" {
		v.Symbol = symbol
	}
	if b.Store != nil {
		b.Store.Put(v)
	}
	b.logger.Info().Str("symbol", v.Symbol).Int("days", days).Str("view", v.ID.String()).Msg("view built")
	return v, nil
}
