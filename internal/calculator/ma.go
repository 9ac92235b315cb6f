package calculator

import (
	"errors"

	"ForecastLens/internal/model"

	"github.com/guregu/null/v6"
	"github.com/markcheno/go-talib"
)

// Moving-average windows carried on every historical day.
const (
	MA20Period  = 20
	MA50Period  = 50
	MA100Period = 100
	MA200Period = 200
)

// CalculateSMA computes the simple moving average of the most recent period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	out := talib.Sma(prices[len(prices)-period:], period)
	return out[len(out)-1], nil
}

// RollingSMA returns the simple moving average ending at every index.
// Entries before the first full window are invalid.
func RollingSMA(prices []float64, period int) ([]null.Float, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	out := make([]null.Float, len(prices))
	if len(prices) < period {
		return out, nil
	}
	sma := talib.Sma(prices, period)
	for i := period - 1; i < len(prices); i++ {
		out[i] = null.FloatFrom(sma[i])
	}
	return out, nil
}

// MovingAverageGap returns how far current sits above (positive) or below the
// average, in percent. It is invalid when the average is absent or zero.
func MovingAverageGap(current float64, ma null.Float) null.Float {
	if !ma.Valid || ma.Float64 == 0 {
		return null.Float{}
	}
	return null.FloatFrom((current/ma.Float64 - 1) * 100)
}

// HistoricalPoints attaches the 20/50/100/200-day averages to each bar and
// returns the most recent limit days.
func HistoricalPoints(bars []model.OHLCV, limit int) []model.HistoricalPoint {
	closes := extractCloses(bars)
	ma20, _ := RollingSMA(closes, MA20Period)
	ma50, _ := RollingSMA(closes, MA50Period)
	ma100, _ := RollingSMA(closes, MA100Period)
	ma200, _ := RollingSMA(closes, MA200Period)

	start := 0
	if limit > 0 && len(bars) > limit {
		start = len(bars) - limit
	}
	points := make([]model.HistoricalPoint, 0, len(bars)-start)
	for i := start; i < len(bars); i++ {
		points = append(points, model.HistoricalPoint{
			Date:   bars[i].Time.Format("2006-01-02"),
			Price:  bars[i].Close,
			Volume: int64(bars[i].Volume),
			MA20:   ma20[i],
			MA50:   ma50[i],
			MA100:  ma100[i],
			MA200:  ma200[i],
		})
	}
	return points
}

// LatestMovingAverages reports the last 50/100/200-day averages and the gap of
// the last close to each.
func LatestMovingAverages(closes []float64) model.MovingAverages {
	var ma model.MovingAverages
	if len(closes) == 0 {
		return ma
	}
	current := closes[len(closes)-1]
	last := func(period int) null.Float {
		v, err := CalculateSMA(closes, period)
		if err != nil {
			return null.Float{}
		}
		return null.FloatFrom(v)
	}
	ma.MA50 = last(MA50Period)
	ma.MA100 = last(MA100Period)
	ma.MA200 = last(MA200Period)
	ma.CurrentVsMA50 = MovingAverageGap(current, ma.MA50)
	ma.CurrentVsMA100 = MovingAverageGap(current, ma.MA100)
	ma.CurrentVsMA200 = MovingAverageGap(current, ma.MA200)
	return ma
}

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
