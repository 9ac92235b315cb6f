package calculator

import (
	"errors"
	"math"
)

const (
	projectionWindow = 60
	projectionMean   = 30
	// trendWeight damps the slope so the recent mean dominates the projection.
	trendWeight = 0.01
	// scaledFloor keeps every projected value strictly positive on the [0, 1] scale.
	scaledFloor = 0.01
)

// Project extends closes by days values. On the min-max scaled series it
// repeatedly takes the mean of the last 30 values and adds the slope of the
// last 60 scaled values weighted by the step, then maps the result back to prices.
// The output depends only on the input.
func Project(closes []float64, days int) ([]float64, error) {
	if days <= 0 {
		return nil, errors.New("days must be positive")
	}
	scaler, err := FitMinMax(closes)
	if err != nil {
		return nil, err
	}

	window := append([]float64(nil), Tail(scaler.Transform(closes), projectionWindow)...)
	slope := LinearSlope(window)

	scaled := make([]float64, days)
	for i := 0; i < days; i++ {
		mean, _ := Mean(Tail(window, projectionMean))
		next := math.Max(scaledFloor, mean+slope*float64(i+1)*trendWeight)
		scaled[i] = next
		window = append(window[1:], next)
	}
	return scaler.Inverse(scaled), nil
}
