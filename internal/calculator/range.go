package calculator

import (
	"errors"
	"math"
)

// Range returns the highest and lowest value.
func Range(values []float64) (high, low float64, err error) {
	if len(values) == 0 {
		return 0, 0, errors.New("no values provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, v := range values {
		if v > high {
			high = v
		}
		if v < low {
			low = v
		}
	}
	return high, low, nil
}

// Tail returns the last n values, or all of them when fewer exist.
func Tail(values []float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}

// MinMaxScaler maps values onto [0, 1] using the range it was fitted on.
type MinMaxScaler struct {
	min   float64
	scale float64
}

// FitMinMax fits a scaler on values. A flat series scales by one.
func FitMinMax(values []float64) (MinMaxScaler, error) {
	high, low, err := Range(values)
	if err != nil {
		return MinMaxScaler{}, err
	}
	scale := high - low
	if scale == 0 {
		scale = 1
	}
	return MinMaxScaler{min: low, scale: scale}, nil
}

// Transform scales values into a new slice.
func (s MinMaxScaler) Transform(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = (v - s.min) / s.scale
	}
	return out
}

// Inverse maps scaled values back to prices.
func (s MinMaxScaler) Inverse(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v*s.scale + s.min
	}
	return out
}
