// Package trend turns the numeric trend comparison of a prediction into fixed
// qualitative judgments for the summary panel.
package trend

import (
	"math"

	"ForecastLens/internal/model"

	"github.com/guregu/null/v6"
)

// Decision boundaries. Stability checks compare the absolute value with a strict <.
const (
	// VolatilityStableThreshold is the percentage-point change below which volatility counts as stable.
	VolatilityStableThreshold = 1.0
	// MomentumUnchangedThreshold is the slope change below which momentum counts as unchanged.
	MomentumUnchangedThreshold = 0.01
	// MovingAverageGapPivot separates above from below; a gap equal to it is below.
	MovingAverageGapPivot = 0.0
)

type Icon string

const (
	IconUp   Icon = "up"
	IconDown Icon = "down"
)

type Color string

const (
	ColorPositive Color = "positive"
	ColorNegative Color = "negative"
)

// DirectionClass is the icon and color of a trend window.
type DirectionClass struct {
	Icon  Icon  `json:"icon"`
	Color Color `json:"color"`
}

// ClassifyDirection maps upward to up/positive and everything else to down/negative.
func ClassifyDirection(s model.TrendSummary) DirectionClass {
	if s.Direction == model.DirectionUpward {
		return DirectionClass{Icon: IconUp, Color: ColorPositive}
	}
	return DirectionClass{Icon: IconDown, Color: ColorNegative}
}

// ConsistencyClass is the consistency badge.
type ConsistencyClass struct {
	Label        string `json:"label"`
	IsConsistent bool   `json:"is_consistent"`
}

// ClassifyConsistency maps consistent to a positive badge and anything else to a divergent one.
func ClassifyConsistency(c model.Consistency) ConsistencyClass {
	if c == model.ConsistencyConsistent {
		return ConsistencyClass{Label: "Consistent Trend", IsConsistent: true}
	}
	return ConsistencyClass{Label: "Divergent Trend", IsConsistent: false}
}

type VerdictKind string

const (
	VolatilityStable    VerdictKind = "stable"
	VolatilityIncreased VerdictKind = "increased"
	VolatilityDecreased VerdictKind = "decreased"

	MomentumUnchanged    VerdictKind = "unchanged"
	MomentumAccelerating VerdictKind = "accelerating"
	MomentumDecelerating VerdictKind = "decelerating"
)

// Verdict is a categorical judgment carrying the signed value it was made from.
type Verdict struct {
	Kind    VerdictKind `json:"kind"`
	Value   float64     `json:"value"`
	Message string      `json:"message"`
}

// DescribeVolatilityChange classifies a signed change in volatility (percentage points).
func DescribeVolatilityChange(deltaPercent float64) Verdict {
	switch {
	case math.Abs(deltaPercent) < VolatilityStableThreshold:
		return Verdict{Kind: VolatilityStable, Value: deltaPercent,
			Message: "Expected volatility remains stable."}
	case deltaPercent > 0:
		return Verdict{Kind: VolatilityIncreased, Value: deltaPercent,
			Message: "Predicted period shows increased volatility - higher price fluctuations expected."}
	default:
		return Verdict{Kind: VolatilityDecreased, Value: deltaPercent,
			Message: "Predicted period shows decreased volatility - more stable prices expected."}
	}
}

// DescribeMomentumShift classifies the signed difference between predicted and recent slope.
func DescribeMomentumShift(shift float64) Verdict {
	switch {
	case math.Abs(shift) < MomentumUnchangedThreshold:
		return Verdict{Kind: MomentumUnchanged, Value: shift,
			Message: "Momentum remains relatively unchanged."}
	case shift > 0:
		return Verdict{Kind: MomentumAccelerating, Value: shift,
			Message: "Positive momentum shift detected - acceleration in upward movement."}
	default:
		return Verdict{Kind: MomentumDecelerating, Value: shift,
			Message: "Negative momentum shift detected - deceleration or reversal in trend."}
	}
}

type GapState string

const (
	GapInsufficientData GapState = "insufficient_data"
	GapAbove            GapState = "above"
	GapBelow            GapState = "below"
)

// GapClass places the current price relative to one moving average.
type GapClass struct {
	State      GapState   `json:"state"`
	Value      null.Float `json:"value"`
	Percentage null.Float `json:"percentage"`
}

// ClassifyMovingAverageGap reports insufficient data when either input is absent;
// otherwise above when the percentage is strictly positive, else below.
func ClassifyMovingAverageGap(value, percentage null.Float) GapClass {
	if !value.Valid || !percentage.Valid {
		return GapClass{State: GapInsufficientData, Value: value, Percentage: percentage}
	}
	if percentage.Float64 > MovingAverageGapPivot {
		return GapClass{State: GapAbove, Value: value, Percentage: percentage}
	}
	return GapClass{State: GapBelow, Value: value, Percentage: percentage}
}
