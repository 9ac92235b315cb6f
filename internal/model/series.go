package model

import (
	"time"

	"github.com/guregu/null/v6"
)

// Segment marks which input sequence a merged record came from.
type Segment string

const (
	SegmentHistorical Segment = "historical"
	SegmentForecast   Segment = "forecast"
)

// UnifiedRecord is one chart row. Exactly one of HistoricalPrice and ForecastPrice is valid.
type UnifiedRecord struct {
	Date            string     `json:"date"`
	Time            time.Time  `json:"-"`
	Segment         Segment    `json:"segment"`
	HistoricalPrice null.Float `json:"historical"`
	ForecastPrice   null.Float `json:"predicted"`
	MA50            null.Float `json:"ma50"`
	MA100           null.Float `json:"ma100"`
	MA200           null.Float `json:"ma200"`
}

// OverlayVisibility selects which moving-average overlays are drawn.
type OverlayVisibility struct {
	ShowMA50  bool `json:"show_ma50"`
	ShowMA100 bool `json:"show_ma100"`
	ShowMA200 bool `json:"show_ma200"`
}

// DefaultOverlays shows every overlay.
func DefaultOverlays() OverlayVisibility {
	return OverlayVisibility{ShowMA50: true, ShowMA100: true, ShowMA200: true}
}
