// Package wyckoff holds the data model shared by every stage of the
// detection pipeline (volume, levels, phase, patterns, campaign).
package wyckoff

import (
	"time"

	"github.com/shopspring/decimal"
)

// Timeframe identifies a bar interval. Session-relative volume analysis
// only applies when the timeframe resolves to an intraday duration.
type Timeframe string

const (
	Timeframe1m  Timeframe = "1m"
	Timeframe5m  Timeframe = "5m"
	Timeframe15m Timeframe = "15m"
	Timeframe1h  Timeframe = "1h"
	Timeframe1d  Timeframe = "1d"
	Timeframe1w  Timeframe = "1w"
)

// Duration returns the wall-clock span of one bar, or 0 if unknown.
func (t Timeframe) Duration() time.Duration {
	switch t {
	case Timeframe1m:
		return time.Minute
	case Timeframe5m:
		return 5 * time.Minute
	case Timeframe15m:
		return 15 * time.Minute
	case Timeframe1h:
		return time.Hour
	case Timeframe1d:
		return 24 * time.Hour
	case Timeframe1w:
		return 7 * 24 * time.Hour
	default:
		return 0
	}
}

// Intraday reports whether session-relative baselines apply (<=1h bars).
func (t Timeframe) Intraday() bool {
	d := t.Duration()
	return d > 0 && d <= time.Hour
}

// AssetClass distinguishes stock from forex symbols for confidence scoring.
type AssetClass string

const (
	AssetClassStock AssetClass = "stock"
	AssetClassForex AssetClass = "forex"
)

// OHLCVBar is an immutable price bar. Spread and ClosePosition are
// derived, never stored independently of open/high/low/close.
type OHLCVBar struct {
	Symbol    string
	Timeframe Timeframe
	Timestamp time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
}

// Spread is High-Low.
func (b OHLCVBar) Spread() decimal.Decimal {
	return b.High.Sub(b.Low)
}

// ClosePosition is (Close-Low)/Spread, or 0.5 when Spread is zero.
func (b OHLCVBar) ClosePosition() decimal.Decimal {
	spread := b.Spread()
	if spread.IsZero() {
		return decimal.NewFromFloat(0.5)
	}
	return b.Close.Sub(b.Low).Div(spread)
}

// Half is a reusable 0.5 constant for close-position fallbacks and the
// Jump/cause-building "times 0.5" factors used throughout the pipeline.
var Half = decimal.NewFromFloat(0.5)

// Zero is the zero-value decimal, named for readability at call sites.
var Zero = decimal.Zero
