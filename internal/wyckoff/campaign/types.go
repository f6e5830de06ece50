// Package campaign implements the Campaign Detector (component E):
// grouping detected patterns into campaigns, a state machine over
// their lifecycle, portfolio risk enforcement, and statistics.
package campaign

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jthadison/wyckvol/internal/wyckoff/levels"
	"github.com/jthadison/wyckvol/internal/wyckoff/patterns"
)

// State is a Campaign's lifecycle state.
type State string

const (
	Forming   State = "FORMING"
	Active    State = "ACTIVE"
	Dormant   State = "DORMANT"
	Completed State = "COMPLETED"
	Failed    State = "FAILED"
)

// VolumeTrend summarizes recent pattern volume direction.
type VolumeTrend string

const (
	TrendIncreasing VolumeTrend = "INCREASING"
	TrendDeclining  VolumeTrend = "DECLINING"
	TrendNeutral    VolumeTrend = "NEUTRAL"
	TrendUnknown    VolumeTrend = "UNKNOWN"
)

// EffortVsResult summarizes the Wyckoff effort/result relationship
// across the campaign's recent patterns.
type EffortVsResult string

const (
	Harmony    EffortVsResult = "HARMONY"
	Divergence EffortVsResult = "DIVERGENCE"
	EVRUnknown EffortVsResult = "UNKNOWN"
)

// ExitReason names why a campaign was completed.
type ExitReason string

const (
	ExitTargetHit  ExitReason = "TARGET_HIT"
	ExitStopOut    ExitReason = "STOP_OUT"
	ExitTimeExit   ExitReason = "TIME_EXIT"
	ExitPhaseE     ExitReason = "PHASE_E"
	ExitManual     ExitReason = "MANUAL_EXIT"
	ExitUnknown    ExitReason = "UNKNOWN"
)

// PhaseSnapshot records a phase observed at a point in time.
type PhaseSnapshot struct {
	Timestamp time.Time
	Phase     levels.Phase
}

// Campaign aggregates a sequence of patterns into one trackable trade
// idea with risk metadata, sizing, and completion bookkeeping.
type Campaign struct {
	ID              string
	State           State
	Patterns        []patterns.Pattern
	CurrentPhase    levels.Phase
	StartTime       time.Time
	FailureReason   string

	SupportLevel    decimal.Decimal
	ResistanceLevel decimal.Decimal
	StrengthScore   decimal.Decimal // [0,1]
	RiskPerShare    decimal.Decimal
	RangeWidthPct   decimal.Decimal

	PositionSize decimal.Decimal
	DollarRisk   decimal.Decimal

	JumpLevel         decimal.Decimal
	OriginalIceLevel  decimal.Decimal
	IceExpansionCount int

	PhaseHistory []PhaseSnapshot

	VolumeTrend       VolumeTrend
	EffortVsResult    EffortVsResult
	ClimaxDetected    bool
	AbsorptionQuality decimal.Decimal

	ExitPrice     *decimal.Decimal
	ExitTimestamp *time.Time
	ExitReason    ExitReason
	RMultiple     *decimal.Decimal
	PointsGained  *decimal.Decimal
	DurationBars  int
}

// TimeframeDefaults holds the campaign-window family of defaults per
// spec.md 4.E, varying by timeframe granularity.
type TimeframeDefaults struct {
	CampaignWindow       time.Duration
	MaxPatternGap        time.Duration
	MinPatternsForActive int
	Expiration           time.Duration
	MaxConcurrent        int
	MaxPortfolioHeatPct  decimal.Decimal
}

// IntradayDefaults are the defaults for timeframes <= 1h.
func IntradayDefaults() TimeframeDefaults {
	return TimeframeDefaults{
		CampaignWindow:       48 * time.Hour,
		MaxPatternGap:        48 * time.Hour,
		MinPatternsForActive: 2,
		Expiration:           72 * time.Hour,
		MaxConcurrent:        3,
		MaxPortfolioHeatPct:  decimal.NewFromFloat(10.0),
	}
}

// DailyDefaults are the defaults for daily timeframes.
func DailyDefaults() TimeframeDefaults {
	return TimeframeDefaults{
		CampaignWindow:       240 * time.Hour,
		MaxPatternGap:        120 * time.Hour,
		MinPatternsForActive: 2,
		Expiration:           360 * time.Hour,
		MaxConcurrent:        5,
		MaxPortfolioHeatPct:  decimal.NewFromFloat(10.0),
	}
}
