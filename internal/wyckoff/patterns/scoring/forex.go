package scoring

import "github.com/jthadison/wyckvol/internal/wyckoff"

// ForexScorer implements ConfidenceScorer for forex pairs: tick volume
// is only reliable as a consistency signal, not a magnitude one, so
// volume weight collapses and the trend bonus is disabled entirely.
// Confidence is capped at 85 (spec.md 4.D).
type ForexScorer struct{}

// NewForexScorer builds a ForexScorer.
func NewForexScorer() *ForexScorer { return &ForexScorer{} }

func (s *ForexScorer) AssetClass() wyckoff.AssetClass { return wyckoff.AssetClassForex }
func (s *ForexScorer) VolumeReliability() string       { return "LOW" }
func (s *ForexScorer) MaxConfidence() int              { return 85 }

// CalculateSpringConfidence scores volume (10, consistency-only),
// penetration depth (up to 45), recovery speed (up to 35), and test
// confirmation (20), plus a creek-strength bonus (10); volume-trend
// bonus is disabled. Capped at 85.
func (s *ForexScorer) CalculateSpringConfidence(in SpringInputs) Confidence {
	components := map[string]int{}

	if in.VolumeRatio < 0.7 {
		components["volume_quality"] = 10
	}

	switch {
	case in.PenetrationPct <= 0.02:
		components["penetration_depth"] = 45
	case in.PenetrationPct <= 0.03:
		components["penetration_depth"] = 32
	case in.PenetrationPct <= 0.04:
		components["penetration_depth"] = 18
	default:
		components["penetration_depth"] = 6
	}

	switch in.RecoveryBars {
	case 1:
		components["recovery_speed"] = 35
	case 2:
		components["recovery_speed"] = 28
	case 3:
		components["recovery_speed"] = 20
	default:
		components["recovery_speed"] = 14
	}

	if in.HasTest {
		components["test_confirmation"] = 20
	}

	components["creek_strength_bonus"] = creekStrengthBonus(in.CreekStrengthScore, 10)
	// volume_trend_bonus intentionally omitted: disabled for forex.

	total := 0
	for _, v := range components {
		total += v
	}
	result := cap(total, s.MaxConfidence())
	result.Components = components
	return result
}

// CalculateSOSConfidence scores volume (10), spread (30), close
// position (25), breakout size (20), and duration (15), plus LPS (10)
// and phase-D (5) bonuses atop an entry-type baseline. Capped at 85.
func (s *ForexScorer) CalculateSOSConfidence(in SOSInputs) Confidence {
	components := map[string]int{}

	if in.VolumeRatio >= 1.5 {
		components["volume"] = 10
	}

	switch {
	case in.SpreadRatio >= 1.8:
		components["spread"] = 30
	case in.SpreadRatio >= 1.2:
		components["spread"] = 18
	default:
		components["spread"] = 0
	}

	switch {
	case in.ClosePosition >= 0.8:
		components["close_position"] = 25
	case in.ClosePosition >= 0.5:
		components["close_position"] = 12
	default:
		components["close_position"] = 0
	}

	switch {
	case in.BreakoutPct >= 0.03:
		components["breakout_size"] = 20
	case in.BreakoutPct >= 0.01:
		components["breakout_size"] = 10
	default:
		components["breakout_size"] = 0
	}

	switch {
	case in.DurationBars >= 3:
		components["duration"] = 15
	case in.DurationBars >= 1:
		components["duration"] = 7
	}

	baseline := 60
	if in.EntryIsLPS {
		baseline = 75
	}
	components["entry_baseline"] = baseline

	if in.LPSHeld {
		components["lps_bonus"] = 10
	}
	if in.PhaseDHighConfidence {
		components["phase_bonus"] = 5
	}

	total := 0
	for _, v := range components {
		total += v
	}
	result := cap(total, s.MaxConfidence())
	result.Components = components
	return result
}
