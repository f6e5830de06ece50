package scoring

import "github.com/jthadison/wyckvol/internal/wyckoff"

// StockScorer implements ConfidenceScorer for equities: high volume
// reliability, confidence capped at 100 (spec.md 4.D).
type StockScorer struct{}

// NewStockScorer builds a StockScorer.
func NewStockScorer() *StockScorer { return &StockScorer{} }

func (s *StockScorer) AssetClass() wyckoff.AssetClass { return wyckoff.AssetClassStock }
func (s *StockScorer) VolumeReliability() string       { return "HIGH" }
func (s *StockScorer) MaxConfidence() int              { return 100 }

// CalculateSpringConfidence scores volume quality (40), penetration
// depth (35), recovery speed (25), test confirmation (20), plus creek
// strength (10) and volume trend (10) bonuses, capped at 100.
func (s *StockScorer) CalculateSpringConfidence(in SpringInputs) Confidence {
	components := map[string]int{}

	switch {
	case in.VolumeRatio < 0.3:
		components["volume_quality"] = 40
	case in.VolumeRatio < 0.4:
		components["volume_quality"] = 30
	case in.VolumeRatio < 0.5:
		components["volume_quality"] = 20
	case in.VolumeRatio < 0.6:
		components["volume_quality"] = 10
	default: // 0.6 <= ratio < 0.7 (>=0.7 never reaches the scorer; binary-rejected upstream)
		components["volume_quality"] = 5
	}

	switch {
	case in.PenetrationPct <= 0.02:
		components["penetration_depth"] = 35
	case in.PenetrationPct <= 0.03:
		components["penetration_depth"] = 25
	case in.PenetrationPct <= 0.04:
		components["penetration_depth"] = 15
	default: // up to 0.05, the hard reject ceiling enforced by the detector
		components["penetration_depth"] = 5
	}

	switch in.RecoveryBars {
	case 1:
		components["recovery_speed"] = 25
	case 2:
		components["recovery_speed"] = 20
	case 3:
		components["recovery_speed"] = 15
	default: // 4-5
		components["recovery_speed"] = 10
	}

	if in.HasTest {
		components["test_confirmation"] = 20
	}

	components["creek_strength_bonus"] = creekStrengthBonus(in.CreekStrengthScore, 10)
	components["volume_trend_bonus"] = volumeTrendBonus(in.PreviousTestVolumes, 10)

	total := 0
	for _, v := range components {
		total += v
	}
	result := cap(total, s.MaxConfidence())
	result.Components = components
	return result
}

// CalculateSOSConfidence scores non-linear volume (35), spread (20),
// close position (20), breakout size (15), duration (10), plus LPS (15)
// and phase-D (5) bonuses on top of an entry-type baseline, capped at 100.
func (s *StockScorer) CalculateSOSConfidence(in SOSInputs) Confidence {
	components := map[string]int{}

	switch {
	case in.VolumeRatio >= 2.0 && in.VolumeRatio <= 2.3:
		components["volume"] = 35
	case in.VolumeRatio >= 1.5 && in.VolumeRatio < 2.0:
		components["volume"] = 25
	case in.VolumeRatio > 2.3 && in.VolumeRatio <= 3.0:
		components["volume"] = 25
	default:
		components["volume"] = 10
	}

	switch {
	case in.SpreadRatio >= 1.8:
		components["spread"] = 20
	case in.SpreadRatio >= 1.2:
		components["spread"] = 12
	default:
		components["spread"] = 0
	}

	switch {
	case in.ClosePosition >= 0.8:
		components["close_position"] = 20
	case in.ClosePosition >= 0.5:
		components["close_position"] = 10
	default:
		components["close_position"] = 0
	}

	switch {
	case in.BreakoutPct >= 0.03:
		components["breakout_size"] = 15
	case in.BreakoutPct >= 0.01:
		components["breakout_size"] = 8
	default:
		components["breakout_size"] = 0
	}

	switch {
	case in.DurationBars >= 3:
		components["duration"] = 10
	case in.DurationBars >= 1:
		components["duration"] = 5
	}

	baseline := 65
	if in.EntryIsLPS {
		baseline = 80
	}
	components["entry_baseline"] = baseline

	if in.LPSHeld {
		components["lps_bonus"] = 15
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
