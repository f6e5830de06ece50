package patterns

import (
	"github.com/shopspring/decimal"

	"github.com/jthadison/wyckvol/internal/wyckoff"
	"github.com/jthadison/wyckvol/internal/wyckoff/levels"
	"github.com/jthadison/wyckvol/internal/wyckoff/patterns/scoring"
	"github.com/jthadison/wyckvol/internal/wyckoff/volume"
)

// volumeRejectThreshold is the binary Spring rejection rule: a
// candidate with volume_ratio >= this is a breakdown, not a spring.
// There is no soft degradation (spec.md 4.D step 2).
var volumeRejectThreshold = decimal.NewFromFloat(0.7)

var maxPenetration = decimal.NewFromFloat(0.05)

// SpringDetectionConfig configures the optional session-aware behavior
// of DetectSpring (spec.md 4.D steps 4-5).
type SpringDetectionConfig struct {
	SessionFilterEnabled          bool
	SessionConfidenceScoringEnabled bool
	StoreRejectedPatterns         bool
}

// DetectSpring scans bars[startIndex:] for the first valid Spring while
// the range is in Phase C. Returns nil if none is found (PatternRejection
// is not an error; absence is the return value per spec.md 7).
func DetectSpring(tr levels.TradingRange, currentPhase levels.Phase, bars []wyckoff.OHLCVBar, startIndex int, cache *volume.Cache, cfg SpringDetectionConfig, ac wyckoff.AssetClass, scorerFactory *scoring.Factory, previousTests []SecondaryTest) *Spring {
	if currentPhase != levels.PhaseC {
		return nil
	}
	if tr.Creek == nil {
		return nil
	}
	creek := tr.Creek.Price
	if startIndex < 20 {
		startIndex = 20
	}

	analyzer := volume.NewAnalyzer(cache)

	for i := startIndex; i < len(bars); i++ {
		bar := bars[i]
		if !bar.Low.LessThan(creek) {
			continue
		}

		penetration := creek.Sub(bar.Low).Div(creek)
		if penetration.GreaterThan(maxPenetration) {
			continue
		}

		va := analyzer.AnalyzeAt(bars, i)
		if va.VolumeRatio == nil {
			continue
		}
		if va.VolumeRatio.GreaterThanOrEqual(volumeRejectThreshold) {
			// binary rule: high volume on a break of support is a
			// breakdown, not a spring. No soft degradation.
			continue
		}

		recoveryBars, recoveryPrice, recovered := findRecovery(bars, i, creek)
		if !recovered {
			continue
		}

		if breakdownWithin(bars, i, creek, 10) {
			// invalidates the range; caller marks BREAKOUT.
			return nil
		}

		spring := &Spring{
			BarValue:       bar,
			BarIndexValue:  i,
			PenetrationPct: penetration,
			VolumeRatio:    *va.VolumeRatio,
			RecoveryBars:   recoveryBars,
			CreekReference: creek,
			SpringLow:      bar.Low,
			RecoveryPrice:  recoveryPrice,
			AssetClass:     ac,
		}

		applySessionRules(spring, bar, cfg)
		scoreSpring(spring, creek, tr.Creek.StrengthScore, scorerFactory, previousTests)

		if spring.RejectedBySessionFilter && !cfg.StoreRejectedPatterns {
			return nil
		}
		return spring
	}
	return nil
}

func findRecovery(bars []wyckoff.OHLCVBar, springIndex int, creek decimal.Decimal) (int, decimal.Decimal, bool) {
	for offset := 1; offset <= 5 && springIndex+offset < len(bars); offset++ {
		candidate := bars[springIndex+offset]
		if candidate.Close.GreaterThan(creek) {
			return offset, candidate.Close, true
		}
	}
	return 0, decimal.Zero, false
}

// breakdownWithin monitors the next n bars after a spring for a >=5%
// close below Creek, which invalidates the spring retroactively.
func breakdownWithin(bars []wyckoff.OHLCVBar, springIndex int, creek decimal.Decimal, n int) bool {
	threshold := decimal.NewFromFloat(0.05)
	for offset := 1; offset <= n && springIndex+offset < len(bars); offset++ {
		bar := bars[springIndex+offset]
		if bar.Close.GreaterThanOrEqual(creek) {
			continue
		}
		drop := creek.Sub(bar.Close).Div(creek)
		if drop.GreaterThanOrEqual(threshold) {
			return true
		}
	}
	return false
}

func applySessionRules(spring *Spring, bar wyckoff.OHLCVBar, cfg SpringDetectionConfig) {
	if !bar.Timeframe.Intraday() {
		return
	}
	session := volume.ClassifySession(bar.Timestamp)
	spring.SessionQuality = string(session)

	if cfg.SessionFilterEnabled && (session == volume.SessionAsian || session == volume.SessionNYClose) {
		spring.RejectedBySessionFilter = true
		spring.RejectionReason = "session filter: " + string(session)
		ts := bar.Timestamp
		spring.RejectionTimestamp = &ts
	}

	if cfg.SessionConfidenceScoringEnabled {
		spring.SessionConfidencePenalty = volume.SessionPenalty(session, cfg.SessionFilterEnabled)
	}
}

func scoreSpring(spring *Spring, creek decimal.Decimal, creekStrength int, factory *scoring.Factory, previousTests []SecondaryTest) {
	scorer := factory.Get(spring.AssetClass)
	spring.VolumeReliability = scorer.VolumeReliability()

	vr, _ := spring.VolumeRatio.Float64()
	pen, _ := spring.PenetrationPct.Float64()

	var prevVolumes []float64
	for _, t := range previousTests {
		vol, _ := t.BarValue.Volume.Float64()
		prevVolumes = append(prevVolumes, vol)
	}

	confidence := scorer.CalculateSpringConfidence(scoring.SpringInputs{
		VolumeRatio:         vr,
		PenetrationPct:      pen,
		RecoveryBars:        spring.RecoveryBars,
		HasTest:             len(previousTests) > 0,
		CreekStrengthScore:  creekStrength,
		PreviousTestVolumes: prevVolumes,
	})

	estimated := confidence.TotalScore + spring.SessionConfidencePenalty
	spring.IsTradeable = !spring.RejectedBySessionFilter && estimated >= scoring.MinimumConfidence
}
