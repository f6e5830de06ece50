package campaign

import (
	"github.com/shopspring/decimal"

	"github.com/jthadison/wyckvol/internal/wyckoff/patterns"
)

var climaxThreshold = decimal.NewFromFloat(2.0)

const volumeTrendWindow = 5

// recomputeTelemetry updates volume_profile, effort_vs_result, and
// climax/absorption flags from the campaign's pattern history
// (spec.md 4.E).
func (d *Detector) recomputeTelemetry(c *Campaign) {
	ratios := recentVolumeRatios(c.Patterns, volumeTrendWindow)
	c.VolumeTrend = classifyVolumeTrend(ratios)
	c.EffortVsResult = classifyEffortVsResult(c.Patterns)
	c.ClimaxDetected = anyAboveClimax(ratios)

	if spring, ok := latestSpring(c.Patterns); ok {
		c.AbsorptionQuality = absorptionQuality(c.Patterns, spring)
	}
}

func recentVolumeRatios(ps []patterns.Pattern, window int) []decimal.Decimal {
	var ratios []decimal.Decimal
	for _, p := range ps {
		switch v := p.(type) {
		case patterns.Spring:
			ratios = append(ratios, v.VolumeRatio)
		case patterns.SOSBreakout:
			ratios = append(ratios, v.VolumeRatio)
		case patterns.LPS:
			ratios = append(ratios, v.VolumeRatio)
		}
	}
	if len(ratios) > window {
		ratios = ratios[len(ratios)-window:]
	}
	return ratios
}

// classifyVolumeTrend requires at least 70% of consecutive steps to
// move the same direction to call INCREASING/DECLINING, else NEUTRAL
// (spec.md 4.E); fewer than two samples is UNKNOWN.
func classifyVolumeTrend(ratios []decimal.Decimal) VolumeTrend {
	if len(ratios) < 2 {
		return TrendUnknown
	}
	up, down, total := 0, 0, 0
	for i := 1; i < len(ratios); i++ {
		total++
		switch {
		case ratios[i].GreaterThan(ratios[i-1]):
			up++
		case ratios[i].LessThan(ratios[i-1]):
			down++
		}
	}
	if total == 0 {
		return TrendNeutral
	}
	upFrac := decimal.NewFromInt(int64(up)).Div(decimal.NewFromInt(int64(total)))
	downFrac := decimal.NewFromInt(int64(down)).Div(decimal.NewFromInt(int64(total)))
	threshold := decimal.NewFromFloat(0.7)
	switch {
	case upFrac.GreaterThanOrEqual(threshold):
		return TrendIncreasing
	case downFrac.GreaterThanOrEqual(threshold):
		return TrendDeclining
	default:
		return TrendNeutral
	}
}

// classifyEffortVsResult flags DIVERGENCE when a high-volume pattern
// produced a small price result, mirroring the effort/result
// relationship used in volume.Analysis (spec.md 4.A, 4.E).
func classifyEffortVsResult(ps []patterns.Pattern) EffortVsResult {
	if len(ps) == 0 {
		return EVRUnknown
	}
	switch v := ps[len(ps)-1].(type) {
	case patterns.SOSBreakout:
		if v.VolumeRatio.GreaterThanOrEqual(decimal.NewFromFloat(1.5)) && v.BreakoutPct.LessThan(decimal.NewFromFloat(0.02)) {
			return Divergence
		}
		return Harmony
	case patterns.Spring:
		if v.VolumeRatio.LessThan(decimal.NewFromFloat(0.7)) {
			return Harmony
		}
		return Divergence
	default:
		return EVRUnknown
	}
}

func anyAboveClimax(ratios []decimal.Decimal) bool {
	for _, r := range ratios {
		if r.GreaterThan(climaxThreshold) {
			return true
		}
	}
	return false
}

func latestSpring(ps []patterns.Pattern) (patterns.Spring, bool) {
	for i := len(ps) - 1; i >= 0; i-- {
		if s, ok := ps[i].(patterns.Spring); ok {
			return s, true
		}
	}
	return patterns.Spring{}, false
}

// absorptionQuality scores a Spring's absorption on three weighted
// components — volume (<=50%), subsequent AR latency (<=30%), and
// spring quality (<=20%) — bounded to [0,1] (spec.md 4.E).
func absorptionQuality(ps []patterns.Pattern, spring patterns.Spring) decimal.Decimal {
	volumeComponent := decimal.NewFromFloat(1).Sub(spring.VolumeRatio)
	if volumeComponent.LessThan(decimal.Zero) {
		volumeComponent = decimal.Zero
	}
	if volumeComponent.GreaterThan(decimal.NewFromInt(1)) {
		volumeComponent = decimal.NewFromInt(1)
	}

	latencyComponent := decimal.NewFromFloat(0.5)
	if ar, ok := nextAR(ps, spring.BarIndexValue); ok {
		if ar.BarsAfterSC <= 3 {
			latencyComponent = decimal.NewFromInt(1)
		} else if ar.BarsAfterSC <= 6 {
			latencyComponent = decimal.NewFromFloat(0.7)
		} else {
			latencyComponent = decimal.NewFromFloat(0.3)
		}
	}

	qualityComponent := decimal.NewFromFloat(1).Sub(spring.PenetrationPct.Div(decimal.NewFromFloat(0.05)))
	if qualityComponent.LessThan(decimal.Zero) {
		qualityComponent = decimal.Zero
	}

	score := volumeComponent.Mul(decimal.NewFromFloat(0.5)).
		Add(latencyComponent.Mul(decimal.NewFromFloat(0.3))).
		Add(qualityComponent.Mul(decimal.NewFromFloat(0.2)))

	if score.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	if score.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	return score
}

func nextAR(ps []patterns.Pattern, afterIndex int) (patterns.AutomaticRally, bool) {
	for _, p := range ps {
		if ar, ok := p.(patterns.AutomaticRally); ok && ar.BarIndexValue > afterIndex {
			return ar, true
		}
	}
	return patterns.AutomaticRally{}, false
}
