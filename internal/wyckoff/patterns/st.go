package patterns

import (
	"github.com/shopspring/decimal"

	"github.com/jthadison/wyckvol/internal/wyckoff"
)

var (
	stMaxProximity       = decimal.NewFromFloat(0.02)
	stMinVolumeReduction = decimal.NewFromFloat(0.20)
	stMaxPenetration     = decimal.NewFromFloat(0.01)
)

// DetectSecondaryTest searches (arIndex+1, arIndex+40] for the best
// retest of the SC low on reduced volume (spec.md 4.D). testNumber
// numbers this test among previously-found tests for the same range,
// starting at 1 (the detector is re-invoked iteratively per spec).
func DetectSecondaryTest(bars []wyckoff.OHLCVBar, arIndex int, scLow decimal.Decimal, scVolumeRatio decimal.Decimal, volumeRatioAt func(int) *decimal.Decimal, testNumber int) *SecondaryTest {
	if scLow.IsZero() {
		return nil
	}
	start := arIndex + 1
	end := arIndex + 40
	if end >= len(bars) {
		end = len(bars) - 1
	}

	type candidate struct {
		index      int
		volumeRatio decimal.Decimal
		distance   decimal.Decimal
	}
	var best *candidate

	for i := start; i <= end && i < len(bars); i++ {
		bar := bars[i]
		distance := bar.Low.Sub(scLow).Abs().Div(scLow)
		if distance.GreaterThan(stMaxProximity) {
			continue
		}
		if bar.Low.LessThan(scLow) {
			penetration := scLow.Sub(bar.Low).Div(scLow)
			if penetration.GreaterThan(stMaxPenetration) {
				continue
			}
		}

		vr := volumeRatioAt(i)
		if vr == nil || !vr.LessThan(scVolumeRatio) {
			continue
		}
		reduction := scVolumeRatio.Sub(*vr).Div(scVolumeRatio)
		if reduction.LessThan(stMinVolumeReduction) {
			continue
		}

		c := candidate{index: i, volumeRatio: *vr, distance: distance}
		if best == nil ||
			c.volumeRatio.LessThan(best.volumeRatio) ||
			(c.volumeRatio.Equal(best.volumeRatio) && c.distance.LessThan(best.distance)) ||
			(c.volumeRatio.Equal(best.volumeRatio) && c.distance.Equal(best.distance) && c.index < best.index) {
			best = &c
		}
	}

	if best == nil {
		return nil
	}

	bar := bars[best.index]
	reduction := scVolumeRatio.Sub(best.volumeRatio).Div(scVolumeRatio)
	confidence := scoreSecondaryTest(reduction, best.distance, bar, scLow)

	penetration := decimal.Zero
	if bar.Low.LessThan(scLow) {
		penetration = scLow.Sub(bar.Low).Div(scLow)
	}

	return &SecondaryTest{
		BarValue:           bar,
		BarIndexValue:      best.index,
		DistanceFromSCLow:  best.distance,
		VolumeReductionPct: reduction,
		TestNumber:         testNumber,
		Penetration:        penetration,
		Confidence:         confidence,
	}
}

// scoreSecondaryTest reweights volume reduction (0-45), proximity
// (0-27), holding (0-18), close position (0-10), and a spread bonus
// (0-5), capped at 100 (spec.md 4.D).
func scoreSecondaryTest(reduction, distance decimal.Decimal, bar wyckoff.OHLCVBar, scLow decimal.Decimal) int {
	score := 0

	reductionF, _ := reduction.Float64()
	switch {
	case reductionF >= 0.5:
		score += 45
	case reductionF >= 0.35:
		score += 35
	case reductionF >= 0.20:
		score += 25
	}

	distanceF, _ := distance.Float64()
	switch {
	case distanceF <= 0.005:
		score += 27
	case distanceF <= 0.01:
		score += 20
	case distanceF <= 0.02:
		score += 12
	}

	if !bar.Low.LessThan(scLow) {
		score += 18
	} else {
		score += 9
	}

	cp := bar.ClosePosition()
	cpF, _ := cp.Float64()
	if cpF >= 0.5 {
		score += 10
	} else {
		score += 4
	}

	spreadF, _ := bar.Spread().Float64()
	if spreadF > 0 {
		score += 5
	}

	if score > 100 {
		score = 100
	}
	return score
}
