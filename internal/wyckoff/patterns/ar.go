package patterns

import (
	"github.com/shopspring/decimal"

	"github.com/jthadison/wyckvol/internal/wyckoff"
)

var minRallyPct = decimal.NewFromFloat(0.03)
var arVolumeProfileThreshold = decimal.NewFromFloat(1.2)

// DetectAutomaticRally searches [scIndex+1, min(scIndex+10, end)] for the
// rally off a Selling Climax low (spec.md 4.D). Requires a prior SC.
func DetectAutomaticRally(bars []wyckoff.OHLCVBar, scIndex int, scLow decimal.Decimal, volumeRatioAt func(int) *decimal.Decimal) *AutomaticRally {
	if scIndex < 0 || scIndex >= len(bars) {
		return nil
	}
	end := scIndex + 10
	if end >= len(bars) {
		end = len(bars) - 1
	}

	var best *AutomaticRally
	for i := scIndex + 1; i <= end; i++ {
		bar := bars[i]
		if scLow.IsZero() {
			continue
		}
		rally := bar.High.Sub(scLow).Div(scLow)
		if rally.LessThan(minRallyPct) {
			continue
		}
		if best != nil && bar.High.LessThanOrEqual(best.ARHigh) {
			continue
		}

		profile := "NORMAL"
		if vr := volumeRatioAt(i); vr != nil && vr.GreaterThanOrEqual(arVolumeProfileThreshold) {
			profile = "HIGH"
		}

		quality := decimal.NewFromFloat(0.5)
		if i-scIndex <= 5 {
			quality = decimal.NewFromFloat(0.8)
		}
		if profile == "HIGH" {
			quality = quality.Add(decimal.NewFromFloat(0.1))
			if quality.GreaterThan(decimal.NewFromInt(1)) {
				quality = decimal.NewFromInt(1)
			}
		}

		best = &AutomaticRally{
			BarValue:      bar,
			BarIndexValue: i,
			RallyPct:      rally,
			BarsAfterSC:   i - scIndex,
			SCReference:   scIndex,
			SCLow:         scLow,
			ARHigh:        bar.High,
			VolumeProfile: profile,
			QualityScore:  quality,
		}
	}
	return best
}
