package patterns

import (
	"github.com/shopspring/decimal"

	"github.com/jthadison/wyckvol/internal/wyckoff"
)

// lpsProximity is how close a pullback must come to Ice to count as an
// LPS retest rather than noise.
var lpsProximity = decimal.NewFromFloat(0.02)

// DetectLPS scans bars after an SOS breakout for a pullback toward Ice
// that holds support on lower volume than the SOS bar itself. This
// fleshes out the "LPS detection body" the source left sketched
// (spec.md 9, open question), following the contract in spec.md 4.D:
// LPS requires distance_from_ice, a held_support flag, volume_ratio,
// and the ice_level it is measured against.
func DetectLPS(bars []wyckoff.OHLCVBar, ice decimal.Decimal, sosIndex int, sosVolumeRatio decimal.Decimal, volumeRatioAt func(int) *decimal.Decimal, lookahead int) *LPS {
	if ice.IsZero() || sosIndex < 0 {
		return nil
	}
	end := sosIndex + lookahead
	if end >= len(bars) {
		end = len(bars) - 1
	}

	for i := sosIndex + 1; i <= end && i < len(bars); i++ {
		bar := bars[i]
		distance := bar.Low.Sub(ice).Abs().Div(ice)
		if distance.GreaterThan(lpsProximity) {
			continue
		}

		vr := volumeRatioAt(i)
		if vr == nil || !vr.LessThan(sosVolumeRatio) {
			continue
		}

		held := bar.Low.GreaterThanOrEqual(ice)

		return &LPS{
			BarValue:        bar,
			BarIndexValue:   i,
			DistanceFromIce: distance,
			HeldSupport:     held,
			VolumeRatio:     *vr,
			IceLevel:        ice,
		}
	}
	return nil
}
