package patterns

import (
	"github.com/shopspring/decimal"

	"github.com/jthadison/wyckvol/internal/wyckoff"
)

// scClimaxVolumeRatio is the minimum volume ratio a candidate bar needs
// to count as climactic (spec.md 4.E's climax_detected threshold is
// stricter at 2.0; this is the same bar-level test applied here to open
// Phase A).
var scClimaxVolumeRatio = decimal.NewFromFloat(2.0)

// scSearchWindow bounds how far past a range's start DetectSellingClimax
// looks for the climactic low.
const scSearchWindow = 20

// SellingClimax is the climactic breakdown that opens Phase A: a bar
// whose low breaches support on climactic volume, marking the low the
// Automatic Rally and Secondary Test are both measured against. It is
// phase evidence the classifier consumes, not one of the five tradeable
// pattern variants component D scores (spec.md 3's Pattern sum type is
// Spring/AR/ST/SOS/LPS only), so it does not implement Pattern.
type SellingClimax struct {
	BarValue      wyckoff.OHLCVBar
	BarIndexValue int
	SCLow         decimal.Decimal
	VolumeRatio   decimal.Decimal
	Confidence    int // [0,100]
}

// DetectSellingClimax searches [startIndex, startIndex+scSearchWindow]
// for the lowest low among bars that breach support on volume_ratio >=
// 2.0. Returns nil when no bar clears the volume bar, in which case the
// range has no SC evidence (AR/ST detection then has nothing to anchor
// to, but Spring/SOS/LPS are still attempted independently).
func DetectSellingClimax(bars []wyckoff.OHLCVBar, startIndex int, support decimal.Decimal, volumeRatioAt func(int) *decimal.Decimal) *SellingClimax {
	if startIndex < 0 || startIndex >= len(bars) {
		return nil
	}
	end := startIndex + scSearchWindow
	if end >= len(bars) {
		end = len(bars) - 1
	}

	var best *SellingClimax
	for i := startIndex; i <= end; i++ {
		bar := bars[i]
		if !support.IsZero() && bar.Low.GreaterThan(support) {
			continue
		}
		vr := volumeRatioAt(i)
		if vr == nil || vr.LessThan(scClimaxVolumeRatio) {
			continue
		}
		if best != nil && bar.Low.GreaterThanOrEqual(best.SCLow) {
			continue
		}
		best = &SellingClimax{
			BarValue:      bar,
			BarIndexValue: i,
			SCLow:         bar.Low,
			VolumeRatio:   *vr,
			Confidence:    climaxConfidence(*vr),
		}
	}
	return best
}

// climaxConfidence scales volume ratio to [60,100]: the 2.0 floor earns
// 60, each additional 1.0x adds 40 more, capped at 100.
func climaxConfidence(vr decimal.Decimal) int {
	f, _ := vr.Float64()
	score := 60 + int((f-2.0)*40)
	if score > 100 {
		score = 100
	}
	if score < 60 {
		score = 60
	}
	return score
}
