package patterns

import (
	"github.com/shopspring/decimal"

	"github.com/jthadison/wyckvol/internal/wyckoff"
)

var (
	sosMinBreakoutPct   = decimal.NewFromFloat(0.01)
	sosMinVolumeRatio   = decimal.NewFromFloat(1.5)
	sosMinSpreadRatio   = decimal.NewFromFloat(1.2)
	sosMinClosePosition = decimal.NewFromFloat(0.5)
)

// DetectSOSBreakout scans bars from startIndex for the first bar that
// breaches Ice with the effort/result profile spec.md 4.D requires:
// breakout_pct >= 1%, volume_ratio >= 1.5, spread_ratio >= 1.2,
// close_position >= 0.5. This fleshes out the "SOS detection body" the
// source left sketched (spec.md 9, open question).
func DetectSOSBreakout(bars []wyckoff.OHLCVBar, ice decimal.Decimal, startIndex int, volumeRatioAt, spreadRatioAt func(int) *decimal.Decimal) *SOSBreakout {
	if ice.IsZero() {
		return nil
	}
	if startIndex < 0 {
		startIndex = 0
	}

	for i := startIndex; i < len(bars); i++ {
		bar := bars[i]
		if !bar.Close.GreaterThan(ice) {
			continue
		}
		breakoutPct := bar.Close.Sub(ice).Div(ice)
		if breakoutPct.LessThan(sosMinBreakoutPct) {
			continue
		}

		vr := volumeRatioAt(i)
		if vr == nil || vr.LessThan(sosMinVolumeRatio) {
			continue
		}
		sr := spreadRatioAt(i)
		if sr == nil || sr.LessThan(sosMinSpreadRatio) {
			continue
		}

		cp := bar.ClosePosition()
		if cp.LessThan(sosMinClosePosition) {
			continue
		}

		return &SOSBreakout{
			BarValue:      bar,
			BarIndexValue: i,
			BreakoutPct:   breakoutPct,
			VolumeRatio:   *vr,
			SpreadRatio:   *sr,
			ClosePosition: cp,
			BreakoutPrice: bar.Close,
		}
	}
	return nil
}
