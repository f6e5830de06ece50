package patterns_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jthadison/wyckvol/internal/wyckoff"
	"github.com/jthadison/wyckvol/internal/wyckoff/patterns"
)

func simpleBars(n int, closeAt func(i int) float64) []wyckoff.OHLCVBar {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]wyckoff.OHLCVBar, n)
	for i := 0; i < n; i++ {
		c := closeAt(i)
		bars[i] = wyckoff.OHLCVBar{
			Symbol: "ACME", Timeframe: wyckoff.Timeframe1d,
			Timestamp: base.AddDate(0, 0, i),
			Open: d(c), High: d(c + 0.5), Low: d(c - 0.5), Close: d(c),
			Volume: d(1_000_000),
		}
	}
	return bars
}

func TestDetectAutomaticRally_RequiresThreePercentRally(t *testing.T) {
	bars := simpleBars(15, func(i int) float64 {
		if i <= 3 {
			return 100
		}
		return 105 // +5% rally
	})
	ratio := d(1.0)
	ar := patterns.DetectAutomaticRally(bars, 3, d(99.5), func(int) *decimal.Decimal { return &ratio })
	require.NotNil(t, ar)
	rallyPct, _ := ar.RallyPct.Float64()
	require.GreaterOrEqual(t, rallyPct, 0.03)
	require.LessOrEqual(t, ar.BarsAfterSC, 10)
}

func TestDetectAutomaticRally_RejectsSmallRally(t *testing.T) {
	bars := simpleBars(15, func(i int) float64 { return 100 })
	ratio := d(1.0)
	ar := patterns.DetectAutomaticRally(bars, 3, d(99.9), func(int) *decimal.Decimal { return &ratio })
	require.Nil(t, ar)
}

func TestDetectSecondaryTest_HoldsSCLowOnLowerVolume(t *testing.T) {
	bars := simpleBars(50, func(i int) float64 {
		if i == 30 {
			return 99.8 // near SC low of 100, within 2%
		}
		return 110
	})
	scVolRatio := d(2.0)
	testVolRatio := d(1.0) // 50% reduction from SC
	volumeRatioAt := func(i int) *decimal.Decimal {
		if i == 30 {
			return &testVolRatio
		}
		return &scVolRatio
	}
	st := patterns.DetectSecondaryTest(bars, 10, d(100), scVolRatio, volumeRatioAt, 1)
	require.NotNil(t, st)
	require.Equal(t, 30, st.BarIndexValue)
	require.Equal(t, 1, st.TestNumber)
	require.GreaterOrEqual(t, st.Confidence, 0)
	require.LessOrEqual(t, st.Confidence, 100)
}

func TestDetectSOSBreakout_RequiresVolumeSpreadAndClose(t *testing.T) {
	bars := simpleBars(10, func(i int) float64 { return 120 })
	bars[5].Close = d(122) // breakout above ice=120 by >1%
	bars[5].Low = d(120.5)
	bars[5].High = d(123)

	vr := d(2.0)
	sr := d(1.5)
	sos := patterns.DetectSOSBreakout(bars, d(120), 0,
		func(int) *decimal.Decimal { return &vr },
		func(int) *decimal.Decimal { return &sr },
	)
	require.NotNil(t, sos)
	require.Equal(t, 5, sos.BarIndexValue)
}

func TestDetectLPS_HoldsAboveIceOnLowerVolume(t *testing.T) {
	bars := simpleBars(20, func(i int) float64 { return 125 })
	bars[8].Low = d(120.1)
	bars[8].Close = d(123)

	lowVol := d(0.8)
	sosVol := d(2.0)
	lps := patterns.DetectLPS(bars, d(120), 5, sosVol, func(int) *decimal.Decimal { return &lowVol }, 10)
	require.NotNil(t, lps)
	require.True(t, lps.HeldSupport)
}
