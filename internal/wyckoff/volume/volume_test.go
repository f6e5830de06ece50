package volume_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jthadison/wyckvol/internal/wyckoff"
	"github.com/jthadison/wyckvol/internal/wyckoff/volume"
)

func bar(ts time.Time, o, h, l, c, vol float64) wyckoff.OHLCVBar {
	return wyckoff.OHLCVBar{
		Symbol:    "TEST",
		Timeframe: wyckoff.Timeframe1d,
		Timestamp: ts,
		Open:      decimal.NewFromFloat(o),
		High:      decimal.NewFromFloat(h),
		Low:       decimal.NewFromFloat(l),
		Close:     decimal.NewFromFloat(c),
		Volume:    decimal.NewFromFloat(vol),
	}
}

func makeBars(n int, volumeFor func(i int) float64) []wyckoff.OHLCVBar {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]wyckoff.OHLCVBar, n)
	for i := 0; i < n; i++ {
		bars[i] = bar(base.AddDate(0, 0, i), 100, 101, 99, 100, volumeFor(i))
	}
	return bars
}

func TestAnalyzeAt_FirstNineteenBarsHaveNilRatios(t *testing.T) {
	bars := makeBars(19, func(i int) float64 { return 1_000_000 })
	a := volume.NewAnalyzer(nil)
	results := a.AnalyzeAll(bars)
	for i, r := range results {
		require.Falsef(t, r.Ready(), "bar %d should have nil ratios", i)
	}
}

func TestAnalyzeAt_VolumeRatioFormula(t *testing.T) {
	bars := makeBars(21, func(i int) float64 {
		if i == 20 {
			return 2_200_000
		}
		return 1_000_000
	})
	a := volume.NewAnalyzer(nil)
	result := a.AnalyzeAt(bars, 20)
	require.True(t, result.Ready())
	ratio, _ := result.VolumeRatio.Float64()
	// The 20-bar mean includes bar 20 itself: (19 x 1.0M + 2.2M) / 20 = 1.06M.
	require.InDelta(t, 2_200_000.0/1_060_000.0, ratio, 0.0001)
}

func TestClassify_Climactic(t *testing.T) {
	bars := makeBars(20, func(i int) float64 { return 1_000_000 })
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	hot := bar(base.AddDate(0, 0, 20), 100, 104, 96, 100, 2_200_000)
	bars = append(bars, hot)

	a := volume.NewAnalyzer(nil)
	result := a.AnalyzeAt(bars, 20)
	require.Equal(t, volume.Climactic, result.EffortResult)
}

func TestClassify_EffortNoResult(t *testing.T) {
	bars := makeBars(20, func(i int) float64 { return 1_000_000 })
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tight := bar(base.AddDate(0, 0, 20), 100, 100.5, 99.7, 100, 1_600_000)
	bars = append(bars, tight)

	a := volume.NewAnalyzer(nil)
	result := a.AnalyzeAt(bars, 20)
	require.Equal(t, volume.EffortNoResult, result.EffortResult)
}

func TestSessionPenalty(t *testing.T) {
	require.Equal(t, 0, volume.SessionPenalty(volume.SessionLondon, false))
	require.Equal(t, 0, volume.SessionPenalty(volume.SessionOverlap, true))
	require.Equal(t, -5, volume.SessionPenalty(volume.SessionNewYork, false))
	require.Equal(t, -20, volume.SessionPenalty(volume.SessionAsian, false))
	require.Equal(t, -25, volume.SessionPenalty(volume.SessionAsian, true))
	require.Equal(t, -25, volume.SessionPenalty(volume.SessionNYClose, false))
}

func TestClassifySession(t *testing.T) {
	require.Equal(t, volume.SessionAsian, volume.ClassifySession(time.Date(2026, 1, 1, 3, 0, 0, 0, time.UTC)))
	require.Equal(t, volume.SessionLondon, volume.ClassifySession(time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)))
	require.Equal(t, volume.SessionOverlap, volume.ClassifySession(time.Date(2026, 1, 1, 13, 0, 0, 0, time.UTC)))
	require.Equal(t, volume.SessionNewYork, volume.ClassifySession(time.Date(2026, 1, 1, 17, 0, 0, 0, time.UTC)))
	require.Equal(t, volume.SessionNYClose, volume.ClassifySession(time.Date(2026, 1, 1, 21, 0, 0, 0, time.UTC)))
}
