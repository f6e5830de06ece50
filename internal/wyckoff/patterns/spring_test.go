package patterns_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jthadison/wyckvol/internal/wyckoff"
	"github.com/jthadison/wyckvol/internal/wyckoff/levels"
	"github.com/jthadison/wyckvol/internal/wyckoff/patterns"
	"github.com/jthadison/wyckvol/internal/wyckoff/patterns/scoring"
)

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

// thirtyBarsWithCreek builds 30 daily bars with a 1,000,000 twenty-bar
// volume mean and a Spring candidate at index 22, matching spec.md 8
// scenario 1 (stock, excellent spring).
func thirtyBarsWithCreekSpring(candidateVolume float64) []wyckoff.OHLCVBar {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]wyckoff.OHLCVBar, 30)
	for i := 0; i < 30; i++ {
		bars[i] = wyckoff.OHLCVBar{
			Symbol: "ACME", Timeframe: wyckoff.Timeframe1d,
			Timestamp: base.AddDate(0, 0, i),
			Open: d(100.5), High: d(101.5), Low: d(100.2), Close: d(100.8),
			Volume: d(1_000_000),
		}
	}
	bars[22] = wyckoff.OHLCVBar{
		Symbol: "ACME", Timeframe: wyckoff.Timeframe1d,
		Timestamp: base.AddDate(0, 0, 22),
		Open: d(99.5), High: d(100.2), Low: d(98.5), Close: d(99.8),
		Volume: d(candidateVolume),
	}
	bars[23] = wyckoff.OHLCVBar{
		Symbol: "ACME", Timeframe: wyckoff.Timeframe1d,
		Timestamp: base.AddDate(0, 0, 23),
		Open: d(99.8), High: d(100.6), Low: d(99.6), Close: d(100.5),
		Volume: d(1_000_000),
	}
	return bars
}

func creekRange() levels.TradingRange {
	creek := levels.Level{Price: d(100.00), StrengthScore: 85}
	return levels.TradingRange{Support: d(100), Resistance: d(120), Creek: &creek}
}

func TestDetectSpring_ExcellentStockScenario(t *testing.T) {
	bars := thirtyBarsWithCreekSpring(220_000) // ratio 0.22
	factory := scoring.NewFactory()

	spring := patterns.DetectSpring(creekRange(), levels.PhaseC, bars, 20, nil, patterns.SpringDetectionConfig{}, wyckoff.AssetClassStock, factory, nil)
	require.NotNil(t, spring)
	require.Equal(t, 22, spring.BarIndexValue)
	require.Equal(t, 1, spring.RecoveryBars)
	require.True(t, spring.VolumeRatio.LessThan(d(0.7)))

	penetration, _ := spring.PenetrationPct.Float64()
	require.InDelta(t, 0.015, penetration, 0.001)
}

func TestDetectSpring_RejectedByVolume(t *testing.T) {
	bars := thirtyBarsWithCreekSpring(750_000) // ratio 0.75
	factory := scoring.NewFactory()

	spring := patterns.DetectSpring(creekRange(), levels.PhaseC, bars, 20, nil, patterns.SpringDetectionConfig{}, wyckoff.AssetClassStock, factory, nil)
	require.Nil(t, spring)
}

func TestDetectSpring_OnlyValidInPhaseC(t *testing.T) {
	bars := thirtyBarsWithCreekSpring(220_000)
	factory := scoring.NewFactory()

	spring := patterns.DetectSpring(creekRange(), levels.PhaseB, bars, 20, nil, patterns.SpringDetectionConfig{}, wyckoff.AssetClassStock, factory, nil)
	require.Nil(t, spring)
}

func TestDetectSpring_SessionFilteredForexIntraday(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]wyckoff.OHLCVBar, 30)
	for i := 0; i < 30; i++ {
		bars[i] = wyckoff.OHLCVBar{
			Symbol: "EURUSD", Timeframe: wyckoff.Timeframe15m,
			Timestamp: base.Add(time.Duration(i) * 15 * time.Minute),
			Open: d(1.1), High: d(1.101), Low: d(1.0995), Close: d(1.1002),
			Volume: d(1_000_000),
		}
	}
	// Candidate at index 22, forced into the ASIAN session (03:00 UTC).
	asianTime := time.Date(2026, 1, 1, 3, 0, 0, 0, time.UTC)
	bars[22] = wyckoff.OHLCVBar{
		Symbol: "EURUSD", Timeframe: wyckoff.Timeframe15m,
		Timestamp: asianTime,
		Open: d(1.0999), High: d(1.1002), Low: d(1.0985), Close: d(1.0998),
		Volume: d(220_000),
	}
	bars[23] = wyckoff.OHLCVBar{
		Symbol: "EURUSD", Timeframe: wyckoff.Timeframe15m,
		Timestamp: asianTime.Add(15 * time.Minute),
		Open: d(1.0998), High: d(1.1005), Low: d(1.0997), Close: d(1.1003),
		Volume: d(1_000_000),
	}

	creek := levels.Level{Price: d(1.0995), StrengthScore: 80}
	tr := levels.TradingRange{Support: d(1.0995), Resistance: d(1.12), Creek: &creek}

	cfg := patterns.SpringDetectionConfig{SessionFilterEnabled: true, StoreRejectedPatterns: true}
	factory := scoring.NewFactory()

	spring := patterns.DetectSpring(tr, levels.PhaseC, bars, 20, nil, cfg, wyckoff.AssetClassForex, factory, nil)
	require.NotNil(t, spring)
	require.True(t, spring.RejectedBySessionFilter)
	require.NotEmpty(t, spring.RejectionReason)
	require.False(t, spring.IsTradeable)
	require.NotNil(t, spring.RejectionTimestamp)
}

func TestDetectSpring_StoreRejectedFalseDropsPattern(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]wyckoff.OHLCVBar, 30)
	for i := 0; i < 30; i++ {
		bars[i] = wyckoff.OHLCVBar{
			Symbol: "EURUSD", Timeframe: wyckoff.Timeframe15m,
			Timestamp: base.Add(time.Duration(i) * 15 * time.Minute),
			Open: d(1.1), High: d(1.101), Low: d(1.0995), Close: d(1.1002),
			Volume: d(1_000_000),
		}
	}
	asianTime := time.Date(2026, 1, 1, 3, 0, 0, 0, time.UTC)
	bars[22] = wyckoff.OHLCVBar{
		Symbol: "EURUSD", Timeframe: wyckoff.Timeframe15m,
		Timestamp: asianTime,
		Open: d(1.0999), High: d(1.1002), Low: d(1.0985), Close: d(1.0998),
		Volume: d(220_000),
	}
	bars[23] = wyckoff.OHLCVBar{
		Symbol: "EURUSD", Timeframe: wyckoff.Timeframe15m,
		Timestamp: asianTime.Add(15 * time.Minute),
		Open: d(1.0998), High: d(1.1005), Low: d(1.0997), Close: d(1.1003),
		Volume: d(1_000_000),
	}

	creek := levels.Level{Price: d(1.0995), StrengthScore: 80}
	tr := levels.TradingRange{Support: d(1.0995), Resistance: d(1.12), Creek: &creek}

	cfg := patterns.SpringDetectionConfig{SessionFilterEnabled: true, StoreRejectedPatterns: false}
	factory := scoring.NewFactory()

	spring := patterns.DetectSpring(tr, levels.PhaseC, bars, 20, nil, cfg, wyckoff.AssetClassForex, factory, nil)
	require.Nil(t, spring)
}
