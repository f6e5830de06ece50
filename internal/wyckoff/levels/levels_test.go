package levels_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jthadison/wyckvol/internal/wyckoff"
	"github.com/jthadison/wyckvol/internal/wyckoff/levels"
)

func rangingBars() []wyckoff.OHLCVBar {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	lows := []float64{100, 99, 100.5, 99.2, 100.1, 99.3, 100.4, 99.1, 100.2, 99.5,
		100, 99.4, 100.3, 99.2, 100.1, 99.3, 100.4, 99.1, 100.2, 99.5}
	highs := []float64{110, 109.5, 110.2, 109.1, 110.3, 109.2, 110.1, 109.4, 110.2, 109.3,
		110, 109.5, 110.2, 109.1, 110.3, 109.2, 110.1, 109.4, 110.2, 109.3}
	bars := make([]wyckoff.OHLCVBar, len(lows))
	for i := range lows {
		bars[i] = wyckoff.OHLCVBar{
			Symbol:    "ACME",
			Timeframe: wyckoff.Timeframe1d,
			Timestamp: base.AddDate(0, 0, i),
			Open:      decimal.NewFromFloat((lows[i] + highs[i]) / 2),
			High:      decimal.NewFromFloat(highs[i]),
			Low:       decimal.NewFromFloat(lows[i]),
			Close:     decimal.NewFromFloat((lows[i] + highs[i]) / 2),
			Volume:    decimal.NewFromFloat(1_000_000),
		}
	}
	return bars
}

func TestDetect_JumpIsIcePlusRangeHeight(t *testing.T) {
	d := levels.NewDetector()
	ranges := d.Detect(rangingBars())
	require.NotEmpty(t, ranges)

	tr := ranges[0]
	require.True(t, tr.Resistance.GreaterThan(tr.Support))
	require.NotNil(t, tr.Creek)
	require.NotNil(t, tr.Ice)
	require.NotNil(t, tr.Jump)

	expectedJump := tr.Ice.Price.Add(tr.Ice.Price.Sub(tr.Creek.Price))
	require.True(t, tr.Jump.Price.Equal(expectedJump))
	require.GreaterOrEqual(t, tr.QualityScore, 60)
	require.LessOrEqual(t, tr.QualityScore, 100)
}

func TestDetect_TooFewBarsProducesNoRange(t *testing.T) {
	d := levels.NewDetector()
	ranges := d.Detect(rangingBars()[:5])
	require.Empty(t, ranges)
}

func TestRegisterTouch_PromotesFormingToActive(t *testing.T) {
	d := levels.NewDetector()
	ranges := d.Detect(rangingBars())
	require.NotEmpty(t, ranges)
	tr := ranges[0]
	require.Equal(t, levels.Forming, tr.Status)

	levels.RegisterTouch(&tr, wyckoff.OHLCVBar{
		Low:  tr.Creek.Price,
		High: tr.Creek.Price.Add(decimal.NewFromFloat(1)),
	})
	require.Equal(t, levels.Active, tr.Status)
}
