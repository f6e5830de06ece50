package cause_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jthadison/wyckvol/internal/wyckoff"
	"github.com/jthadison/wyckvol/internal/wyckoff/cause"
	"github.com/jthadison/wyckvol/internal/wyckoff/levels"
)

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func rangeBars(n int, wideAt map[int]bool) []wyckoff.OHLCVBar {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]wyckoff.OHLCVBar, n)
	for i := 0; i < n; i++ {
		high, low := d(101), d(99)
		if wideAt[i] {
			high, low = d(110), d(90)
		}
		bars[i] = wyckoff.OHLCVBar{
			Symbol: "ACME", Timeframe: wyckoff.Timeframe1d, Timestamp: base.AddDate(0, 0, i),
			Open: d(100), High: high, Low: low, Close: d(100), Volume: d(1_000_000),
		}
	}
	return bars
}

func activeRange() levels.TradingRange {
	creek := levels.Level{Price: d(100)}
	ice := levels.Level{Price: d(120)}
	return levels.TradingRange{Status: levels.Active, Creek: &creek, Ice: &ice}
}

func TestBuild_NilWhenRangeNotActive(t *testing.T) {
	tr := activeRange()
	tr.Status = levels.Forming
	require.Nil(t, cause.Build(tr, rangeBars(20, nil)))
}

func TestBuild_CountsWideRangeBarsAndCapsProgress(t *testing.T) {
	wide := map[int]bool{2: true, 5: true, 10: true}
	data := cause.Build(activeRange(), rangeBars(20, wide))
	require.NotNil(t, data)
	require.Equal(t, 3, data.ColumnCount)
	require.True(t, data.ProgressPct.LessThanOrEqual(d(100)))
	require.True(t, data.ProjectedJump.GreaterThan(d(100)))
}
