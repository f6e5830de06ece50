package schematic_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jthadison/wyckvol/internal/wyckoff"
	"github.com/jthadison/wyckvol/internal/wyckoff/patterns"
	"github.com/jthadison/wyckvol/internal/wyckoff/schematic"
)

func bar() wyckoff.OHLCVBar {
	return wyckoff.OHLCVBar{Timestamp: time.Now()}
}

func TestMatchAll_Accumulation1WithCriticalSpringBonus(t *testing.T) {
	ps := []patterns.Pattern{
		patterns.Spring{BarValue: bar()},
		patterns.AutomaticRally{BarValue: bar()},
		patterns.SecondaryTest{BarValue: bar()},
		patterns.SOSBreakout{BarValue: bar()},
	}
	match := schematic.MatchAll(ps)
	require.NotNil(t, match)
	require.Equal(t, schematic.Accumulation1, match.Schematic)
	require.Equal(t, 95, match.Confidence) // 100 base + 10 bonus, capped at 95
}

func TestMatchAll_NoMatchBelowFloor(t *testing.T) {
	ps := []patterns.Pattern{patterns.AutomaticRally{BarValue: bar()}}
	match := schematic.MatchAll(ps)
	require.Nil(t, match)
}

func TestMatchAll_Accumulation2PrefersLPSOverSpring(t *testing.T) {
	ps := []patterns.Pattern{
		patterns.AutomaticRally{BarValue: bar()},
		patterns.SecondaryTest{BarValue: bar()},
		patterns.LPS{BarValue: bar(), VolumeRatio: decimal.NewFromFloat(0.5)},
		patterns.SOSBreakout{BarValue: bar()},
	}
	match := schematic.MatchAll(ps)
	require.NotNil(t, match)
	require.Equal(t, schematic.Accumulation2, match.Schematic)
}
