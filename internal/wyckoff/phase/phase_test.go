package phase_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jthadison/wyckvol/internal/wyckoff/levels"
	"github.com/jthadison/wyckvol/internal/wyckoff/phase"
)

func baseRange() levels.TradingRange {
	creek := levels.Level{Price: decimal.NewFromFloat(100), StrengthScore: 85}
	ice := levels.Level{Price: decimal.NewFromFloat(110), StrengthScore: 80}
	return levels.TradingRange{
		Support: decimal.NewFromFloat(100),
		Resistance: decimal.NewFromFloat(110),
		Creek:      &creek,
		Ice:        &ice,
	}
}

func TestClassify_PhaseA_RequiresSCAndAR(t *testing.T) {
	c := phase.NewClassifier()
	ev := phase.Events{
		SC: &phase.Event{Kind: phase.EventSC, BarIndex: 5, Confidence: 80},
		AR: &phase.Event{Kind: phase.EventAR, BarIndex: 8, Confidence: 75},
	}
	result := c.Classify(baseRange(), ev)
	require.Equal(t, levels.PhaseB, result.Phase) // AR present advances derivation to B
	require.GreaterOrEqual(t, result.Confidence, 40)
}

func TestClassify_LowConfidenceBlocksTrading(t *testing.T) {
	c := phase.NewClassifier()
	ev := phase.Events{}
	result := c.Classify(baseRange(), ev)
	require.False(t, result.TradingAllowed)
	require.Less(t, result.Confidence, phase.MinConfidence)
}

func TestClassify_HighConfidencePhaseD(t *testing.T) {
	c := phase.NewClassifier()
	now := time.Now()
	ev := phase.Events{
		SC:     &phase.Event{Kind: phase.EventSC, BarIndex: 1, Confidence: 90, Timestamp: now},
		AR:     &phase.Event{Kind: phase.EventAR, BarIndex: 5, Confidence: 85, Timestamp: now},
		ST:     []phase.Event{{Kind: phase.EventST, BarIndex: 10, Confidence: 80}, {Kind: phase.EventST, BarIndex: 20, Confidence: 78}},
		Spring: &phase.Event{Kind: phase.EventSpring, BarIndex: 25, Confidence: 95},
		SOS:    &phase.Event{Kind: phase.EventSOS, BarIndex: 30, Confidence: 90},
	}
	result := c.Classify(baseRange(), ev)
	require.Equal(t, levels.PhaseD, result.Phase)
	require.True(t, result.TradingAllowed)
	require.GreaterOrEqual(t, result.Confidence, phase.MinConfidence)
}
