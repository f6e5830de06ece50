package orchestrator_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jthadison/wyckvol/internal/wyckoff"
	"github.com/jthadison/wyckvol/internal/wyckoff/campaign"
	"github.com/jthadison/wyckvol/internal/wyckoff/levels"
	"github.com/jthadison/wyckvol/internal/wyckoff/orchestrator"
	"github.com/jthadison/wyckvol/internal/wyckoff/patterns"
)

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func newTestOrchestrator() *orchestrator.Orchestrator {
	return orchestrator.NewOrchestrator(campaign.NewDetector(campaign.NewStore(), campaign.DailyDefaults()))
}

// triangleWave is a clean, repeating 10-bar triangle between 99.0 and
// 101.0 (period boundaries are strict local extrema under a 3-bar
// lookback), used to give levels.Detector a stable Support/Resistance
// pair without any engineered breakout.
var triangleWave = [10]float64{99.0, 99.4, 99.8, 100.2, 100.6, 101.0, 100.6, 100.2, 99.8, 99.4}

func rangeBars(n int) []wyckoff.OHLCVBar {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]wyckoff.OHLCVBar, n)
	for i := 0; i < n; i++ {
		v := triangleWave[i%10]
		bars[i] = wyckoff.OHLCVBar{
			Symbol: "ACME", Timeframe: wyckoff.Timeframe1d,
			Timestamp: base.AddDate(0, 0, i),
			Open:      d(v), Close: d(v),
			High: d(v + 0.3), Low: d(v - 0.3),
			Volume: d(1_000_000),
		}
	}
	return bars
}

func TestAnalyzeSymbol_EmptyBars(t *testing.T) {
	o := newTestOrchestrator()
	result := o.AnalyzeSymbol("ACME", wyckoff.Timeframe1d, nil)

	require.Empty(t, result.Signals)
	require.Len(t, result.Stages, 1)
	require.Equal(t, orchestrator.StageIngest, result.Stages[0].Stage)
	require.False(t, result.Stages[0].Success)
}

func TestAnalyzeSymbol_NoTradingRange(t *testing.T) {
	o := newTestOrchestrator()
	// Too few bars for levels.Detector's minimum duration: no range is
	// ever formed, so the pipeline stops at RANGE_DETECTED.
	bars := rangeBars(10)

	result := o.AnalyzeSymbol("ACME", wyckoff.Timeframe1d, bars)

	require.Empty(t, result.Signals)
	var sawRangeStage bool
	for _, s := range result.Stages {
		if s.Stage == orchestrator.StageRange {
			sawRangeStage = true
			require.False(t, s.Success)
		}
	}
	require.True(t, sawRangeStage)
}

func TestAnalyzeSymbol_QuietRangeNeverReachesTradingAllowed(t *testing.T) {
	// A clean, repeating range with no climax, no breakout: no detector
	// ever fires, so Events stays empty and confidence never reaches
	// phase.MinConfidence. This is the exact failure mode the empty
	// phase.Events{} bug always produced -- but now for the right
	// reason (no real evidence), not because Classify ran before any
	// detector did.
	o := newTestOrchestrator()
	bars := rangeBars(60)

	result := o.AnalyzeSymbol("ACME", wyckoff.Timeframe1d, bars)

	require.Empty(t, result.Signals)
	patternIdx, phaseIdx := -1, -1
	for i, s := range result.Stages {
		switch s.Stage {
		case orchestrator.StagePattern:
			patternIdx = i
		case orchestrator.StagePhase:
			phaseIdx = i
			require.False(t, s.Success)
			require.Contains(t, s.FailedDetectors, "phase:low_confidence")
		}
	}
	require.NotEqual(t, -1, patternIdx)
	require.NotEqual(t, -1, phaseIdx)
	// Pattern detection must gather evidence before phase classification
	// rules on it -- the exact ordering bug the reviewer flagged.
	require.Less(t, patternIdx, phaseIdx)
}

// TestAnalyzeSymbol_SOSBreakoutProducesTradingAllowedSignal drives a
// real Sign-of-Strength breakout through the full pipeline: the
// detector output feeds phase.Events before Classify is ever called,
// so a single strong SOS event alone clears phase.MinConfidence
// (40 presence + ~30 quality + 20 sequence + 10 range context) and the
// pipeline produces a trade signal. Before the orchestrator fix, this
// scenario produced zero signals unconditionally because Classify was
// called against an empty phase.Events{} before any detector ran.
func TestAnalyzeSymbol_SOSBreakoutProducesTradingAllowedSignal(t *testing.T) {
	o := newTestOrchestrator()
	bars := rangeBars(70)

	// Override the final bar as a clean SOS breakout above the 101.3
	// Ice level established by the triangle wave's repeated highs:
	// breakout_pct ~2%, volume_ratio ~2.7x, spread_ratio ~4.2x,
	// close_position ~0.61. It sits in the last lookback window so it
	// never becomes a competing pivot for levels.Detector itself.
	last := len(bars) - 1
	bars[last].Open = d(102.0)
	bars[last].Close = d(103.326)
	bars[last].High = d(104.5)
	bars[last].Low = d(101.5)
	bars[last].Volume = d(3_000_000)

	result := o.AnalyzeSymbol("ACME", wyckoff.Timeframe1d, bars)

	require.NotEmpty(t, result.Signals)
	sig := result.Signals[0]
	require.Equal(t, levels.PhaseD, sig.Phase)
	require.GreaterOrEqual(t, sig.Confidence, 70)
	sos, ok := sig.Pattern.(patterns.SOSBreakout)
	require.True(t, ok)
	require.Equal(t, last, sos.BarIndexValue)
	require.Nil(t, sig.Cause) // the range never reached ACTIVE status
}
