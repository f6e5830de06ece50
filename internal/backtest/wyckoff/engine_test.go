package wyckoff

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jthadison/wyckvol/internal/supervisor"
	"github.com/jthadison/wyckvol/internal/wyckoff"
	"github.com/jthadison/wyckvol/internal/wyckoff/campaign"
	"github.com/jthadison/wyckvol/internal/wyckoff/orchestrator"
)

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

// flatBarsProvider serves a quiet, patternless bar series for every
// symbol: AnalyzeSymbol runs to completion but never finds a range
// worth trading, so backtestSymbol always reports zero trades.
type flatBarsProvider struct {
	n   int
	err error
}

func (p *flatBarsProvider) FetchHistorical(ctx context.Context, symbol string, start, end time.Time, timeframe wyckoff.Timeframe, ac wyckoff.AssetClass) ([]wyckoff.OHLCVBar, error) {
	if p.err != nil {
		return nil, p.err
	}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]wyckoff.OHLCVBar, p.n)
	for i := 0; i < p.n; i++ {
		bars[i] = wyckoff.OHLCVBar{
			Symbol: symbol, Timeframe: timeframe,
			Timestamp: base.AddDate(0, 0, i),
			Open: d(100), High: d(100.5), Low: d(99.5), Close: d(100),
			Volume: d(1_000_000),
		}
	}
	return bars, nil
}

type recordingSink struct {
	published []supervisor.Progress
}

func (s *recordingSink) Publish(runID string, p supervisor.Progress) {
	s.published = append(s.published, p)
}

func testEngine(n int) *Engine {
	provider := &flatBarsProvider{n: n}
	newOrchestrator := func() *orchestrator.Orchestrator {
		return orchestrator.NewOrchestrator(campaign.NewDetector(campaign.NewStore(), campaign.DailyDefaults()))
	}
	return NewEngine(provider, newOrchestrator)
}

func TestRunFull_NoPatternsYieldsZeroTrades(t *testing.T) {
	e := testEngine(40)
	sink := &recordingSink{}
	cfg := supervisor.FullConfig{
		Symbols: []string{"ACME", "GLOBEX"},
		Start:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		End:     time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}

	result, err := e.RunFull(context.Background(), "run-1", cfg, sink)
	require.NoError(t, err)

	agg, ok := result.(map[string]decimal.Decimal)
	require.True(t, ok)
	require.True(t, agg["trade_count"].Equal(decimal.Zero))
	require.True(t, agg["win_rate"].Equal(decimal.Zero))
	require.True(t, agg["avg_r_multiple"].Equal(decimal.Zero))
	require.Len(t, sink.published, len(cfg.Symbols))
	require.Equal(t, 2, sink.published[1].BarsAnalyzed)
}

func TestRunFull_PropagatesProviderError(t *testing.T) {
	e := testEngine(0)
	e.Provider = &flatBarsProvider{err: context.DeadlineExceeded}
	cfg := supervisor.FullConfig{Symbols: []string{"ACME"}, Start: time.Now(), End: time.Now().Add(time.Hour)}

	_, err := e.RunFull(context.Background(), "run-2", cfg, nil)
	require.Error(t, err)
}

func TestRunFull_StopsOnCanceledContext(t *testing.T) {
	e := testEngine(40)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := supervisor.FullConfig{Symbols: []string{"ACME"}, Start: time.Now(), End: time.Now().Add(time.Hour)}

	_, err := e.RunFull(ctx, "run-3", cfg, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunWalkForward_DegradesWhenNoTradesOccur(t *testing.T) {
	e := testEngine(40)
	cfg := supervisor.WalkForwardConfig{
		Symbols:        []string{"ACME"},
		Start:          time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		End:            time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		TrainWindow:    2 * 24 * time.Hour,
		ValidateWindow: 2 * 24 * time.Hour,
	}

	result, err := e.RunWalkForward(context.Background(), "run-4", cfg, nil)
	require.NoError(t, err)
	require.NotEmpty(t, result.Windows)
	for _, w := range result.Windows {
		require.True(t, w.TrainMetric.Equal(decimal.Zero))
		require.True(t, w.Degraded)
	}
	require.True(t, result.StabilityScore.Equal(decimal.Zero))
}

func TestRunRegression_NoBaselineReturnsBaselineNotSet(t *testing.T) {
	e := testEngine(40)
	cfg := supervisor.RegressionConfig{Symbols: []string{"ACME"}, Start: time.Now(), End: time.Now().Add(time.Hour)}

	result, err := e.RunRegression(context.Background(), "run-5", cfg, nil, nil)
	require.NoError(t, err)
	require.Equal(t, supervisor.RegressionBaselineNotSet, result.Status)
	require.False(t, result.RegressionDetected)
}

func TestRunRegression_FlagsDegradedWinRateAgainstBaseline(t *testing.T) {
	e := testEngine(40)
	cfg := supervisor.RegressionConfig{
		Symbols: []string{"ACME"},
		Start:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		End:     time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	baseline := &supervisor.RegressionBaseline{
		BaselineID: "b1",
		AggregateMetrics: map[string]decimal.Decimal{
			"win_rate":       d(0.60),
			"avg_r_multiple": d(1.2),
		},
	}

	result, err := e.RunRegression(context.Background(), "run-6", cfg, baseline, nil)
	require.NoError(t, err)
	require.Equal(t, supervisor.RegressionFail, result.Status)
	require.True(t, result.RegressionDetected)

	var sawWinRate bool
	for _, m := range result.Metrics {
		if m.Name == "win_rate" {
			sawWinRate = true
			require.True(t, m.Degraded)
			require.True(t, m.CurrentValue.Equal(decimal.Zero))
		}
	}
	require.True(t, sawWinRate)
}

func TestWinRateAndAvgR(t *testing.T) {
	m := symbolMetrics{trades: 4, wins: 3, totalR: d(6)}
	require.True(t, winRate(m).Equal(d(0.75)))
	require.True(t, avgR(m).Equal(d(1.5)))

	require.True(t, winRate(symbolMetrics{}).Equal(decimal.Zero))
	require.True(t, avgR(symbolMetrics{}).Equal(decimal.Zero))
}

func TestMergeInto(t *testing.T) {
	dst := symbolMetrics{trades: 1, wins: 1, totalR: d(1), rValues: []decimal.Decimal{d(1)}}
	mergeInto(&dst, symbolMetrics{trades: 2, wins: 0, totalR: d(-1.5), rValues: []decimal.Decimal{d(-1), d(-0.5)}})

	require.Equal(t, 3, dst.trades)
	require.Equal(t, 1, dst.wins)
	require.True(t, dst.totalR.Equal(d(-0.5)))
	require.Len(t, dst.rValues, 3)
}

func TestAggregateResult(t *testing.T) {
	m := symbolMetrics{trades: 2, wins: 1, totalR: d(0.5)}
	agg := aggregateResult(m)

	require.True(t, agg["win_rate"].Equal(d(0.5)))
	require.True(t, agg["avg_r_multiple"].Equal(d(0.25)))
	require.True(t, agg["total_r"].Equal(d(0.5)))
	require.True(t, agg["trade_count"].Equal(decimal.NewFromInt(2)))
}

func TestCoefficientOfVariation(t *testing.T) {
	require.True(t, coefficientOfVariation(nil).Equal(decimal.Zero))
	require.True(t, coefficientOfVariation([]decimal.Decimal{d(1)}).Equal(decimal.Zero))
	require.True(t, coefficientOfVariation([]decimal.Decimal{d(0), d(0)}).Equal(decimal.Zero))

	cv := coefficientOfVariation([]decimal.Decimal{d(1), d(3)})
	f, _ := cv.Float64()
	require.InDelta(t, 0.5, f, 1e-9)
}
