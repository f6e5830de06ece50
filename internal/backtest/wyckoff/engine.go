// Package wyckoff (backtest) implements supervisor.Executor: the
// engine behind FULL, WALK_FORWARD, and REGRESSION runs. Grounded in
// the teacher's internal/backtest/smoke90 Runner (rolling-window scan
// over historical candidates, aggregate metrics, Clock injection for
// testability) and internal/backtest/march_aug's train/validate window
// split, adapted from momentum-factor backtesting to driving the
// Wyckoff orchestrator across historical bar windows.
package wyckoff

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jthadison/wyckvol/internal/marketdata"
	"github.com/jthadison/wyckvol/internal/supervisor"
	"github.com/jthadison/wyckvol/internal/wyckoff"
	"github.com/jthadison/wyckvol/internal/wyckoff/assetclass"
	"github.com/jthadison/wyckvol/internal/wyckoff/orchestrator"
	"github.com/jthadison/wyckvol/internal/wyckoff/patterns"
)

// Clock is injectable for deterministic tests, matching the teacher's
// smoke90.Clock seam.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using wall-clock time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Engine runs the orchestrator across historical bar windows and
// aggregates trade outcomes into the metrics spec.md 4.F's
// walk-forward and regression flows compare.
type Engine struct {
	Provider    marketdata.Provider
	NewOrchestrator func() *orchestrator.Orchestrator
	HoldBars    int // bars held before a synthetic exit, default 10
	Clock       Clock
}

// NewEngine builds an Engine with spec defaults (10-bar hold).
func NewEngine(provider marketdata.Provider, newOrchestrator func() *orchestrator.Orchestrator) *Engine {
	return &Engine{Provider: provider, NewOrchestrator: newOrchestrator, HoldBars: 10, Clock: RealClock{}}
}

// symbolMetrics is one symbol's aggregated trade outcomes for one
// evaluation window.
type symbolMetrics struct {
	trades     int
	wins       int
	totalR     decimal.Decimal
	rValues    []decimal.Decimal
}

// RunFull implements supervisor.Executor.RunFull: analyze every
// configured symbol across [Start,End], simulate each signal's outcome
// over a fixed hold period, and report aggregate win rate / R-multiple.
func (e *Engine) RunFull(ctx context.Context, runID string, cfg supervisor.FullConfig, sink supervisor.ProgressSink) (interface{}, error) {
	agg := symbolMetrics{}
	seq := 0
	for i, symbol := range cfg.Symbols {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		m, err := e.backtestSymbol(ctx, symbol, cfg.Start, cfg.End, wyckoff.Timeframe1d)
		if err != nil {
			return nil, err
		}
		mergeInto(&agg, m)

		seq++
		if sink != nil {
			sink.Publish(runID, supervisor.Progress{
				BarsAnalyzed:    i + 1,
				TotalBars:       len(cfg.Symbols),
				PercentComplete: decimal.NewFromInt(int64(i + 1)).Div(decimal.NewFromInt(int64(len(cfg.Symbols)))).Mul(decimal.NewFromInt(100)),
				SequenceNumber:  seq,
				Timestamp:       e.Clock.Now(),
			})
		}
	}
	return aggregateResult(agg), nil
}

// RunWalkForward implements supervisor.Executor.RunWalkForward: splits
// [Start,End] into rolling train/validate windows and flags windows
// whose validate/train performance ratio falls below the threshold.
func (e *Engine) RunWalkForward(ctx context.Context, runID string, cfg supervisor.WalkForwardConfig, sink supervisor.ProgressSink) (supervisor.WalkForwardResult, error) {
	train := cfg.TrainWindow
	validate := cfg.ValidateWindow
	if train <= 0 {
		train = 24 * 30 * 6 * time.Hour // 6mo
	}
	if validate <= 0 {
		validate = 24 * 30 * 3 * time.Hour // 3mo
	}
	threshold := cfg.DegradationRatio
	if threshold.IsZero() {
		threshold = decimal.NewFromFloat(0.80)
	}

	var windows []supervisor.WindowResult
	var validateMetrics []decimal.Decimal
	seq := 0

	cursor := cfg.Start
	for cursor.Add(train).Add(validate).Before(cfg.End) || cursor.Add(train).Add(validate).Equal(cfg.End) {
		if ctx.Err() != nil {
			return supervisor.WalkForwardResult{}, ctx.Err()
		}
		trainStart, trainEnd := cursor, cursor.Add(train)
		validateStart, validateEnd := trainEnd, trainEnd.Add(validate)

		trainAgg := symbolMetrics{}
		validateAgg := symbolMetrics{}
		for _, symbol := range cfg.Symbols {
			tm, err := e.backtestSymbol(ctx, symbol, trainStart, trainEnd, wyckoff.Timeframe1d)
			if err != nil {
				return supervisor.WalkForwardResult{}, err
			}
			mergeInto(&trainAgg, tm)
			vm, err := e.backtestSymbol(ctx, symbol, validateStart, validateEnd, wyckoff.Timeframe1d)
			if err != nil {
				return supervisor.WalkForwardResult{}, err
			}
			mergeInto(&validateAgg, vm)
		}

		trainMetric := winRate(trainAgg)
		validateMetric := winRate(validateAgg)
		ratio := decimal.Zero
		if !trainMetric.IsZero() {
			ratio = validateMetric.Div(trainMetric)
		}
		degraded := ratio.LessThan(threshold)

		windows = append(windows, supervisor.WindowResult{
			WindowStart: validateStart, WindowEnd: validateEnd,
			TrainMetric: trainMetric, ValidateMetric: validateMetric,
			PerformanceRatio: ratio, Degraded: degraded,
		})
		validateMetrics = append(validateMetrics, validateMetric)

		seq++
		if sink != nil {
			sink.Publish(runID, supervisor.Progress{
				BarsAnalyzed: len(windows), TotalBars: 0,
				SequenceNumber: seq, Timestamp: e.Clock.Now(),
			})
		}

		cursor = cursor.Add(validate)
	}

	return supervisor.WalkForwardResult{
		Windows:        windows,
		StabilityScore: coefficientOfVariation(validateMetrics),
	}, nil
}

// RunRegression implements supervisor.Executor.RunRegression: a full
// backtest per symbol, compared against the current baseline.
func (e *Engine) RunRegression(ctx context.Context, runID string, cfg supervisor.RegressionConfig, baseline *supervisor.RegressionBaseline, sink supervisor.ProgressSink) (supervisor.RegressionResult, error) {
	if baseline == nil {
		return supervisor.RegressionResult{Status: supervisor.RegressionBaselineNotSet}, nil
	}

	agg := symbolMetrics{}
	for i, symbol := range cfg.Symbols {
		if ctx.Err() != nil {
			return supervisor.RegressionResult{}, ctx.Err()
		}
		m, err := e.backtestSymbol(ctx, symbol, cfg.Start, cfg.End, wyckoff.Timeframe1d)
		if err != nil {
			return supervisor.RegressionResult{}, err
		}
		mergeInto(&agg, m)
		if sink != nil {
			sink.Publish(runID, supervisor.Progress{
				BarsAnalyzed: i + 1, TotalBars: len(cfg.Symbols),
				SequenceNumber: i + 1, Timestamp: e.Clock.Now(),
			})
		}
	}

	current := map[string]decimal.Decimal{
		"win_rate":       winRate(agg),
		"avg_r_multiple": avgR(agg),
	}

	var metrics []supervisor.RegressionMetric
	detected := false
	for name, currentValue := range current {
		baselineValue, ok := baseline.AggregateMetrics[name]
		if !ok {
			continue
		}
		threshold, ok := cfg.Threshold[name]
		if !ok {
			threshold = decimal.NewFromInt(10)
		}
		pctChange := decimal.Zero
		if !baselineValue.IsZero() {
			pctChange = currentValue.Sub(baselineValue).Div(baselineValue.Abs()).Mul(decimal.NewFromInt(100))
		}
		degraded := pctChange.Abs().GreaterThan(threshold)
		if degraded {
			detected = true
		}
		metrics = append(metrics, supervisor.RegressionMetric{
			Name: name, BaselineValue: baselineValue, CurrentValue: currentValue,
			PercentChange: pctChange, Degraded: degraded,
		})
	}

	status := supervisor.RegressionPass
	if detected {
		status = supervisor.RegressionFail
	}
	return supervisor.RegressionResult{Metrics: metrics, RegressionDetected: detected, Status: status}, nil
}

// backtestSymbol fetches bars for [start,end], runs the orchestrator
// once, and simulates each signal's R-multiple outcome over HoldBars
// forward bars using the spring/support risk math of
// internal/wyckoff/campaign/risk.go's entry/support convention.
func (e *Engine) backtestSymbol(ctx context.Context, symbol string, start, end time.Time, timeframe wyckoff.Timeframe) (symbolMetrics, error) {
	ac := assetclass.Classify(symbol)
	bars, err := e.Provider.FetchHistorical(ctx, symbol, start, end, timeframe, ac)
	if err != nil {
		return symbolMetrics{}, err
	}
	if len(bars) == 0 {
		return symbolMetrics{}, nil
	}

	o := e.NewOrchestrator()
	result := o.AnalyzeSymbol(symbol, timeframe, bars)

	m := symbolMetrics{}
	holdBars := e.HoldBars
	if holdBars <= 0 {
		holdBars = 10
	}

	for _, sig := range result.Signals {
		spring, ok := sig.Pattern.(patterns.Spring)
		if !ok {
			continue
		}
		entryIdx := spring.BarIndexValue
		entryPrice := spring.BarValue.Close
		exitIdx := entryIdx + holdBars
		if exitIdx >= len(bars) {
			exitIdx = len(bars) - 1
		}
		if exitIdx <= entryIdx {
			continue
		}
		exitPrice := bars[exitIdx].Close
		riskPerShare := entryPrice.Sub(spring.SpringLow)
		if riskPerShare.LessThanOrEqual(decimal.Zero) {
			continue
		}
		pointsGained := exitPrice.Sub(entryPrice)
		r := pointsGained.Div(riskPerShare)

		m.trades++
		if r.IsPositive() {
			m.wins++
		}
		m.totalR = m.totalR.Add(r)
		m.rValues = append(m.rValues, r)
	}
	return m, nil
}

func mergeInto(dst *symbolMetrics, src symbolMetrics) {
	dst.trades += src.trades
	dst.wins += src.wins
	dst.totalR = dst.totalR.Add(src.totalR)
	dst.rValues = append(dst.rValues, src.rValues...)
}

func winRate(m symbolMetrics) decimal.Decimal {
	if m.trades == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(m.wins)).Div(decimal.NewFromInt(int64(m.trades)))
}

func avgR(m symbolMetrics) decimal.Decimal {
	if m.trades == 0 {
		return decimal.Zero
	}
	return m.totalR.Div(decimal.NewFromInt(int64(m.trades)))
}

func aggregateResult(m symbolMetrics) map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"win_rate":       winRate(m),
		"avg_r_multiple": avgR(m),
		"total_r":        m.totalR,
		"trade_count":    decimal.NewFromInt(int64(m.trades)),
	}
}

// coefficientOfVariation is stddev/mean of the given values, 0 when
// there are fewer than 2 values or the mean is 0 (spec.md 4.F's
// "stability_score = coefficient_of_variation of validate-side metric").
func coefficientOfVariation(values []decimal.Decimal) decimal.Decimal {
	if len(values) < 2 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(v)
	}
	mean := sum.Div(decimal.NewFromInt(int64(len(values))))
	if mean.IsZero() {
		return decimal.Zero
	}

	var sqDiffSum float64
	meanF, _ := mean.Float64()
	for _, v := range values {
		vf, _ := v.Float64()
		sqDiffSum += (vf - meanF) * (vf - meanF)
	}
	variance := sqDiffSum / float64(len(values))
	stddev := math.Sqrt(variance)
	return decimal.NewFromFloat(stddev).Div(mean.Abs())
}
