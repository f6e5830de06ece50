package supervisor

import (
	"math"

	"github.com/shopspring/decimal"
)

var defaultDegradationRatio = decimal.NewFromFloat(0.80)

// BuildWalkForwardResult assembles a WalkForwardResult from the raw
// train/validate metric pairs already computed per window by the
// caller's backtest engine, flagging degradation per spec.md 4.F:
// validate/train ratio below the threshold (default 0.80) degrades,
// and stability_score is the coefficient of variation of the
// validate-side metric across windows.
func BuildWalkForwardResult(windows []WindowResult, degradationRatio decimal.Decimal) WalkForwardResult {
	if degradationRatio.IsZero() {
		degradationRatio = defaultDegradationRatio
	}
	for i := range windows {
		if windows[i].TrainMetric.IsZero() {
			continue
		}
		ratio := windows[i].ValidateMetric.Div(windows[i].TrainMetric)
		windows[i].PerformanceRatio = ratio
		windows[i].Degraded = ratio.LessThan(degradationRatio)
	}
	return WalkForwardResult{
		Windows:        windows,
		StabilityScore: coefficientOfVariation(windows),
	}
}

func coefficientOfVariation(windows []WindowResult) decimal.Decimal {
	if len(windows) == 0 {
		return decimal.Zero
	}
	values := make([]float64, len(windows))
	sum := 0.0
	for i, w := range windows {
		v, _ := w.ValidateMetric.Float64()
		values[i] = v
		sum += v
	}
	mean := sum / float64(len(values))
	if mean == 0 {
		return decimal.Zero
	}
	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	stddev := math.Sqrt(variance)
	return decimal.NewFromFloat(stddev / mean)
}

// BuildRegressionResult compares current metrics against the baseline,
// flagging degradation per metric when |percent_change| exceeds its
// threshold (spec.md 4.F, worked example in spec.md 8 scenario 5).
func BuildRegressionResult(baseline *RegressionBaseline, current map[string]decimal.Decimal, thresholds map[string]decimal.Decimal) RegressionResult {
	if baseline == nil {
		return RegressionResult{Status: RegressionBaselineNotSet}
	}

	var metrics []RegressionMetric
	degraded := false
	for name, currentValue := range current {
		baselineValue, ok := baseline.AggregateMetrics[name]
		if !ok || baselineValue.IsZero() {
			continue
		}
		percentChange := currentValue.Sub(baselineValue).Div(baselineValue).Mul(decimal.NewFromInt(100))
		threshold := thresholds[name]
		metricDegraded := percentChange.Abs().GreaterThan(threshold)
		if metricDegraded {
			degraded = true
		}
		metrics = append(metrics, RegressionMetric{
			Name: name, BaselineValue: baselineValue, CurrentValue: currentValue,
			PercentChange: percentChange, Degraded: metricDegraded,
		})
	}

	status := RegressionPass
	if degraded {
		status = RegressionFail
	}
	return RegressionResult{Metrics: metrics, RegressionDetected: degraded, Status: status}
}
