// Package supervisor implements the Analysis Supervisor (component F):
// background job admission control, in-memory run registries with TTL
// eviction, walk-forward validation, regression testing, and baseline
// comparison. Grounded in the teacher's internal/scheduler job/status
// idiom, adapted from cron-scheduled scan jobs to on-demand analysis
// runs with a request/response handle instead of a cron trigger.
package supervisor

import (
	"time"

	"github.com/shopspring/decimal"
)

// RunKind names which analysis workload a run performs.
type RunKind string

const (
	KindPreview     RunKind = "PREVIEW"
	KindFull        RunKind = "FULL"
	KindWalkForward RunKind = "WALK_FORWARD"
	KindRegression  RunKind = "REGRESSION"
)

// RunStatus is a BacktestRun's lifecycle status.
type RunStatus string

const (
	StatusRunning   RunStatus = "RUNNING"
	StatusCompleted RunStatus = "COMPLETED"
	StatusFailed    RunStatus = "FAILED"
	StatusTimeout   RunStatus = "TIMEOUT"
	StatusCancelled RunStatus = "CANCELLED"
)

func (s RunStatus) Terminal() bool {
	return s != StatusRunning
}

// FullConfig configures an enqueue_full run.
type FullConfig struct {
	Symbols        []string
	Start          time.Time
	End            time.Time
	Timeframe      string
	InitialCapital decimal.Decimal
}

// Validate enforces spec.md 4.F's enqueue_full validation: start<end
// and initial_capital>0.
func (c FullConfig) Validate() error {
	if !c.Start.Before(c.End) {
		return errInvalidWindow
	}
	if c.InitialCapital.LessThanOrEqual(decimal.Zero) {
		return errInvalidCapital
	}
	return nil
}

// WalkForwardConfig configures a walk-forward validation run.
type WalkForwardConfig struct {
	Symbols          []string
	Start            time.Time
	End              time.Time
	TrainWindow      time.Duration // default 6mo
	ValidateWindow   time.Duration // default 3mo
	DegradationRatio decimal.Decimal // default 0.80
}

// RegressionConfig configures a regression test run.
type RegressionConfig struct {
	Symbols   []string
	Start     time.Time
	End       time.Time
	Threshold map[string]decimal.Decimal // metric name -> percent-change threshold
}

// BacktestRun is the supervisor's run record (spec.md 3).
type BacktestRun struct {
	RunID     string
	Kind      RunKind
	Status    RunStatus
	CreatedAt time.Time
	Progress  Progress
	Error     string
	Result    interface{}
}

// Progress is the last published progress snapshot for a run.
type Progress struct {
	BarsAnalyzed     int
	TotalBars        int
	PercentComplete  decimal.Decimal
	SequenceNumber   int
	Timestamp        time.Time
}

// WindowResult is one walk-forward train/validate window's outcome.
type WindowResult struct {
	WindowStart        time.Time
	WindowEnd          time.Time
	TrainMetric        decimal.Decimal
	ValidateMetric     decimal.Decimal
	PerformanceRatio   decimal.Decimal
	Degraded           bool
}

// WalkForwardResult aggregates all windows of a walk-forward run.
type WalkForwardResult struct {
	Windows       []WindowResult
	StabilityScore decimal.Decimal // coefficient of variation of validate metric
}

// RegressionMetric compares one tracked metric against its baseline.
type RegressionMetric struct {
	Name            string
	BaselineValue   decimal.Decimal
	CurrentValue    decimal.Decimal
	PercentChange   decimal.Decimal
	Degraded        bool
}

// RegressionStatus is the overall outcome of a regression run.
type RegressionStatus string

const (
	RegressionPass           RegressionStatus = "PASS"
	RegressionFail           RegressionStatus = "FAIL"
	RegressionBaselineNotSet RegressionStatus = "BASELINE_NOT_SET"
)

// RegressionResult is the outcome of a regression test run.
type RegressionResult struct {
	Metrics            []RegressionMetric
	RegressionDetected bool
	Status             RegressionStatus
}

// RegressionBaseline is a frozen snapshot of metrics used for future
// regression comparisons (spec.md 3). Exactly one baseline carries
// IsCurrent=true globally.
type RegressionBaseline struct {
	BaselineID       string
	SourceTestID     string
	CodebaseVersion  string
	AggregateMetrics map[string]decimal.Decimal
	PerSymbolMetrics map[string]map[string]decimal.Decimal
	EstablishedAt    time.Time
	IsCurrent        bool
}
