package persistence

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// TimeRange represents a time window for data queries with PIT integrity.
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// TradingRangeRow is the persisted projection of wyckoff/levels.TradingRange
// (spec.md 3). Support/resistance/quality are stored as decimals; Creek,
// Ice, and Jump are flattened into nullable columns since a forming range
// may not have all three yet.
type TradingRangeRow struct {
	ID           string          `json:"id" db:"id"`
	Symbol       string          `json:"symbol" db:"symbol"`
	Timeframe    string          `json:"timeframe" db:"timeframe"`
	Start        time.Time       `json:"start" db:"start_ts"`
	End          time.Time       `json:"end" db:"end_ts"`
	StartBar     int             `json:"start_bar" db:"start_bar"`
	EndBar       int             `json:"end_bar" db:"end_bar"`
	DurationBars int             `json:"duration_bars" db:"duration_bars"`
	Support      decimal.Decimal `json:"support" db:"support"`
	Resistance   decimal.Decimal `json:"resistance" db:"resistance"`
	QualityScore decimal.Decimal `json:"quality_score" db:"quality_score"`
	Status       string          `json:"status" db:"status"`
	Phase        string          `json:"phase" db:"phase"`
	CreekPrice   *decimal.Decimal `json:"creek_price,omitempty" db:"creek_price"`
	IcePrice     *decimal.Decimal `json:"ice_price,omitempty" db:"ice_price"`
	JumpPrice    *decimal.Decimal `json:"jump_price,omitempty" db:"jump_price"`
	Deleted      bool            `json:"deleted" db:"deleted"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// TradingRangeRepo persists TradingRange rows, including soft-deletes
// (spec.md 3: "soft-deleted ranges stay in the index but are excluded
// from matching").
type TradingRangeRepo interface {
	SaveResult(ctx context.Context, row TradingRangeRow) error
	GetResult(ctx context.Context, id string) (*TradingRangeRow, error)
	ListResults(ctx context.Context, symbol, timeframe string, includeDeleted bool, limit, offset int) ([]TradingRangeRow, error)
	SoftDelete(ctx context.Context, id string) error
}

// PatternRow is the persisted projection of one detected pattern
// (Spring/AR/ST/SOS/LPS), tagged by Kind. Confidence and the
// tradeable/rejection fields apply chiefly to Spring but are kept on
// every row for a uniform schema, per the sum-type design of spec.md 9.
type PatternRow struct {
	ID               string          `json:"id" db:"id"`
	Kind             string          `json:"kind" db:"kind"` // SPRING, AR, ST, SOS, LPS
	Symbol           string          `json:"symbol" db:"symbol"`
	Timeframe        string          `json:"timeframe" db:"timeframe"`
	BarIndex         int             `json:"bar_index" db:"bar_index"`
	BarTimestamp     time.Time       `json:"bar_timestamp" db:"bar_timestamp"`
	Confidence       decimal.Decimal `json:"confidence" db:"confidence"`
	AssetClass       string          `json:"asset_class" db:"asset_class"`
	IsTradeable      bool            `json:"is_tradeable" db:"is_tradeable"`
	RejectedBySession bool           `json:"rejected_by_session_filter" db:"rejected_by_session_filter"`
	RejectionReason  string          `json:"rejection_reason,omitempty" db:"rejection_reason"`
	CampaignID       string          `json:"campaign_id,omitempty" db:"campaign_id"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
}

// PatternRepo persists detected patterns, including session-rejected
// Springs that store_rejected_patterns keeps for audit (spec.md 4.D.4).
type PatternRepo interface {
	SaveResult(ctx context.Context, row PatternRow) error
	GetResult(ctx context.Context, id string) (*PatternRow, error)
	ListResults(ctx context.Context, symbol string, kind string, tr TimeRange, limit, offset int) ([]PatternRow, error)
}

// CampaignRow is the persisted projection of a Campaign (spec.md 3/4.E).
type CampaignRow struct {
	ID              string          `json:"id" db:"id"`
	State           string          `json:"state" db:"state"`
	CurrentPhase    string          `json:"current_phase" db:"current_phase"`
	StartTime       time.Time       `json:"start_time" db:"start_time"`
	FailureReason   string          `json:"failure_reason,omitempty" db:"failure_reason"`
	SupportLevel    decimal.Decimal `json:"support_level" db:"support_level"`
	ResistanceLevel decimal.Decimal `json:"resistance_level" db:"resistance_level"`
	StrengthScore   decimal.Decimal `json:"strength_score" db:"strength_score"`
	RiskPerShare    decimal.Decimal `json:"risk_per_share" db:"risk_per_share"`
	PositionSize    decimal.Decimal `json:"position_size" db:"position_size"`
	DollarRisk      decimal.Decimal `json:"dollar_risk" db:"dollar_risk"`
	JumpLevel       decimal.Decimal `json:"jump_level" db:"jump_level"`
	ExitPrice       *decimal.Decimal `json:"exit_price,omitempty" db:"exit_price"`
	ExitReason      string          `json:"exit_reason,omitempty" db:"exit_reason"`
	RMultiple       *decimal.Decimal `json:"r_multiple,omitempty" db:"r_multiple"`
	PatternsJSON    []byte          `json:"-" db:"patterns_json"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// CampaignRepo persists campaign snapshots. The in-process campaign
// store (internal/wyckoff/campaign) is the system of record while a
// campaign is live; this repo is the durable mirror written on state
// transitions and completion.
type CampaignRepo interface {
	SaveResult(ctx context.Context, row CampaignRow) error
	GetResult(ctx context.Context, id string) (*CampaignRow, error)
	ListResults(ctx context.Context, state string, limit, offset int) ([]CampaignRow, error)
}

// SignalRow is the persisted projection of an orchestrator.TradeSignal.
type SignalRow struct {
	ID            string    `json:"id" db:"id"`
	Symbol        string    `json:"symbol" db:"symbol"`
	Timeframe     string    `json:"timeframe" db:"timeframe"`
	CorrelationID string    `json:"correlation_id" db:"correlation_id"`
	PatternKind   string    `json:"pattern_kind" db:"pattern_kind"`
	Phase         string    `json:"phase" db:"phase"`
	Confidence    int       `json:"confidence" db:"confidence"`
	CampaignID    string    `json:"campaign_id,omitempty" db:"campaign_id"`
	GeneratedAt   time.Time `json:"generated_at" db:"generated_at"`
}

// SignalRepo persists terminal TradeSignals emitted by the orchestrator.
type SignalRepo interface {
	SaveResult(ctx context.Context, row SignalRow) error
	ListResults(ctx context.Context, symbol string, tr TimeRange, limit, offset int) ([]SignalRow, error)
}

// BacktestResultRow is the persisted, terminal result of one
// BacktestRun (FULL kind). Per-run metrics mirror the aggregate metrics
// the regression/walk-forward flows compare against.
type BacktestResultRow struct {
	RunID          string          `json:"run_id" db:"run_id"`
	Kind           string          `json:"kind" db:"kind"`
	Symbols        []string        `json:"symbols" db:"symbols"`
	WinRate        decimal.Decimal `json:"win_rate" db:"win_rate"`
	AvgRMultiple   decimal.Decimal `json:"avg_r_multiple" db:"avg_r_multiple"`
	TotalR         decimal.Decimal `json:"total_r" db:"total_r"`
	TradeCount     int             `json:"trade_count" db:"trade_count"`
	CompletedAt    time.Time       `json:"completed_at" db:"completed_at"`
}

// BacktestResultRepo persists FULL backtest results.
type BacktestResultRepo interface {
	SaveResult(ctx context.Context, row BacktestResultRow) error
	GetResult(ctx context.Context, runID string) (*BacktestResultRow, error)
	ListResults(ctx context.Context, filterSymbol string, limit, offset int) ([]BacktestResultRow, error)
}

// WalkForwardResultRow is the persisted result of one WALK_FORWARD run.
type WalkForwardResultRow struct {
	RunID         string          `json:"run_id" db:"run_id"`
	WindowCount   int             `json:"window_count" db:"window_count"`
	StabilityScore decimal.Decimal `json:"stability_score" db:"stability_score"`
	DegradedWindows int           `json:"degraded_windows" db:"degraded_windows"`
	CompletedAt   time.Time       `json:"completed_at" db:"completed_at"`
}

// WalkForwardResultRepo persists WALK_FORWARD results.
type WalkForwardResultRepo interface {
	SaveResult(ctx context.Context, row WalkForwardResultRow) error
	GetResult(ctx context.Context, runID string) (*WalkForwardResultRow, error)
	ListResults(ctx context.Context, limit, offset int) ([]WalkForwardResultRow, error)
}

// RegressionResultRow is the persisted result of one REGRESSION run.
type RegressionResultRow struct {
	RunID             string    `json:"run_id" db:"run_id"`
	BaselineID        string    `json:"baseline_id,omitempty" db:"baseline_id"`
	Status            string    `json:"status" db:"status"` // PASS, FAIL, BASELINE_NOT_SET
	RegressionDetected bool     `json:"regression_detected" db:"regression_detected"`
	DegradedMetrics   []string  `json:"degraded_metrics,omitempty" db:"degraded_metrics"`
	CompletedAt       time.Time `json:"completed_at" db:"completed_at"`
}

// RegressionResultRepo persists REGRESSION run results.
type RegressionResultRepo interface {
	SaveResult(ctx context.Context, row RegressionResultRow) error
	GetResult(ctx context.Context, runID string) (*RegressionResultRow, error)
	ListResults(ctx context.Context, limit, offset int) ([]RegressionResultRow, error)
}

// RegressionBaselineRow is the persisted projection of a
// RegressionBaseline (spec.md 3). At most one row has IsCurrent=true.
type RegressionBaselineRow struct {
	BaselineID       string          `json:"baseline_id" db:"baseline_id"`
	SourceTestID     string          `json:"source_test_id" db:"source_test_id"`
	CodebaseVersion  string          `json:"codebase_version" db:"codebase_version"`
	WinRate          decimal.Decimal `json:"win_rate" db:"win_rate"`
	AvgRMultiple     decimal.Decimal `json:"avg_r_multiple" db:"avg_r_multiple"`
	PerSymbolJSON    []byte          `json:"-" db:"per_symbol_json"`
	IsCurrent        bool            `json:"is_current" db:"is_current"`
	EstablishedAt    time.Time       `json:"established_at" db:"established_at"`
}

// RegressionBaselineRepo persists baselines. SetCurrent must atomically
// clear IsCurrent on every other row before setting it on baselineID
// (spec.md 8: "exactly one baseline has is_current=true ... at all times").
type RegressionBaselineRepo interface {
	Insert(ctx context.Context, row RegressionBaselineRow) error
	SetCurrent(ctx context.Context, baselineID string) error
	GetCurrent(ctx context.Context) (*RegressionBaselineRow, error)
	ListHistory(ctx context.Context, limit, offset int) ([]RegressionBaselineRow, error)
}

// Repository aggregates all persistence interfaces the supervisor and
// orchestrator depend on (spec.md 6 "Repositories (consumed, one per
// entity kind)").
type Repository struct {
	Ranges             TradingRangeRepo
	Patterns           PatternRepo
	Campaigns          CampaignRepo
	Signals            SignalRepo
	BacktestResults    BacktestResultRepo
	WalkForwardResults WalkForwardResultRepo
	RegressionResults  RegressionResultRepo
	Baselines          RegressionBaselineRepo
}

// HealthCheck represents repository health status.
type HealthCheck struct {
	Healthy        bool              `json:"healthy"`
	Errors         []string          `json:"errors,omitempty"`
	ConnectionPool map[string]int    `json:"connection_pool"`
	LastCheck      time.Time         `json:"last_check"`
	ResponseTimeMS int64             `json:"response_time_ms"`
}

// RepositoryHealth provides health monitoring for the persistence layer.
type RepositoryHealth interface {
	Health(ctx context.Context) HealthCheck
	Ping(ctx context.Context) error
}
