package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jthadison/wyckvol/internal/persistence"
)

// backtestResultsRepo implements persistence.BacktestResultRepo.
type backtestResultsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewBacktestResultRepo creates a PostgreSQL-backed BacktestResultRepo.
func NewBacktestResultRepo(db *sqlx.DB, timeout time.Duration) persistence.BacktestResultRepo {
	return &backtestResultsRepo{db: db, timeout: timeout}
}

func (r *backtestResultsRepo) SaveResult(ctx context.Context, row persistence.BacktestResultRow) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO backtest_results (
			run_id, kind, symbols, win_rate, avg_r_multiple, total_r, trade_count, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (run_id) DO UPDATE SET
			win_rate = EXCLUDED.win_rate, avg_r_multiple = EXCLUDED.avg_r_multiple,
			total_r = EXCLUDED.total_r, trade_count = EXCLUDED.trade_count`

	_, err := r.db.ExecContext(ctx, query,
		row.RunID, row.Kind, pq.Array(row.Symbols), row.WinRate, row.AvgRMultiple,
		row.TotalR, row.TradeCount, row.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to save backtest result: %w", err)
	}
	return nil
}

func (r *backtestResultsRepo) GetResult(ctx context.Context, runID string) (*persistence.BacktestResultRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var row persistence.BacktestResultRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM backtest_results WHERE run_id = $1`, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get backtest result %s: %w", runID, err)
	}
	return &row, nil
}

func (r *backtestResultsRepo) ListResults(ctx context.Context, filterSymbol string, limit, offset int) ([]persistence.BacktestResultRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT * FROM backtest_results`
	args := []interface{}{}
	if filterSymbol != "" {
		query += ` WHERE $1 = ANY(symbols) ORDER BY completed_at DESC LIMIT $2 OFFSET $3`
		args = append(args, filterSymbol, limit, offset)
	} else {
		query += ` ORDER BY completed_at DESC LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}

	var rows []persistence.BacktestResultRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list backtest results: %w", err)
	}
	return rows, nil
}

// walkForwardResultsRepo implements persistence.WalkForwardResultRepo.
type walkForwardResultsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewWalkForwardResultRepo creates a PostgreSQL-backed WalkForwardResultRepo.
func NewWalkForwardResultRepo(db *sqlx.DB, timeout time.Duration) persistence.WalkForwardResultRepo {
	return &walkForwardResultsRepo{db: db, timeout: timeout}
}

func (r *walkForwardResultsRepo) SaveResult(ctx context.Context, row persistence.WalkForwardResultRow) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO walk_forward_results (run_id, window_count, stability_score, degraded_windows, completed_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (run_id) DO UPDATE SET
			window_count = EXCLUDED.window_count, stability_score = EXCLUDED.stability_score,
			degraded_windows = EXCLUDED.degraded_windows`

	_, err := r.db.ExecContext(ctx, query, row.RunID, row.WindowCount, row.StabilityScore, row.DegradedWindows, row.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to save walk-forward result: %w", err)
	}
	return nil
}

func (r *walkForwardResultsRepo) GetResult(ctx context.Context, runID string) (*persistence.WalkForwardResultRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var row persistence.WalkForwardResultRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM walk_forward_results WHERE run_id = $1`, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get walk-forward result %s: %w", runID, err)
	}
	return &row, nil
}

func (r *walkForwardResultsRepo) ListResults(ctx context.Context, limit, offset int) ([]persistence.WalkForwardResultRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var rows []persistence.WalkForwardResultRow
	query := `SELECT * FROM walk_forward_results ORDER BY completed_at DESC LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list walk-forward results: %w", err)
	}
	return rows, nil
}

// regressionResultsRepo implements persistence.RegressionResultRepo.
type regressionResultsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewRegressionResultRepo creates a PostgreSQL-backed RegressionResultRepo.
func NewRegressionResultRepo(db *sqlx.DB, timeout time.Duration) persistence.RegressionResultRepo {
	return &regressionResultsRepo{db: db, timeout: timeout}
}

func (r *regressionResultsRepo) SaveResult(ctx context.Context, row persistence.RegressionResultRow) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO regression_results (
			run_id, baseline_id, status, regression_detected, degraded_metrics, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (run_id) DO UPDATE SET
			status = EXCLUDED.status, regression_detected = EXCLUDED.regression_detected,
			degraded_metrics = EXCLUDED.degraded_metrics`

	_, err := r.db.ExecContext(ctx, query,
		row.RunID, row.BaselineID, row.Status, row.RegressionDetected,
		pq.Array(row.DegradedMetrics), row.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to save regression result: %w", err)
	}
	return nil
}

func (r *regressionResultsRepo) GetResult(ctx context.Context, runID string) (*persistence.RegressionResultRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var row persistence.RegressionResultRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM regression_results WHERE run_id = $1`, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get regression result %s: %w", runID, err)
	}
	return &row, nil
}

func (r *regressionResultsRepo) ListResults(ctx context.Context, limit, offset int) ([]persistence.RegressionResultRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var rows []persistence.RegressionResultRow
	query := `SELECT * FROM regression_results ORDER BY completed_at DESC LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list regression results: %w", err)
	}
	return rows, nil
}
