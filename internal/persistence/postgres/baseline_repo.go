package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jthadison/wyckvol/internal/persistence"
)

// baselineRepo implements persistence.RegressionBaselineRepo. SetCurrent
// runs inside one transaction so the "exactly one is_current=true"
// invariant of spec.md 8 never has a window where it is violated or
// momentarily zero, following the teacher's transactional-write style
// in internal/infrastructure/db.
type baselineRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewRegressionBaselineRepo creates a PostgreSQL-backed RegressionBaselineRepo.
func NewRegressionBaselineRepo(db *sqlx.DB, timeout time.Duration) persistence.RegressionBaselineRepo {
	return &baselineRepo{db: db, timeout: timeout}
}

func (r *baselineRepo) Insert(ctx context.Context, row persistence.RegressionBaselineRow) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO regression_baselines (
			baseline_id, source_test_id, codebase_version, win_rate, avg_r_multiple,
			per_symbol_json, is_current, established_at
		) VALUES ($1,$2,$3,$4,$5,$6,false,$7)`

	_, err := r.db.ExecContext(ctx, query,
		row.BaselineID, row.SourceTestID, row.CodebaseVersion, row.WinRate, row.AvgRMultiple,
		row.PerSymbolJSON, row.EstablishedAt)
	if err != nil {
		return fmt.Errorf("failed to insert regression baseline: %w", err)
	}
	return nil
}

// SetCurrent clears is_current on every row, then sets it on baselineID,
// inside one transaction.
func (r *baselineRepo) SetCurrent(ctx context.Context, baselineID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin baseline transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE regression_baselines SET is_current = false WHERE is_current = true`); err != nil {
		return fmt.Errorf("failed to clear current baseline: %w", err)
	}
	res, err := tx.ExecContext(ctx, `UPDATE regression_baselines SET is_current = true WHERE baseline_id = $1`, baselineID)
	if err != nil {
		return fmt.Errorf("failed to set current baseline %s: %w", baselineID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to confirm baseline update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("baseline %s not found", baselineID)
	}
	return tx.Commit()
}

func (r *baselineRepo) GetCurrent(ctx context.Context) (*persistence.RegressionBaselineRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var row persistence.RegressionBaselineRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM regression_baselines WHERE is_current = true`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current baseline: %w", err)
	}
	return &row, nil
}

func (r *baselineRepo) ListHistory(ctx context.Context, limit, offset int) ([]persistence.RegressionBaselineRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var rows []persistence.RegressionBaselineRow
	query := `SELECT * FROM regression_baselines ORDER BY established_at DESC LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list baseline history: %w", err)
	}
	return rows, nil
}
