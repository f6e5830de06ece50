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

// rangesRepo implements persistence.TradingRangeRepo for PostgreSQL,
// adapted from the teacher's tradesRepo (internal/persistence/postgres,
// formerly trades_repo.go): same timeout-wrapped sqlx context idiom,
// new table and columns for TradingRange (spec.md 3).
type rangesRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewTradingRangeRepo creates a PostgreSQL-backed TradingRangeRepo.
func NewTradingRangeRepo(db *sqlx.DB, timeout time.Duration) persistence.TradingRangeRepo {
	return &rangesRepo{db: db, timeout: timeout}
}

func (r *rangesRepo) SaveResult(ctx context.Context, row persistence.TradingRangeRow) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO trading_ranges (
			id, symbol, timeframe, start_ts, end_ts, start_bar, end_bar,
			duration_bars, support, resistance, quality_score, status, phase,
			creek_price, ice_price, jump_price, deleted, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, now()
		)
		ON CONFLICT (id) DO UPDATE SET
			end_ts = EXCLUDED.end_ts, end_bar = EXCLUDED.end_bar,
			duration_bars = EXCLUDED.duration_bars, status = EXCLUDED.status,
			phase = EXCLUDED.phase, creek_price = EXCLUDED.creek_price,
			ice_price = EXCLUDED.ice_price, jump_price = EXCLUDED.jump_price,
			deleted = EXCLUDED.deleted`

	_, err := r.db.ExecContext(ctx, query,
		row.ID, row.Symbol, row.Timeframe, row.Start, row.End, row.StartBar, row.EndBar,
		row.DurationBars, row.Support, row.Resistance, row.QualityScore, row.Status, row.Phase,
		row.CreekPrice, row.IcePrice, row.JumpPrice, row.Deleted)
	if err != nil {
		return fmt.Errorf("failed to upsert trading range: %w", err)
	}
	return nil
}

func (r *rangesRepo) GetResult(ctx context.Context, id string) (*persistence.TradingRangeRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var row persistence.TradingRangeRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM trading_ranges WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trading range %s: %w", id, err)
	}
	return &row, nil
}

// ListResults excludes soft-deleted ranges from matching unless
// includeDeleted is set, per spec.md 3's "excluded from matching".
func (r *rangesRepo) ListResults(ctx context.Context, symbol, timeframe string, includeDeleted bool, limit, offset int) ([]persistence.TradingRangeRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT * FROM trading_ranges WHERE symbol = $1 AND timeframe = $2`
	if !includeDeleted {
		query += ` AND deleted = false`
	}
	query += ` ORDER BY start_ts DESC LIMIT $3 OFFSET $4`

	var rows []persistence.TradingRangeRow
	if err := r.db.SelectContext(ctx, &rows, query, symbol, timeframe, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list trading ranges: %w", err)
	}
	return rows, nil
}

func (r *rangesRepo) SoftDelete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `UPDATE trading_ranges SET deleted = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to soft-delete trading range %s: %w", id, err)
	}
	return nil
}
