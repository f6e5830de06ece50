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

// patternsRepo implements persistence.PatternRepo, adapted from the
// teacher's tradesRepo insert/list idiom.
type patternsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewPatternRepo creates a PostgreSQL-backed PatternRepo.
func NewPatternRepo(db *sqlx.DB, timeout time.Duration) persistence.PatternRepo {
	return &patternsRepo{db: db, timeout: timeout}
}

func (r *patternsRepo) SaveResult(ctx context.Context, row persistence.PatternRow) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO patterns (
			id, kind, symbol, timeframe, bar_index, bar_timestamp, confidence,
			asset_class, is_tradeable, rejected_by_session_filter, rejection_reason,
			campaign_id, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12, now())
		ON CONFLICT (id) DO UPDATE SET
			campaign_id = EXCLUDED.campaign_id, is_tradeable = EXCLUDED.is_tradeable`

	_, err := r.db.ExecContext(ctx, query,
		row.ID, row.Kind, row.Symbol, row.Timeframe, row.BarIndex, row.BarTimestamp, row.Confidence,
		row.AssetClass, row.IsTradeable, row.RejectedBySession, row.RejectionReason, row.CampaignID)
	if err != nil {
		return fmt.Errorf("failed to insert pattern: %w", err)
	}
	return nil
}

func (r *patternsRepo) GetResult(ctx context.Context, id string) (*persistence.PatternRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var row persistence.PatternRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM patterns WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pattern %s: %w", id, err)
	}
	return &row, nil
}

func (r *patternsRepo) ListResults(ctx context.Context, symbol, kind string, tr persistence.TimeRange, limit, offset int) ([]persistence.PatternRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT * FROM patterns WHERE symbol = $1 AND bar_timestamp BETWEEN $2 AND $3`
	args := []interface{}{symbol, tr.From, tr.To}
	if kind != "" {
		query += ` AND kind = $4 ORDER BY bar_timestamp DESC LIMIT $5 OFFSET $6`
		args = append(args, kind, limit, offset)
	} else {
		query += ` ORDER BY bar_timestamp DESC LIMIT $4 OFFSET $5`
		args = append(args, limit, offset)
	}

	var rows []persistence.PatternRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list patterns: %w", err)
	}
	return rows, nil
}
