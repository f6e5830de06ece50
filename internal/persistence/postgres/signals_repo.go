package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jthadison/wyckvol/internal/persistence"
)

// signalsRepo implements persistence.SignalRepo.
type signalsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewSignalRepo creates a PostgreSQL-backed SignalRepo.
func NewSignalRepo(db *sqlx.DB, timeout time.Duration) persistence.SignalRepo {
	return &signalsRepo{db: db, timeout: timeout}
}

func (r *signalsRepo) SaveResult(ctx context.Context, row persistence.SignalRow) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO signals (
			id, symbol, timeframe, correlation_id, pattern_kind, phase,
			confidence, campaign_id, generated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	_, err := r.db.ExecContext(ctx, query,
		row.ID, row.Symbol, row.Timeframe, row.CorrelationID, row.PatternKind, row.Phase,
		row.Confidence, row.CampaignID, row.GeneratedAt)
	if err != nil {
		return fmt.Errorf("failed to insert signal: %w", err)
	}
	return nil
}

func (r *signalsRepo) ListResults(ctx context.Context, symbol string, tr persistence.TimeRange, limit, offset int) ([]persistence.SignalRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT * FROM signals WHERE symbol = $1 AND generated_at BETWEEN $2 AND $3
		ORDER BY generated_at DESC LIMIT $4 OFFSET $5`

	var rows []persistence.SignalRow
	if err := r.db.SelectContext(ctx, &rows, query, symbol, tr.From, tr.To, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list signals: %w", err)
	}
	return rows, nil
}
