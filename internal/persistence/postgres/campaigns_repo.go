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

// campaignsRepo implements persistence.CampaignRepo: the durable mirror
// of the in-process campaign store (internal/wyckoff/campaign),
// written on every state transition per spec.md 9's "two-session
// protocol" note.
type campaignsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewCampaignRepo creates a PostgreSQL-backed CampaignRepo.
func NewCampaignRepo(db *sqlx.DB, timeout time.Duration) persistence.CampaignRepo {
	return &campaignsRepo{db: db, timeout: timeout}
}

func (r *campaignsRepo) SaveResult(ctx context.Context, row persistence.CampaignRow) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO campaigns (
			id, state, current_phase, start_time, failure_reason, support_level,
			resistance_level, strength_score, risk_per_share, position_size,
			dollar_risk, jump_level, exit_price, exit_reason, r_multiple,
			patterns_json, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16, now())
		ON CONFLICT (id) DO UPDATE SET
			state = EXCLUDED.state, current_phase = EXCLUDED.current_phase,
			failure_reason = EXCLUDED.failure_reason, support_level = EXCLUDED.support_level,
			resistance_level = EXCLUDED.resistance_level, strength_score = EXCLUDED.strength_score,
			risk_per_share = EXCLUDED.risk_per_share, position_size = EXCLUDED.position_size,
			dollar_risk = EXCLUDED.dollar_risk, jump_level = EXCLUDED.jump_level,
			exit_price = EXCLUDED.exit_price, exit_reason = EXCLUDED.exit_reason,
			r_multiple = EXCLUDED.r_multiple, patterns_json = EXCLUDED.patterns_json,
			updated_at = now()`

	_, err := r.db.ExecContext(ctx, query,
		row.ID, row.State, row.CurrentPhase, row.StartTime, row.FailureReason, row.SupportLevel,
		row.ResistanceLevel, row.StrengthScore, row.RiskPerShare, row.PositionSize,
		row.DollarRisk, row.JumpLevel, row.ExitPrice, row.ExitReason, row.RMultiple,
		row.PatternsJSON)
	if err != nil {
		return fmt.Errorf("failed to upsert campaign: %w", err)
	}
	return nil
}

func (r *campaignsRepo) GetResult(ctx context.Context, id string) (*persistence.CampaignRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var row persistence.CampaignRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM campaigns WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign %s: %w", id, err)
	}
	return &row, nil
}

func (r *campaignsRepo) ListResults(ctx context.Context, state string, limit, offset int) ([]persistence.CampaignRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT * FROM campaigns`
	args := []interface{}{}
	if state != "" {
		query += ` WHERE state = $1 ORDER BY start_time DESC LIMIT $2 OFFSET $3`
		args = append(args, state, limit, offset)
	} else {
		query += ` ORDER BY start_time DESC LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}

	var rows []persistence.CampaignRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return rows, nil
}
