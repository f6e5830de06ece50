package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jthadison/wyckvol/internal/persistence"
	"github.com/jthadison/wyckvol/internal/persistence/postgres"
)

func newMockRepo(t *testing.T) (persistence.PatternRepo, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := postgres.NewPatternRepo(sqlxDB, time.Second)
	return repo, mock, func() { db.Close() }
}

func TestPatternRepo_SaveResult_Insert(t *testing.T) {
	repo, mock, cleanup := newMockRepo(t)
	defer cleanup()

	row := persistence.PatternRow{
		ID: "p1", Kind: "SPRING", Symbol: "AAPL", Timeframe: "1d",
		BarIndex: 42, BarTimestamp: time.Now(), Confidence: decimal.NewFromInt(85),
		AssetClass: "stock", IsTradeable: true,
	}

	mock.ExpectExec("INSERT INTO patterns").
		WithArgs(row.ID, row.Kind, row.Symbol, row.Timeframe, row.BarIndex, row.BarTimestamp, row.Confidence,
			row.AssetClass, row.IsTradeable, row.RejectedBySession, row.RejectionReason, row.CampaignID).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.SaveResult(context.Background(), row)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPatternRepo_GetResult_NotFound(t *testing.T) {
	repo, mock, cleanup := newMockRepo(t)
	defer cleanup()

	mock.ExpectQuery("SELECT \\* FROM patterns WHERE id = \\$1").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	row, err := repo.GetResult(context.Background(), "missing")
	require.NoError(t, err)
	require.Nil(t, row)
	require.NoError(t, mock.ExpectationsWereMet())
}
