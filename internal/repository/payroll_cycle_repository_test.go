package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-payroll-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

var cycleColumnNames = []string{"id", "campus_id", "year", "month", "total_working_days", "status", "locked_at", "created_at", "updated_at"}

func TestPayrollCycleRepositoryCreateDraftIsIdempotent(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewPayrollCycleRepository(db)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payroll_cycles")).
		WithArgs(sqlmock.AnyArg(), "campus-1", 2024, 3, models.CycleStatusDraft, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM payroll_cycles WHERE campus_id = $1 AND year = $2 AND month = $3")).
		WithArgs("campus-1", 2024, 3).
		WillReturnRows(sqlmock.NewRows(cycleColumnNames).AddRow("cycle-1", "campus-1", 2024, 3, 21, "COMPLETED", nil, now, now))

	cycle, err := repo.CreateDraft(context.Background(), nil, "campus-1", 2024, 3)
	require.NoError(t, err)
	assert.Equal(t, "cycle-1", cycle.ID)
	assert.Equal(t, models.CycleStatusCompleted, cycle.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrollCycleRepositoryClaimIsConditional(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewPayrollCycleRepository(db)

	staleBefore := time.Date(2024, 4, 1, 8, 55, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $3 AND (status IN ($4, $5) OR (status = $1 AND updated_at < $6))")).
		WithArgs(models.CycleStatusProcessing, sqlmock.AnyArg(), "cycle-1", models.CycleStatusDraft, models.CycleStatusCompleted, staleBefore).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Claim(context.Background(), nil, "cycle-1", staleBefore))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE payroll_cycles SET status = $1")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Claim(context.Background(), nil, "cycle-1", staleBefore)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrollCycleRepositoryLockRequiresCompleted(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewPayrollCycleRepository(db)
	at := time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("SET status = $1, locked_at = $2, updated_at = $2 WHERE id = $3 AND status = $4")).
		WithArgs(models.CycleStatusLocked, at, "cycle-1", models.CycleStatusCompleted).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Lock(context.Background(), "cycle-1", at)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrollCycleRepositoryListFilters(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewPayrollCycleRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, campus_id, year, month")).
		WithArgs("campus-1", 2024, models.CycleStatusLocked).
		WillReturnRows(sqlmock.NewRows(cycleColumnNames).AddRow("cycle-1", "campus-1", 2024, 1, 22, "LOCKED", now, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM payroll_cycles")).
		WithArgs("campus-1", 2024, models.CycleStatusLocked).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	cycles, total, err := repo.List(context.Background(), models.PayrollCycleFilter{CampusID: "campus-1", Year: 2024, Status: models.CycleStatusLocked})
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.Equal(t, 1, total)
	assert.NotNil(t, cycles[0].LockedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}
