package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-payroll-api/internal/models"
)

var leaveColumnNames = []string{"id", "employee_id", "year", "paid_leaves_total", "paid_leaves_used", "comp_leaves_earned",
	"comp_leaves_used", "carry_forward_leaves", "created_at", "updated_at"}

func TestLeaveBalanceRepositoryEnsureCreatesThenLocks(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewLeaveBalanceRepository(db)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (employee_id, year) DO NOTHING")).
		WithArgs(sqlmock.AnyArg(), "emp-1", 2024, decimal.NewFromInt(12), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE employee_id = $1 AND year = $2 FOR UPDATE")).
		WithArgs("emp-1", 2024).
		WillReturnRows(sqlmock.NewRows(leaveColumnNames).AddRow("lb-1", "emp-1", 2024, "12.00", "3.00", "1.00", "0.00", "2.00", now, now))

	balance, err := repo.Ensure(context.Background(), nil, "emp-1", 2024, decimal.NewFromInt(12))
	require.NoError(t, err)
	assert.Equal(t, "11", balance.PaidAvailable().String())
	assert.Equal(t, "1", balance.CompAvailable().String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveBalanceRepositoryApply(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewLeaveBalanceRepository(db)
	delta := models.LeaveDelta{PaidUsed: decimal.NewFromInt(2), CompEarned: decimal.NewFromInt(1), CompUsed: decimal.Zero}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE employee_leave_balances")).
		WithArgs(delta.PaidUsed, delta.CompEarned, delta.CompUsed, sqlmock.AnyArg(), "emp-1", 2024).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Apply(context.Background(), nil, "emp-1", 2024, delta))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE employee_leave_balances")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Apply(context.Background(), nil, "emp-2", 2024, delta)
	require.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, repo.Apply(context.Background(), nil, "emp-1", 2024, models.LeaveDelta{}))
	require.NoError(t, mock.ExpectationsWereMet())
}
