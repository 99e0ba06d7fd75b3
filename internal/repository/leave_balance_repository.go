package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/campus-payroll-api/internal/models"
)

const leaveBalanceColumns = `id, employee_id, year, paid_leaves_total, paid_leaves_used, comp_leaves_earned, comp_leaves_used,
       carry_forward_leaves, created_at, updated_at`

// LeaveBalanceRepository persists the per employee-year leave ledger.
type LeaveBalanceRepository struct {
	db *sqlx.DB
}

// NewLeaveBalanceRepository constructs a LeaveBalanceRepository.
func NewLeaveBalanceRepository(db *sqlx.DB) *LeaveBalanceRepository {
	return &LeaveBalanceRepository{db: db}
}

func (r *LeaveBalanceRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Find returns the ledger row of an employee for a year.
func (r *LeaveBalanceRepository) Find(ctx context.Context, employeeID string, year int) (*models.LeaveBalance, error) {
	const query = `SELECT ` + leaveBalanceColumns + ` FROM employee_leave_balances WHERE employee_id = $1 AND year = $2`
	var balance models.LeaveBalance
	if err := r.db.GetContext(ctx, &balance, query, employeeID, year); err != nil {
		return nil, err
	}
	return &balance, nil
}

// Ensure creates the ledger row with the given paid entitlement when missing and returns it
// locked for update.
func (r *LeaveBalanceRepository) Ensure(ctx context.Context, exec sqlx.ExtContext, employeeID string, year int, paidTotal decimal.Decimal) (*models.LeaveBalance, error) {
	target := r.exec(exec)
	now := time.Now().UTC()
	const insert = `INSERT INTO employee_leave_balances (id, employee_id, year, paid_leaves_total, paid_leaves_used,
       comp_leaves_earned, comp_leaves_used, carry_forward_leaves, created_at, updated_at)
VALUES ($1, $2, $3, $4, 0, 0, 0, 0, $5, $5)
ON CONFLICT (employee_id, year) DO NOTHING`
	if _, err := target.ExecContext(ctx, insert, uuid.NewString(), employeeID, year, paidTotal, now); err != nil {
		return nil, fmt.Errorf("ensure leave balance: %w", err)
	}
	const query = `SELECT ` + leaveBalanceColumns + ` FROM employee_leave_balances WHERE employee_id = $1 AND year = $2 FOR UPDATE`
	var balance models.LeaveBalance
	if err := sqlx.GetContext(ctx, target, &balance, query, employeeID, year); err != nil {
		return nil, fmt.Errorf("load leave balance: %w", err)
	}
	return &balance, nil
}

// Apply adds the delta to the ledger row of an employee-year.
func (r *LeaveBalanceRepository) Apply(ctx context.Context, exec sqlx.ExtContext, employeeID string, year int, delta models.LeaveDelta) error {
	if delta.IsZero() {
		return nil
	}
	const query = `UPDATE employee_leave_balances
SET paid_leaves_used = paid_leaves_used + $1,
    comp_leaves_earned = comp_leaves_earned + $2,
    comp_leaves_used = comp_leaves_used + $3,
    updated_at = $4
WHERE employee_id = $5 AND year = $6`
	result, err := r.exec(exec).ExecContext(ctx, query, delta.PaidUsed, delta.CompEarned, delta.CompUsed, time.Now().UTC(), employeeID, year)
	if err != nil {
		return fmt.Errorf("apply leave delta: %w", err)
	}
	return expectAffected(result)
}
