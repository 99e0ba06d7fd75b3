package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LeaveBalance is the per employee-year leave ledger row.
type LeaveBalance struct {
	ID                 string          `db:"id" json:"id"`
	EmployeeID         string          `db:"employee_id" json:"employeeId"`
	Year               int             `db:"year" json:"year"`
	PaidLeavesTotal    decimal.Decimal `db:"paid_leaves_total" json:"paidLeavesTotal"`
	PaidLeavesUsed     decimal.Decimal `db:"paid_leaves_used" json:"paidLeavesUsed"`
	CompLeavesEarned   decimal.Decimal `db:"comp_leaves_earned" json:"compLeavesEarned"`
	CompLeavesUsed     decimal.Decimal `db:"comp_leaves_used" json:"compLeavesUsed"`
	CarryForwardLeaves decimal.Decimal `db:"carry_forward_leaves" json:"carryForwardLeaves"`
	CreatedAt          time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updatedAt"`
}

// PaidAvailable is total plus carry-forward minus used.
func (b LeaveBalance) PaidAvailable() decimal.Decimal {
	return b.PaidLeavesTotal.Add(b.CarryForwardLeaves).Sub(b.PaidLeavesUsed)
}

// CompAvailable is earned minus used.
func (b LeaveBalance) CompAvailable() decimal.Decimal {
	return b.CompLeavesEarned.Sub(b.CompLeavesUsed)
}

// LeaveDelta is an increment applied to a ledger row.
type LeaveDelta struct {
	PaidUsed   decimal.Decimal
	CompEarned decimal.Decimal
	CompUsed   decimal.Decimal
}

// IsZero reports whether applying the delta would be a no-op.
func (d LeaveDelta) IsZero() bool {
	return d.PaidUsed.IsZero() && d.CompEarned.IsZero() && d.CompUsed.IsZero()
}

// Neg flips the sign of every field.
func (d LeaveDelta) Neg() LeaveDelta {
	return LeaveDelta{PaidUsed: d.PaidUsed.Neg(), CompEarned: d.CompEarned.Neg(), CompUsed: d.CompUsed.Neg()}
}
