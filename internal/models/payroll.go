package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CycleStatus is the payroll cycle state machine.
type CycleStatus string

const (
	CycleStatusDraft      CycleStatus = "DRAFT"
	CycleStatusProcessing CycleStatus = "PROCESSING"
	CycleStatusCompleted  CycleStatus = "COMPLETED"
	CycleStatusLocked     CycleStatus = "LOCKED"
)


// PayrollCycle is the aggregate root of a monthly run. Unique per (campus_id, year, month).
type PayrollCycle struct {
	ID               string      `db:"id" json:"id"`
	CampusID         string      `db:"campus_id" json:"campusId"`
	Year             int         `db:"year" json:"year"`
	Month            int         `db:"month" json:"month"`
	TotalWorkingDays int         `db:"total_working_days" json:"totalWorkingDays"`
	Status           CycleStatus `db:"status" json:"status"`
	LockedAt         *time.Time  `db:"locked_at" json:"lockedAt,omitempty"`
	CreatedAt        time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time   `db:"updated_at" json:"updatedAt"`
}

// Recomputable reports whether calculate may claim the cycle. A PROCESSING cycle last touched
// before staleBefore was abandoned by a run that never finished.
func (c PayrollCycle) Recomputable(staleBefore time.Time) bool {
	switch c.Status {
	case CycleStatusDraft, CycleStatusCompleted:
		return true
	case CycleStatusProcessing:
		return c.UpdatedAt.Before(staleBefore)
	case CycleStatusLocked:
		return false
	default:
		return false
	}
}

// PayrollCycleFilter narrows cycle listings.
type PayrollCycleFilter struct {
	CampusID string
	Year     int
	Month    int
	Status   CycleStatus
	Limit    int
	Offset   int
}

// PayrollEntry is one employee's computed outcome in a cycle.
type PayrollEntry struct {
	ID               string          `db:"id" json:"id"`
	PayrollCycleID   string          `db:"payroll_cycle_id" json:"payrollCycleId"`
	EmployeeID       string          `db:"employee_id" json:"employeeId"`
	DaysPresent      decimal.Decimal `db:"days_present" json:"daysPresent"`
	DaysAbsent       decimal.Decimal `db:"days_absent" json:"daysAbsent"`
	PaidLeavesUsed   decimal.Decimal `db:"paid_leaves_used" json:"paidLeavesUsed"`
	CompLeavesUsed   decimal.Decimal `db:"comp_leaves_used" json:"compLeavesUsed"`
	CompLeavesEarned decimal.Decimal `db:"comp_leaves_earned" json:"compLeavesEarned"`
	UnpaidLeaves     decimal.Decimal `db:"unpaid_leaves" json:"unpaidLeaves"`
	LossOfPay        decimal.Decimal `db:"loss_of_pay" json:"lossOfPay"`
	GrossEarnings    decimal.Decimal `db:"gross_earnings" json:"grossEarnings"`
	TotalDeductions  decimal.Decimal `db:"total_deductions" json:"totalDeductions"`
	NetPay           decimal.Decimal `db:"net_pay" json:"netPay"`
	CreatedAt        time.Time       `db:"created_at" json:"createdAt"`

	Components []PayrollEntryComponent `db:"-" json:"components,omitempty"`
}

// LeaveDelta returns the ledger movement this entry applied.
func (e PayrollEntry) LeaveDelta() LeaveDelta {
	return LeaveDelta{PaidUsed: e.PaidLeavesUsed, CompEarned: e.CompLeavesEarned, CompUsed: e.CompLeavesUsed}
}

// PayrollEntryComponent snapshots one resolved structure row at calculation time.
type PayrollEntryComponent struct {
	ID             string          `db:"id" json:"id"`
	PayrollEntryID string          `db:"payroll_entry_id" json:"payrollEntryId"`
	ComponentID    string          `db:"salary_component_id" json:"salaryComponentId"`
	ComponentName  string          `db:"component_name" json:"componentName"`
	Kind           ComponentKind   `db:"component_type" json:"componentType"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
}

// PayrollEntryFilter narrows entry listings.
type PayrollEntryFilter struct {
	CycleID    string
	EmployeeID string
	Limit      int
	Offset     int
}

// PayrollSummary totals a cycle or a set of cycles.
type PayrollSummary struct {
	TotalEmployees  int             `db:"total_employees" json:"totalEmployees"`
	TotalGross      decimal.Decimal `db:"total_gross" json:"totalGross"`
	TotalDeductions decimal.Decimal `db:"total_deductions" json:"totalDeductions"`
	TotalLossOfPay  decimal.Decimal `db:"total_loss_of_pay" json:"totalLossOfPay"`
	TotalNet        decimal.Decimal `db:"total_net" json:"totalNet"`
}
