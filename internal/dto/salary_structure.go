package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/campus-payroll-api/internal/models"
)

// SalaryStructureItem is one component assignment in an assign request.
type SalaryStructureItem struct {
	ComponentID   string          `json:"salaryComponentId" validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
	EffectiveFrom time.Time       `json:"effectiveFrom" validate:"required"`
	EffectiveTo   *time.Time      `json:"effectiveTo,omitempty"`
}

// AssignSalaryStructureRequest adds structure rows for an employee.
type AssignSalaryStructureRequest struct {
	Items []SalaryStructureItem `json:"items" validate:"required,min=1,dive"`
}

// SalaryStructureResponse lists an employee's structure lines.
type SalaryStructureResponse struct {
	EmployeeID string                       `json:"employeeId"`
	Lines      []models.SalaryStructureLine `json:"lines"`
}

// LeaveBalanceResponse is a ledger row with derived availability.
type LeaveBalanceResponse struct {
	models.LeaveBalance
	PaidAvailable decimal.Decimal `json:"paidAvailable"`
	CompAvailable decimal.Decimal `json:"compAvailable"`
	// Projected is true when no ledger row exists yet and defaults are reported.
	Projected bool `json:"projected"`
}
