package dto

import "github.com/noah-isme/campus-payroll-api/internal/models"

// CalculatePayrollRequest triggers a monthly run for a campus.
type CalculatePayrollRequest struct {
	CampusID string `json:"campusId" validate:"required"`
	Year     int    `json:"year" validate:"required,min=1900,max=9999"`
	Month    int    `json:"month" validate:"required,min=1,max=12"`
	// EmployeeIDs is accepted for compatibility; runs always cover every active employee.
	EmployeeIDs []string `json:"employeeIds,omitempty"`
}

// PayrollEntryDetail bundles an entry with employee context for consumers.
type PayrollEntryDetail struct {
	models.PayrollEntry
	EmployeeCode string `json:"employeeCode"`
	EmployeeName string `json:"employeeName"`
}

// PayrollSummaryQuery scopes summary totals.
type PayrollSummaryQuery struct {
	CycleID  string `form:"cycleId" json:"cycleId,omitempty"`
	CampusID string `form:"campusId" json:"campusId,omitempty"`
	Year     int    `form:"year" json:"year,omitempty" validate:"omitempty,min=1900,max=9999"`
	Month    int    `form:"month" json:"month,omitempty" validate:"omitempty,min=1,max=12"`
}

// PayrollSummaryResponse is the cached summary payload.
type PayrollSummaryResponse struct {
	Query   PayrollSummaryQuery   `json:"query"`
	Summary models.PayrollSummary `json:"summary"`
}
