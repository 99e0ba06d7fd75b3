package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StaffType classifies employees for component applicability.
type StaffType string

const (
	StaffTypeTeaching    StaffType = "TEACHING"
	StaffTypeNonTeaching StaffType = "NON_TEACHING"
	StaffTypeSubStaff    StaffType = "SUB_STAFF"
)

// Employee is the payroll view of a staff member. Owned by campus administration.
type Employee struct {
	ID            string          `db:"id" json:"id"`
	Code          string          `db:"employee_code" json:"employeeCode"`
	FirstName     string          `db:"first_name" json:"firstName"`
	LastName      string          `db:"last_name" json:"lastName"`
	Email         string          `db:"email" json:"email"`
	CampusID      string          `db:"campus_id" json:"campusId"`
	DepartmentID  *string         `db:"department_id" json:"departmentId,omitempty"`
	DesignationID *string         `db:"designation_id" json:"designationId,omitempty"`
	StaffType     StaffType       `db:"staff_type" json:"staffType"`
	JoinedOn      time.Time       `db:"date_of_joining" json:"dateOfJoining"`
	LeftOn        *time.Time      `db:"date_of_leaving" json:"dateOfLeaving,omitempty"`
	MonthlyGross  decimal.Decimal `db:"monthly_gross" json:"monthlyGross"`
	IsActive      bool            `db:"is_active" json:"isActive"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updatedAt"`
}

// FullName joins first and last name.
func (e Employee) FullName() string {
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

// Holiday marks a non-working calendar date for a campus.
type Holiday struct {
	ID         string    `db:"id" json:"id"`
	CampusID   string    `db:"campus_id" json:"campusId"`
	Date       time.Time `db:"date" json:"date"`
	Name       string    `db:"name" json:"name"`
	IsOptional bool      `db:"is_optional" json:"isOptional"`
}

// Pagination describes paging metadata.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
