package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ComponentKind separates earnings from deductions.
type ComponentKind string

const (
	ComponentKindEarning   ComponentKind = "EARNING"
	ComponentKindDeduction ComponentKind = "DEDUCTION"
)

// Valid reports whether the kind is a known variant.
func (k ComponentKind) Valid() bool {
	switch k {
	case ComponentKindEarning, ComponentKindDeduction:
		return true
	default:
		return false
	}
}

// ComponentMode controls how a structure amount is interpreted.
type ComponentMode string

const (
	// ComponentModeFlat uses the structure amount as is.
	ComponentModeFlat ComponentMode = "FLAT"
	// ComponentModePercentage treats the structure amount as a percentage of monthly gross.
	ComponentModePercentage ComponentMode = "PERCENTAGE"
)

// ApplicabilityAll marks components applying to every staff type.
const ApplicabilityAll = "ALL"

// SalaryComponent is a catalog entry, read-only to payroll.
type SalaryComponent struct {
	ID            string        `db:"id" json:"id"`
	Name          string        `db:"name" json:"name"`
	Kind          ComponentKind `db:"component_type" json:"componentType"`
	Applicability string        `db:"applicability" json:"applicability"`
	Mode          ComponentMode `db:"mode" json:"mode"`
	IsDefault     bool          `db:"is_default" json:"isDefault"`
	CreatedAt     time.Time     `db:"created_at" json:"createdAt"`
}

// AppliesTo reports whether the component targets the given staff type.
func (c SalaryComponent) AppliesTo(staff StaffType) bool {
	if c.Applicability == "" || c.Applicability == ApplicabilityAll {
		return true
	}
	return c.Applicability == string(staff)
}

// EmployeeSalaryStructure assigns an amount for one component to one employee over a date range.
type EmployeeSalaryStructure struct {
	ID            string          `db:"id" json:"id"`
	EmployeeID    string          `db:"employee_id" json:"employeeId"`
	ComponentID   string          `db:"salary_component_id" json:"salaryComponentId"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	EffectiveFrom time.Time       `db:"effective_from" json:"effectiveFrom"`
	EffectiveTo   *time.Time      `db:"effective_to" json:"effectiveTo,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
}

// Overlaps reports whether the row's effective range intersects [from, to]. A nil end is open.
func (s EmployeeSalaryStructure) Overlaps(from time.Time, to *time.Time) bool {
	if to != nil && s.EffectiveFrom.After(*to) {
		return false
	}
	if s.EffectiveTo != nil && s.EffectiveTo.Before(from) {
		return false
	}
	return true
}

// SalaryStructureLine is a structure row joined with its component definition.
type SalaryStructureLine struct {
	EmployeeSalaryStructure
	ComponentName string        `db:"component_name" json:"componentName"`
	Kind          ComponentKind `db:"component_type" json:"componentType"`
	Applicability string        `db:"applicability" json:"applicability"`
	Mode          ComponentMode `db:"mode" json:"mode"`
}

// Component returns the catalog view of the line.
func (l SalaryStructureLine) Component() SalaryComponent {
	return SalaryComponent{
		ID:            l.ComponentID,
		Name:          l.ComponentName,
		Kind:          l.Kind,
		Applicability: l.Applicability,
		Mode:          l.Mode,
	}
}
