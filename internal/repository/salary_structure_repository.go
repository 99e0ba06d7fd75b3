package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-payroll-api/internal/models"
)

const structureLineColumns = `s.id, s.employee_id, s.salary_component_id, s.amount, s.effective_from, s.effective_to, s.created_at,
       c.name AS component_name, c.component_type, c.applicability, c.mode`

// SalaryStructureRepository persists employee salary structures and reads the component catalog.
type SalaryStructureRepository struct {
	db *sqlx.DB
}

// NewSalaryStructureRepository constructs a SalaryStructureRepository.
func NewSalaryStructureRepository(db *sqlx.DB) *SalaryStructureRepository {
	return &SalaryStructureRepository{db: db}
}

func (r *SalaryStructureRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindComponent fetches a salary component by identifier.
func (r *SalaryStructureRepository) FindComponent(ctx context.Context, id string) (*models.SalaryComponent, error) {
	const query = `SELECT id, name, component_type, applicability, mode, is_default, created_at FROM salary_components WHERE id = $1`
	var component models.SalaryComponent
	if err := r.db.GetContext(ctx, &component, query, id); err != nil {
		return nil, err
	}
	return &component, nil
}

// ListEffective returns structure lines of an employee whose range intersects [from, to].
func (r *SalaryStructureRepository) ListEffective(ctx context.Context, exec sqlx.ExtContext, employeeID string, from, to time.Time) ([]models.SalaryStructureLine, error) {
	query := `SELECT ` + structureLineColumns + `
FROM employee_salary_structures s
JOIN salary_components c ON c.id = s.salary_component_id
WHERE s.employee_id = $1 AND s.effective_from <= $2 AND (s.effective_to IS NULL OR s.effective_to >= $3)
ORDER BY c.component_type, c.name`
	var lines []models.SalaryStructureLine
	if err := sqlx.SelectContext(ctx, r.exec(exec), &lines, query, employeeID, to, from); err != nil {
		return nil, fmt.Errorf("list effective salary structure: %w", err)
	}
	return lines, nil
}

// ListByEmployeeComponent returns every row of an employee for one component.
func (r *SalaryStructureRepository) ListByEmployeeComponent(ctx context.Context, exec sqlx.ExtContext, employeeID, componentID string) ([]models.EmployeeSalaryStructure, error) {
	const query = `SELECT id, employee_id, salary_component_id, amount, effective_from, effective_to, created_at
FROM employee_salary_structures WHERE employee_id = $1 AND salary_component_id = $2 ORDER BY effective_from`
	var rows []models.EmployeeSalaryStructure
	if err := sqlx.SelectContext(ctx, r.exec(exec), &rows, query, employeeID, componentID); err != nil {
		return nil, fmt.Errorf("list salary structure by component: %w", err)
	}
	return rows, nil
}

// Create inserts a structure row.
func (r *SalaryStructureRepository) Create(ctx context.Context, exec sqlx.ExtContext, row *models.EmployeeSalaryStructure) error {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO employee_salary_structures (id, employee_id, salary_component_id, amount, effective_from, effective_to, created_at)
VALUES (:id, :employee_id, :salary_component_id, :amount, :effective_from, :effective_to, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, row); err != nil {
		return fmt.Errorf("create salary structure: %w", err)
	}
	return nil
}

// ListByEmployee returns every structure line of an employee, newest ranges first.
func (r *SalaryStructureRepository) ListByEmployee(ctx context.Context, employeeID string) ([]models.SalaryStructureLine, error) {
	query := `SELECT ` + structureLineColumns + `
FROM employee_salary_structures s
JOIN salary_components c ON c.id = s.salary_component_id
WHERE s.employee_id = $1
ORDER BY s.effective_from DESC, c.name`
	var lines []models.SalaryStructureLine
	if err := r.db.SelectContext(ctx, &lines, query, employeeID); err != nil {
		return nil, fmt.Errorf("list salary structure: %w", err)
	}
	return lines, nil
}
