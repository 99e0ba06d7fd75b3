package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/campus-payroll-api/internal/models"
)

const employeeColumns = `id, employee_code, first_name, last_name, email, campus_id, department_id, designation_id,
       staff_type, date_of_joining, date_of_leaving, monthly_gross, is_active, created_at, updated_at`

// EmployeeRepository reads employee records owned by campus administration.
type EmployeeRepository struct {
	db *sqlx.DB
}

// NewEmployeeRepository constructs an EmployeeRepository.
func NewEmployeeRepository(db *sqlx.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

func (r *EmployeeRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByID fetches an employee by identifier.
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*models.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`
	var employee models.Employee
	if err := r.db.GetContext(ctx, &employee, query, id); err != nil {
		return nil, err
	}
	return &employee, nil
}

// ListActiveByCampus returns the active employees of a campus ordered by employee code.
func (r *EmployeeRepository) ListActiveByCampus(ctx context.Context, exec sqlx.ExtContext, campusID string) ([]models.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE campus_id = $1 AND is_active = TRUE ORDER BY employee_code`
	var employees []models.Employee
	if err := sqlx.SelectContext(ctx, r.exec(exec), &employees, query, campusID); err != nil {
		return nil, fmt.Errorf("list active employees: %w", err)
	}
	return employees, nil
}

// ResolveActiveCodes maps employee codes to identifiers for active employees of a campus.
// Codes that do not resolve are absent from the result.
func (r *EmployeeRepository) ResolveActiveCodes(ctx context.Context, campusID string, codes []string) (map[string]string, error) {
	result := make(map[string]string, len(codes))
	if len(codes) == 0 {
		return result, nil
	}
	const query = `SELECT employee_code, id FROM employees
WHERE campus_id = $1 AND is_active = TRUE AND employee_code = ANY($2)`
	rows, err := r.db.QueryxContext(ctx, query, campusID, pq.Array(codes))
	if err != nil {
		return nil, fmt.Errorf("resolve employee codes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var code, id string
		if err := rows.Scan(&code, &id); err != nil {
			return nil, fmt.Errorf("scan employee code: %w", err)
		}
		result[code] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employee codes: %w", err)
	}
	return result, nil
}
