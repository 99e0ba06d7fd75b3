package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-payroll-api/internal/dto"
	"github.com/noah-isme/campus-payroll-api/internal/models"
)

const entryColumns = `pe.id, pe.payroll_cycle_id, pe.employee_id, pe.days_present, pe.days_absent, pe.paid_leaves_used,
       pe.comp_leaves_used, pe.comp_leaves_earned, pe.unpaid_leaves, pe.loss_of_pay, pe.gross_earnings,
       pe.total_deductions, pe.net_pay, pe.created_at`

// PayrollEntryRepository persists computed payroll entries and their component snapshots.
type PayrollEntryRepository struct {
	db *sqlx.DB
}

// NewPayrollEntryRepository constructs a PayrollEntryRepository.
func NewPayrollEntryRepository(db *sqlx.DB) *PayrollEntryRepository {
	return &PayrollEntryRepository{db: db}
}

func (r *PayrollEntryRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListByCycle returns every entry of a cycle without components.
func (r *PayrollEntryRepository) ListByCycle(ctx context.Context, exec sqlx.ExtContext, cycleID string) ([]models.PayrollEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM payroll_entries pe WHERE pe.payroll_cycle_id = $1`
	var entries []models.PayrollEntry
	if err := sqlx.SelectContext(ctx, r.exec(exec), &entries, query, cycleID); err != nil {
		return nil, fmt.Errorf("list payroll entries by cycle: %w", err)
	}
	return entries, nil
}

// DeleteByCycle removes every entry of a cycle together with its component rows.
func (r *PayrollEntryRepository) DeleteByCycle(ctx context.Context, exec sqlx.ExtContext, cycleID string) (int64, error) {
	target := r.exec(exec)
	const deleteComponents = `DELETE FROM payroll_entry_components
WHERE payroll_entry_id IN (SELECT id FROM payroll_entries WHERE payroll_cycle_id = $1)`
	if _, err := target.ExecContext(ctx, deleteComponents, cycleID); err != nil {
		return 0, fmt.Errorf("delete payroll entry components: %w", err)
	}
	result, err := target.ExecContext(ctx, `DELETE FROM payroll_entries WHERE payroll_cycle_id = $1`, cycleID)
	if err != nil {
		return 0, fmt.Errorf("delete payroll entries: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return affected, nil
}

// Create inserts an entry and its component snapshots.
func (r *PayrollEntryRepository) Create(ctx context.Context, exec sqlx.ExtContext, entry *models.PayrollEntry) error {
	target := r.exec(exec)
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const insertEntry = `INSERT INTO payroll_entries (id, payroll_cycle_id, employee_id, days_present, days_absent,
       paid_leaves_used, comp_leaves_used, comp_leaves_earned, unpaid_leaves, loss_of_pay, gross_earnings,
       total_deductions, net_pay, created_at)
VALUES (:id, :payroll_cycle_id, :employee_id, :days_present, :days_absent, :paid_leaves_used, :comp_leaves_used,
       :comp_leaves_earned, :unpaid_leaves, :loss_of_pay, :gross_earnings, :total_deductions, :net_pay, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, insertEntry, entry); err != nil {
		return fmt.Errorf("create payroll entry: %w", err)
	}

	const insertComponent = `INSERT INTO payroll_entry_components (id, payroll_entry_id, salary_component_id, component_name, component_type, amount)
VALUES (:id, :payroll_entry_id, :salary_component_id, :component_name, :component_type, :amount)`
	for i := range entry.Components {
		component := &entry.Components[i]
		if component.ID == "" {
			component.ID = uuid.NewString()
		}
		component.PayrollEntryID = entry.ID
		if _, err := sqlx.NamedExecContext(ctx, target, insertComponent, component); err != nil {
			return fmt.Errorf("create payroll entry component: %w", err)
		}
	}
	return nil
}

// FindByID fetches an entry with its components.
func (r *PayrollEntryRepository) FindByID(ctx context.Context, id string) (*dto.PayrollEntryDetail, error) {
	query := `SELECT ` + entryColumns + `, e.employee_code, e.first_name, e.last_name
FROM payroll_entries pe JOIN employees e ON e.id = pe.employee_id WHERE pe.id = $1`
	var row entryRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	detail := row.detail()
	components, err := r.ListComponents(ctx, []string{detail.ID})
	if err != nil {
		return nil, err
	}
	detail.Components = components[detail.ID]
	return &detail, nil
}

// List returns entries matching the filter ordered by employee code.
func (r *PayrollEntryRepository) List(ctx context.Context, filter models.PayrollEntryFilter) ([]dto.PayrollEntryDetail, int, error) {
	base := "FROM payroll_entries pe JOIN employees e ON e.id = pe.employee_id"
	args := make([]interface{}, 0, 2)
	conditions := []string{"1=1"}
	if filter.CycleID != "" {
		args = append(args, filter.CycleID)
		conditions = append(conditions, fmt.Sprintf("pe.payroll_cycle_id = $%d", len(args)))
	}
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		conditions = append(conditions, fmt.Sprintf("pe.employee_id = $%d", len(args)))
	}
	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s, e.employee_code, e.first_name, e.last_name %s ORDER BY e.employee_code LIMIT %d OFFSET %d`,
		entryColumns, base, limit, offset)
	var rows []entryRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list payroll entries: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count payroll entries: %w", err)
	}

	details := make([]dto.PayrollEntryDetail, 0, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		details = append(details, row.detail())
		ids = append(ids, row.ID)
	}
	components, err := r.ListComponents(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range details {
		details[i].Components = components[details[i].ID]
	}
	return details, total, nil
}

// ListComponents returns component snapshots grouped by entry id.
func (r *PayrollEntryRepository) ListComponents(ctx context.Context, entryIDs []string) (map[string][]models.PayrollEntryComponent, error) {
	grouped := make(map[string][]models.PayrollEntryComponent, len(entryIDs))
	if len(entryIDs) == 0 {
		return grouped, nil
	}
	query, args, err := sqlx.In(`SELECT id, payroll_entry_id, salary_component_id, component_name, component_type, amount
FROM payroll_entry_components WHERE payroll_entry_id IN (?) ORDER BY component_type, component_name`, entryIDs)
	if err != nil {
		return nil, fmt.Errorf("build component query: %w", err)
	}
	var components []models.PayrollEntryComponent
	if err := r.db.SelectContext(ctx, &components, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list payroll entry components: %w", err)
	}
	for _, component := range components {
		grouped[component.PayrollEntryID] = append(grouped[component.PayrollEntryID], component)
	}
	return grouped, nil
}

// Summary totals entries of the cycles matching the query.
func (r *PayrollEntryRepository) Summary(ctx context.Context, query dto.PayrollSummaryQuery) (*models.PayrollSummary, error) {
	args := make([]interface{}, 0, 4)
	conditions := []string{"1=1"}
	if query.CycleID != "" {
		args = append(args, query.CycleID)
		conditions = append(conditions, fmt.Sprintf("c.id = $%d", len(args)))
	}
	if query.CampusID != "" {
		args = append(args, query.CampusID)
		conditions = append(conditions, fmt.Sprintf("c.campus_id = $%d", len(args)))
	}
	if query.Year > 0 {
		args = append(args, query.Year)
		conditions = append(conditions, fmt.Sprintf("c.year = $%d", len(args)))
	}
	if query.Month > 0 {
		args = append(args, query.Month)
		conditions = append(conditions, fmt.Sprintf("c.month = $%d", len(args)))
	}
	statement := fmt.Sprintf(`SELECT COUNT(DISTINCT pe.employee_id) AS total_employees,
       COALESCE(SUM(pe.gross_earnings), 0) AS total_gross,
       COALESCE(SUM(pe.total_deductions), 0) AS total_deductions,
       COALESCE(SUM(pe.loss_of_pay), 0) AS total_loss_of_pay,
       COALESCE(SUM(pe.net_pay), 0) AS total_net
FROM payroll_entries pe JOIN payroll_cycles c ON c.id = pe.payroll_cycle_id
WHERE %s`, strings.Join(conditions, " AND "))
	var summary models.PayrollSummary
	if err := r.db.GetContext(ctx, &summary, statement, args...); err != nil {
		return nil, fmt.Errorf("summarise payroll entries: %w", err)
	}
	return &summary, nil
}

type entryRow struct {
	models.PayrollEntry
	EmployeeCode string `db:"employee_code"`
	FirstName    string `db:"first_name"`
	LastName     string `db:"last_name"`
}

func (r entryRow) detail() dto.PayrollEntryDetail {
	name := models.Employee{FirstName: r.FirstName, LastName: r.LastName}.FullName()
	return dto.PayrollEntryDetail{PayrollEntry: r.PayrollEntry, EmployeeCode: r.EmployeeCode, EmployeeName: name}
}
