package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-payroll-api/internal/models"
)

const cycleColumns = `id, campus_id, year, month, total_working_days, status, locked_at, created_at, updated_at`

// PayrollCycleRepository persists payroll cycles and their status transitions.
type PayrollCycleRepository struct {
	db *sqlx.DB
}

// NewPayrollCycleRepository constructs a PayrollCycleRepository.
func NewPayrollCycleRepository(db *sqlx.DB) *PayrollCycleRepository {
	return &PayrollCycleRepository{db: db}
}

func (r *PayrollCycleRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByID fetches a cycle by identifier.
func (r *PayrollCycleRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.PayrollCycle, error) {
	const query = `SELECT ` + cycleColumns + ` FROM payroll_cycles WHERE id = $1`
	var cycle models.PayrollCycle
	if err := sqlx.GetContext(ctx, r.exec(exec), &cycle, query, id); err != nil {
		return nil, err
	}
	return &cycle, nil
}

// FindByKey fetches the cycle for (campus, year, month).
func (r *PayrollCycleRepository) FindByKey(ctx context.Context, exec sqlx.ExtContext, campusID string, year, month int) (*models.PayrollCycle, error) {
	const query = `SELECT ` + cycleColumns + ` FROM payroll_cycles WHERE campus_id = $1 AND year = $2 AND month = $3`
	var cycle models.PayrollCycle
	if err := sqlx.GetContext(ctx, r.exec(exec), &cycle, query, campusID, year, month); err != nil {
		return nil, err
	}
	return &cycle, nil
}

// CreateDraft inserts a DRAFT cycle for the key unless one already exists, then returns the stored row.
func (r *PayrollCycleRepository) CreateDraft(ctx context.Context, exec sqlx.ExtContext, campusID string, year, month int) (*models.PayrollCycle, error) {
	target := r.exec(exec)
	now := time.Now().UTC()
	const insert = `INSERT INTO payroll_cycles (id, campus_id, year, month, total_working_days, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, 0, $5, $6, $6)
ON CONFLICT (campus_id, year, month) DO NOTHING`
	if _, err := target.ExecContext(ctx, insert, uuid.NewString(), campusID, year, month, models.CycleStatusDraft, now); err != nil {
		return nil, fmt.Errorf("create payroll cycle: %w", err)
	}
	cycle, err := r.FindByKey(ctx, target, campusID, year, month)
	if err != nil {
		return nil, fmt.Errorf("reload payroll cycle: %w", err)
	}
	return cycle, nil
}

// Claim atomically moves a DRAFT or COMPLETED cycle to PROCESSING. A PROCESSING cycle not
// updated since staleBefore is reclaimed too. It returns sql.ErrNoRows otherwise.
func (r *PayrollCycleRepository) Claim(ctx context.Context, exec sqlx.ExtContext, id string, staleBefore time.Time) error {
	const query = `UPDATE payroll_cycles SET status = $1, updated_at = $2
WHERE id = $3 AND (status IN ($4, $5) OR (status = $1 AND updated_at < $6))`
	result, err := r.exec(exec).ExecContext(ctx, query,
		models.CycleStatusProcessing, time.Now().UTC(), id, models.CycleStatusDraft, models.CycleStatusCompleted, staleBefore)
	if err != nil {
		return fmt.Errorf("claim payroll cycle: %w", err)
	}
	return expectAffected(result)
}

// Complete records working days and moves a PROCESSING cycle to COMPLETED.
func (r *PayrollCycleRepository) Complete(ctx context.Context, exec sqlx.ExtContext, id string, workingDays int) error {
	const query = `UPDATE payroll_cycles SET status = $1, total_working_days = $2, updated_at = $3 WHERE id = $4 AND status = $5`
	result, err := r.exec(exec).ExecContext(ctx, query,
		models.CycleStatusCompleted, workingDays, time.Now().UTC(), id, models.CycleStatusProcessing)
	if err != nil {
		return fmt.Errorf("complete payroll cycle: %w", err)
	}
	return expectAffected(result)
}

// Release returns a PROCESSING cycle to DRAFT after a failed run.
func (r *PayrollCycleRepository) Release(ctx context.Context, id string) error {
	const query = `UPDATE payroll_cycles SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, models.CycleStatusDraft, time.Now().UTC(), id, models.CycleStatusProcessing)
	if err != nil {
		return fmt.Errorf("release payroll cycle: %w", err)
	}
	return expectAffected(result)
}

// Lock moves a COMPLETED cycle to LOCKED stamping locked_at. It returns sql.ErrNoRows when
// the cycle is not COMPLETED.
func (r *PayrollCycleRepository) Lock(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE payroll_cycles SET status = $1, locked_at = $2, updated_at = $2 WHERE id = $3 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, models.CycleStatusLocked, at, id, models.CycleStatusCompleted)
	if err != nil {
		return fmt.Errorf("lock payroll cycle: %w", err)
	}
	return expectAffected(result)
}

// List returns cycles matching the filter, latest period first.
func (r *PayrollCycleRepository) List(ctx context.Context, filter models.PayrollCycleFilter) ([]models.PayrollCycle, int, error) {
	args := make([]interface{}, 0, 4)
	conditions := []string{"1=1"}
	if filter.CampusID != "" {
		args = append(args, filter.CampusID)
		conditions = append(conditions, fmt.Sprintf("campus_id = $%d", len(args)))
	}
	if filter.Year > 0 {
		args = append(args, filter.Year)
		conditions = append(conditions, fmt.Sprintf("year = $%d", len(args)))
	}
	if filter.Month > 0 {
		args = append(args, filter.Month)
		conditions = append(conditions, fmt.Sprintf("month = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	where := strings.Join(conditions, " AND ")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf("SELECT %s FROM payroll_cycles WHERE %s ORDER BY year DESC, month DESC, campus_id LIMIT %d OFFSET %d", cycleColumns, where, limit, offset)
	var cycles []models.PayrollCycle
	if err := r.db.SelectContext(ctx, &cycles, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list payroll cycles: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM payroll_cycles WHERE %s", where), args...); err != nil {
		return nil, 0, fmt.Errorf("count payroll cycles: %w", err)
	}
	return cycles, total, nil
}
