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

// AttendanceRepository persists employee-day attendance facts.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

func (r *AttendanceRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Upsert writes the record keyed by (employee_id, date), overwriting status and upload reference.
// It reports whether a new row was inserted.
func (r *AttendanceRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, record *models.AttendanceRecord) (bool, error) {
	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	const query = `INSERT INTO attendance_records (id, employee_id, date, status, attendance_upload_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (employee_id, date)
DO UPDATE SET status = EXCLUDED.status, attendance_upload_id = EXCLUDED.attendance_upload_id, updated_at = EXCLUDED.updated_at
RETURNING (xmax = 0) AS inserted`
	var inserted bool
	err := sqlx.GetContext(ctx, r.exec(exec), &inserted, query,
		record.ID, record.EmployeeID, record.Date, record.Status, record.AttendanceUploadID, record.CreatedAt, record.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("upsert attendance record: %w", err)
	}
	return inserted, nil
}

// TallyByCampus aggregates status counts per employee of a campus within [from, to].
func (r *AttendanceRepository) TallyByCampus(ctx context.Context, exec sqlx.ExtContext, campusID string, from, to time.Time) (map[string]models.AttendanceTally, error) {
	const query = `SELECT a.employee_id,
       COUNT(*) FILTER (WHERE a.status = 'PRESENT') AS present,
       COUNT(*) FILTER (WHERE a.status = 'ABSENT') AS absent,
       COUNT(*) FILTER (WHERE a.status = 'HALF_DAY') AS half_days,
       COUNT(*) FILTER (WHERE a.status = 'WEEKEND_WORK') AS weekend_work,
       COUNT(*) FILTER (WHERE a.status = 'HOLIDAY') AS holidays,
       COUNT(*) FILTER (WHERE a.status = 'LEAVE') AS leaves
FROM attendance_records a
JOIN employees e ON e.id = a.employee_id
WHERE e.campus_id = $1 AND a.date >= $2 AND a.date <= $3
GROUP BY a.employee_id`
	var tallies []models.AttendanceTally
	if err := sqlx.SelectContext(ctx, r.exec(exec), &tallies, query, campusID, from, to); err != nil {
		return nil, fmt.Errorf("tally attendance: %w", err)
	}
	result := make(map[string]models.AttendanceTally, len(tallies))
	for _, tally := range tallies {
		result[tally.EmployeeID] = tally
	}
	return result, nil
}

// List returns attendance records matching the filter.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error) {
	base := "FROM attendance_records a JOIN employees e ON e.id = a.employee_id"
	args := make([]interface{}, 0, 4)
	conditions := []string{"1=1"}
	if filter.CampusID != "" {
		args = append(args, filter.CampusID)
		conditions = append(conditions, fmt.Sprintf("e.campus_id = $%d", len(args)))
	}
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		conditions = append(conditions, fmt.Sprintf("a.employee_id = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("a.date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("a.date <= $%d", len(args)))
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

	query := fmt.Sprintf(`SELECT a.id, a.employee_id, a.date, a.status, a.attendance_upload_id, a.created_at, a.updated_at
%s ORDER BY a.date, e.employee_code LIMIT %d OFFSET %d`, base, limit, offset)
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance records: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance records: %w", err)
	}
	return records, total, nil
}
