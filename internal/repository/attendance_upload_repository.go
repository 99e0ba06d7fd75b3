package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-payroll-api/internal/models"
)

const uploadColumns = `id, campus_id, year, month, file_name, file_path, status, error_message, records_count, uploaded_at, processed_at`

// AttendanceUploadRepository persists ingestion batches.
type AttendanceUploadRepository struct {
	db *sqlx.DB
}

// NewAttendanceUploadRepository constructs an AttendanceUploadRepository.
func NewAttendanceUploadRepository(db *sqlx.DB) *AttendanceUploadRepository {
	return &AttendanceUploadRepository{db: db}
}

func (r *AttendanceUploadRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a new batch in PENDING status.
func (r *AttendanceUploadRepository) Create(ctx context.Context, upload *models.AttendanceUpload) error {
	if upload.ID == "" {
		upload.ID = uuid.NewString()
	}
	if upload.Status == "" {
		upload.Status = models.UploadStatusPending
	}
	if upload.UploadedAt.IsZero() {
		upload.UploadedAt = time.Now().UTC()
	}
	const query = `INSERT INTO attendance_uploads (` + uploadColumns + `)
VALUES (:id, :campus_id, :year, :month, :file_name, :file_path, :status, :error_message, :records_count, :uploaded_at, :processed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, upload); err != nil {
		return fmt.Errorf("create attendance upload: %w", err)
	}
	return nil
}

// FindByID fetches a batch by identifier.
func (r *AttendanceUploadRepository) FindByID(ctx context.Context, id string) (*models.AttendanceUpload, error) {
	const query = `SELECT ` + uploadColumns + ` FROM attendance_uploads WHERE id = $1`
	var upload models.AttendanceUpload
	if err := r.db.GetContext(ctx, &upload, query, id); err != nil {
		return nil, err
	}
	return &upload, nil
}

// List returns batches matching the filter, latest first.
func (r *AttendanceUploadRepository) List(ctx context.Context, filter models.AttendanceUploadFilter) ([]models.AttendanceUpload, int, error) {
	args := make([]interface{}, 0, 4)
	conditions := []string{"1=1"}
	if filter.CampusID != "" {
		args = append(args, filter.CampusID)
		conditions = append(conditions, fmt.Sprintf("campus_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Year > 0 {
		args = append(args, filter.Year)
		conditions = append(conditions, fmt.Sprintf("year = $%d", len(args)))
	}
	if filter.Month > 0 {
		args = append(args, filter.Month)
		conditions = append(conditions, fmt.Sprintf("month = $%d", len(args)))
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

	query := fmt.Sprintf("SELECT %s FROM attendance_uploads WHERE %s ORDER BY uploaded_at DESC LIMIT %d OFFSET %d", uploadColumns, where, limit, offset)
	var uploads []models.AttendanceUpload
	if err := r.db.SelectContext(ctx, &uploads, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance uploads: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM attendance_uploads WHERE %s", where), args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance uploads: %w", err)
	}
	return uploads, total, nil
}

// Transition moves a batch from one status to another. It returns sql.ErrNoRows when the
// batch is not currently in the expected status.
func (r *AttendanceUploadRepository) Transition(ctx context.Context, id string, from, to models.UploadStatus) error {
	const query = `UPDATE attendance_uploads SET status = $1 WHERE id = $2 AND status = $3`
	result, err := r.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("transition attendance upload: %w", err)
	}
	return expectAffected(result)
}

// MarkCompleted finalises a batch inside the write transaction.
func (r *AttendanceUploadRepository) MarkCompleted(ctx context.Context, exec sqlx.ExtContext, id string, recordsCount int) error {
	const query = `UPDATE attendance_uploads SET status = $1, records_count = $2, error_message = NULL, processed_at = $3
WHERE id = $4 AND status = $5`
	result, err := r.exec(exec).ExecContext(ctx, query, models.UploadStatusCompleted, recordsCount, time.Now().UTC(), id, models.UploadStatusProcessing)
	if err != nil {
		return fmt.Errorf("complete attendance upload: %w", err)
	}
	return expectAffected(result)
}

// MarkFailed records a failure summary. Already terminal batches are left untouched.
func (r *AttendanceUploadRepository) MarkFailed(ctx context.Context, id, message string) error {
	const query = `UPDATE attendance_uploads SET status = $1, error_message = $2, records_count = 0, processed_at = $3
WHERE id = $4 AND status IN ($5, $6)`
	result, err := r.db.ExecContext(ctx, query, models.UploadStatusFailed, message, time.Now().UTC(), id, models.UploadStatusPending, models.UploadStatusProcessing)
	if err != nil {
		return fmt.Errorf("fail attendance upload: %w", err)
	}
	return expectAffected(result)
}

func expectAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
