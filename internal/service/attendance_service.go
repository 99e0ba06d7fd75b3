package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-payroll-api/internal/dto"
	"github.com/noah-isme/campus-payroll-api/internal/models"
	appErrors "github.com/noah-isme/campus-payroll-api/pkg/errors"
	"github.com/noah-isme/campus-payroll-api/pkg/jobs"
	"github.com/noah-isme/campus-payroll-api/pkg/logger"
	"github.com/noah-isme/campus-payroll-api/pkg/storage"
)

// JobTypeAttendanceIngest identifies queued ingestion jobs.
const JobTypeAttendanceIngest = "attendance.ingest"

const maxRecordedIngestErrors = 5

type attendanceUploadRepository interface {
	Create(ctx context.Context, upload *models.AttendanceUpload) error
	FindByID(ctx context.Context, id string) (*models.AttendanceUpload, error)
	List(ctx context.Context, filter models.AttendanceUploadFilter) ([]models.AttendanceUpload, int, error)
	Transition(ctx context.Context, id string, from, to models.UploadStatus) error
	MarkCompleted(ctx context.Context, exec sqlx.ExtContext, id string, recordsCount int) error
	MarkFailed(ctx context.Context, id, message string) error
}

type attendanceRecordRepository interface {
	Upsert(ctx context.Context, exec sqlx.ExtContext, record *models.AttendanceRecord) (bool, error)
	TallyByCampus(ctx context.Context, exec sqlx.ExtContext, campusID string, from, to time.Time) (map[string]models.AttendanceTally, error)
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error)
}

type employeeDirectory interface {
	ResolveActiveCodes(ctx context.Context, campusID string, codes []string) (map[string]string, error)
	ListActiveByCampus(ctx context.Context, exec sqlx.ExtContext, campusID string) ([]models.Employee, error)
}

type uploadStore interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Open(filename string) (io.ReadCloser, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// AttendanceServiceConfig tunes ingestion behaviour.
type AttendanceServiceConfig struct {
	AsyncIngest bool
}

// AttendanceService ingests attendance workbooks and serves attendance queries.
type AttendanceService struct {
	uploads   attendanceUploadRepository
	records   attendanceRecordRepository
	employees employeeDirectory
	files     uploadStore
	tx        txProvider
	queue     jobEnqueuer
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       AttendanceServiceConfig
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(
	uploads attendanceUploadRepository,
	records attendanceRecordRepository,
	employees employeeDirectory,
	files uploadStore,
	tx txProvider,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg AttendanceServiceConfig,
) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		uploads:   uploads,
		records:   records,
		employees: employees,
		files:     files,
		tx:        tx,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// UseQueue routes uploads through an asynchronous ingestion queue when async ingestion is enabled.
func (s *AttendanceService) UseQueue(queue jobEnqueuer) {
	s.queue = queue
}

// CreateUpload stores the workbook, registers a PENDING batch and ingests it inline or via the queue.
func (s *AttendanceService) CreateUpload(ctx context.Context, req dto.CreateAttendanceUploadRequest, filename string, content io.Reader) (*dto.AttendanceUploadResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance upload payload")
	}
	base := filepath.Base(strings.TrimSpace(filename))
	if !strings.EqualFold(filepath.Ext(base), ".xlsx") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "attendance workbook must be an .xlsx file")
	}

	upload := &models.AttendanceUpload{
		CampusID: req.CampusID,
		Year:     req.Year,
		Month:    req.Month,
		FileName: base,
		Status:   models.UploadStatusPending,
	}
	stamp := time.Now().UTC().Format("20060102T150405")
	stored, err := s.files.SaveStream(path.Join(req.CampusID, fmt.Sprintf("%04d-%02d", req.Year, req.Month), stamp+"-"+base), content)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidKey) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "campus id cannot be used as a storage path")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store attendance workbook")
	}
	upload.FilePath = stored

	if err := s.uploads.Create(ctx, upload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register attendance upload")
	}
	s.logger.Sugar().Infow("attendance upload registered", "upload_id", upload.ID, "campus_id", upload.CampusID, "file", upload.FileName)

	if s.cfg.AsyncIngest && s.queue != nil {
		err := s.queue.Enqueue(jobs.Job{ID: upload.ID, Type: JobTypeAttendanceIngest, Payload: upload.ID})
		if err == nil {
			return &dto.AttendanceUploadResponse{Upload: upload, Queued: true}, nil
		}
		s.logger.Sugar().Warnw("ingest queue unavailable, processing inline", "upload_id", upload.ID, "error", err)
	}

	result, err := s.Ingest(ctx, upload.ID)
	if err != nil {
		return nil, err
	}
	refreshed, err := s.uploads.FindByID(ctx, upload.ID)
	if err == nil {
		upload = refreshed
	}
	return &dto.AttendanceUploadResponse{Upload: upload, Result: result}, nil
}

// Ingest parses a PENDING batch and merges its facts into the attendance store.
func (s *AttendanceService) Ingest(ctx context.Context, uploadID string) (*dto.IngestResult, error) {
	upload, err := s.uploads.FindByID(ctx, uploadID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance upload not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance upload")
	}
	if upload.Status != models.UploadStatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("attendance upload is %s; only PENDING uploads can be processed", upload.Status))
	}
	if err := s.uploads.Transition(ctx, upload.ID, models.UploadStatusPending, models.UploadStatusProcessing); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "attendance upload is already being processed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start attendance ingestion")
	}
	upload.Status = models.UploadStatusProcessing

	log := logger.ForContext(ctx, s.logger).Sugar()
	start := time.Now()
	result, err := s.process(ctx, upload)
	if err != nil {
		s.fail(ctx, upload.ID, err.Error())
		s.metrics.ObserveIngest(string(models.UploadStatusFailed), 0, time.Since(start))
		log.Errorw("attendance ingestion failed", "upload_id", upload.ID, "error", err)
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to ingest attendance upload")
	}

	s.metrics.ObserveIngest(string(result.Status), result.RecordsCreated+result.RecordsUpdated, time.Since(start))
	log.Infow("attendance ingestion finished",
		"upload_id", upload.ID,
		"status", result.Status,
		"created", result.RecordsCreated,
		"updated", result.RecordsUpdated,
		"errors", len(result.Errors))
	return result, nil
}

func (s *AttendanceService) process(ctx context.Context, upload *models.AttendanceUpload) (*dto.IngestResult, error) {
	file, err := s.files.Open(upload.FilePath)
	if err != nil {
		return nil, fmt.Errorf("open stored workbook: %w", err)
	}
	defer file.Close() //nolint:errcheck

	rows, err := ReadSheetRows(file)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "attendance workbook could not be read")
	}

	period := time.Date(upload.Year, time.Month(upload.Month), 1, 0, 0, 0, 0, time.UTC)
	parsed, err := parseAttendanceRows(ctx, rows, period, func(ctx context.Context, codes []string) (map[string]string, error) {
		return s.employees.ResolveActiveCodes(ctx, upload.CampusID, codes)
	})
	if err != nil {
		return nil, err
	}

	result := &dto.IngestResult{UploadID: upload.ID}
	if len(parsed.Errors) > 0 {
		result.Status = models.UploadStatusFailed
		result.Errors = parsed.Errors
		s.fail(ctx, upload.ID, summariseIngestErrors(parsed.Errors))
		return result, nil
	}

	if err := s.persist(ctx, upload.ID, parsed.Facts, result); err != nil {
		return nil, err
	}
	result.Status = models.UploadStatusCompleted
	return result, nil
}

func (s *AttendanceService) persist(ctx context.Context, uploadID string, facts []attendanceFact, result *dto.IngestResult) (err error) {
	if s.tx == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attendance transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	batch := uploadID
	for _, fact := range facts {
		record := &models.AttendanceRecord{
			EmployeeID:         fact.EmployeeID,
			Date:               fact.Date,
			Status:             fact.Status,
			AttendanceUploadID: &batch,
		}
		inserted, upsertErr := s.records.Upsert(ctx, tx, record)
		if upsertErr != nil {
			err = upsertErr
			return err
		}
		if inserted {
			result.RecordsCreated++
		} else {
			result.RecordsUpdated++
		}
	}

	if err = s.uploads.MarkCompleted(ctx, tx, uploadID, result.RecordsCreated+result.RecordsUpdated); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance transaction: %w", err)
	}
	return nil
}

func (s *AttendanceService) fail(ctx context.Context, uploadID, message string) {
	if err := s.uploads.MarkFailed(context.WithoutCancel(ctx), uploadID, message); err != nil {
		s.logger.Sugar().Warnw("failed to mark attendance upload failed", "upload_id", uploadID, "error", err)
	}
}

func summariseIngestErrors(errs []string) string {
	if len(errs) > maxRecordedIngestErrors {
		errs = errs[:maxRecordedIngestErrors]
	}
	return strings.Join(errs, "; ")
}

// HandleIngestJob is the queue handler for asynchronous ingestion. Precondition failures are
// not retried.
func (s *AttendanceService) HandleIngestJob(ctx context.Context, job jobs.Job) error {
	uploadID, ok := job.Payload.(string)
	if !ok || uploadID == "" {
		s.logger.Sugar().Errorw("discarding malformed ingest job", "job_id", job.ID)
		return nil
	}
	_, err := s.Ingest(ctx, uploadID)
	if err == nil {
		return nil
	}
	if errors.Is(err, appErrors.ErrNotFound) || errors.Is(err, appErrors.ErrInvalidState) || errors.Is(err, appErrors.ErrValidation) {
		s.logger.Sugar().Warnw("ingest job rejected", "upload_id", uploadID, "error", err)
		return nil
	}
	return err
}

// GetUpload returns a single batch.
func (s *AttendanceService) GetUpload(ctx context.Context, id string) (*models.AttendanceUpload, error) {
	upload, err := s.uploads.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance upload not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance upload")
	}
	return upload, nil
}

// ListUploads returns batches for the filter with pagination metadata.
func (s *AttendanceService) ListUploads(ctx context.Context, filter models.AttendanceUploadFilter) ([]models.AttendanceUpload, *models.Pagination, error) {
	uploads, total, err := s.uploads.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance uploads")
	}
	return uploads, paginationFor(filter.Limit, filter.Offset, total), nil
}

// ListRecords returns attendance facts for the filter.
func (s *AttendanceService) ListRecords(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, *models.Pagination, error) {
	records, total, err := s.records.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance records")
	}
	return records, paginationFor(filter.Limit, filter.Offset, total), nil
}

// MonthlySummary tallies each active employee's attendance for a month.
func (s *AttendanceService) MonthlySummary(ctx context.Context, query dto.AttendanceSummaryQuery) ([]dto.AttendanceSummaryItem, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance summary query")
	}
	start, end, err := MonthBounds(query.Year, query.Month)
	if err != nil {
		return nil, err
	}
	employees, err := s.employees.ListActiveByCampus(ctx, nil, query.CampusID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employees")
	}
	tallies, err := s.records.TallyByCampus(ctx, nil, query.CampusID, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to tally attendance")
	}

	items := make([]dto.AttendanceSummaryItem, 0, len(employees))
	for _, employee := range employees {
		tally := tallies[employee.ID]
		items = append(items, dto.AttendanceSummaryItem{
			EmployeeID:   employee.ID,
			EmployeeCode: employee.Code,
			EmployeeName: employee.FullName(),
			TotalDays:    end.Day(),
			Present:      tally.Present,
			Absent:       tally.Absent,
			HalfDays:     tally.HalfDays,
			WeekendWork:  tally.WeekendWork,
			Holidays:     tally.Holidays,
			Leaves:       tally.Leaves,
			DaysPresent:  tally.DaysPresent(),
		})
	}
	return items, nil
}

func paginationFor(limit, offset, total int) *models.Pagination {
	if limit <= 0 {
		return &models.Pagination{Page: 1, PageSize: total, TotalCount: total}
	}
	return &models.Pagination{Page: offset/limit + 1, PageSize: limit, TotalCount: total}
}
