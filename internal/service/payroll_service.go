package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-payroll-api/internal/dto"
	"github.com/noah-isme/campus-payroll-api/internal/models"
	appErrors "github.com/noah-isme/campus-payroll-api/pkg/errors"
	"github.com/noah-isme/campus-payroll-api/pkg/logger"
)

// Payroll run outcomes reported to metrics.
const (
	PayrollOutcomeCompleted = "completed"
	PayrollOutcomeConflict  = "conflict"
	PayrollOutcomeFailed    = "failed"
)

const payrollSummaryCachePrefix = "payroll:summary:"

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type payrollCycleRepository interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.PayrollCycle, error)
	FindByKey(ctx context.Context, exec sqlx.ExtContext, campusID string, year, month int) (*models.PayrollCycle, error)
	CreateDraft(ctx context.Context, exec sqlx.ExtContext, campusID string, year, month int) (*models.PayrollCycle, error)
	Claim(ctx context.Context, exec sqlx.ExtContext, id string, staleBefore time.Time) error
	Complete(ctx context.Context, exec sqlx.ExtContext, id string, workingDays int) error
	Release(ctx context.Context, id string) error
	Lock(ctx context.Context, id string, at time.Time) error
	List(ctx context.Context, filter models.PayrollCycleFilter) ([]models.PayrollCycle, int, error)
}

type payrollEntryRepository interface {
	ListByCycle(ctx context.Context, exec sqlx.ExtContext, cycleID string) ([]models.PayrollEntry, error)
	DeleteByCycle(ctx context.Context, exec sqlx.ExtContext, cycleID string) (int64, error)
	Create(ctx context.Context, exec sqlx.ExtContext, entry *models.PayrollEntry) error
	FindByID(ctx context.Context, id string) (*dto.PayrollEntryDetail, error)
	List(ctx context.Context, filter models.PayrollEntryFilter) ([]dto.PayrollEntryDetail, int, error)
	Summary(ctx context.Context, query dto.PayrollSummaryQuery) (*models.PayrollSummary, error)
}

type leaveLedger interface {
	Ensure(ctx context.Context, exec sqlx.ExtContext, employeeID string, year int, paidTotal decimal.Decimal) (*models.LeaveBalance, error)
	Apply(ctx context.Context, exec sqlx.ExtContext, employeeID string, year int, delta models.LeaveDelta) error
}

type salaryStructureReader interface {
	ListEffective(ctx context.Context, exec sqlx.ExtContext, employeeID string, from, to time.Time) ([]models.SalaryStructureLine, error)
}

type activeEmployeeLister interface {
	ListActiveByCampus(ctx context.Context, exec sqlx.ExtContext, campusID string) ([]models.Employee, error)
}

type attendanceTallier interface {
	TallyByCampus(ctx context.Context, exec sqlx.ExtContext, campusID string, from, to time.Time) (map[string]models.AttendanceTally, error)
}

type workingDayCalendar interface {
	MonthWorkingDays(ctx context.Context, campusID string, year, month int) (int, []models.Holiday, error)
}

type runLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, key, token string) error
}

// PayrollServiceConfig tunes the payroll engine.
type PayrollServiceConfig struct {
	DefaultPaidLeaves        int
	ReverseLedgerOnRecompute bool
	LockTTL                  time.Duration
	SummaryCacheTTL          time.Duration
}

// PayrollService runs monthly payroll calculations and guards cycle state.
type PayrollService struct {
	cycles     payrollCycleRepository
	entries    payrollEntryRepository
	leaves     leaveLedger
	structures salaryStructureReader
	employees  activeEmployeeLister
	attendance attendanceTallier
	calendar   workingDayCalendar
	locks      runLocker
	cache      *CacheService
	tx         txProvider
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        PayrollServiceConfig
	now        func() time.Time
}

// PayrollServiceDeps groups the collaborators of PayrollService.
type PayrollServiceDeps struct {
	Cycles     payrollCycleRepository
	Entries    payrollEntryRepository
	Leaves     leaveLedger
	Structures salaryStructureReader
	Employees  activeEmployeeLister
	Attendance attendanceTallier
	Calendar   workingDayCalendar
	Locks      runLocker
	Cache      *CacheService
	Tx         txProvider
	Metrics    *MetricsService
	Validator  *validator.Validate
	Logger     *zap.Logger
}

// NewPayrollService wires the payroll engine.
func NewPayrollService(deps PayrollServiceDeps, cfg PayrollServiceConfig) *PayrollService {
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Minute
	}
	return &PayrollService{
		cycles:     deps.Cycles,
		entries:    deps.Entries,
		leaves:     deps.Leaves,
		structures: deps.Structures,
		employees:  deps.Employees,
		attendance: deps.Attendance,
		calendar:   deps.Calendar,
		locks:      deps.Locks,
		cache:      deps.Cache,
		tx:         deps.Tx,
		metrics:    deps.Metrics,
		validator:  deps.Validator,
		logger:     deps.Logger,
		cfg:        cfg,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Calculate computes (or recomputes) the cycle for a campus and month. Entries are replaced
// wholesale; a LOCKED or in-flight cycle is rejected with a state conflict.
func (s *PayrollService) Calculate(ctx context.Context, req dto.CalculatePayrollRequest) (*models.PayrollCycle, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payroll calculation payload")
	}
	if _, _, err := MonthBounds(req.Year, req.Month); err != nil {
		return nil, err
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	if len(req.EmployeeIDs) > 0 {
		s.logger.Sugar().Infow("employee filter ignored; payroll runs cover every active employee", "campus_id", req.CampusID, "requested", len(req.EmployeeIDs))
	}

	release, err := s.acquireRunLock(ctx, req)
	if err != nil {
		s.metrics.ObservePayrollRun(PayrollOutcomeConflict, 0, 0)
		return nil, err
	}
	defer release()

	log := logger.ForContext(ctx, s.logger).Sugar()
	start := time.Now()
	cycle, err := s.claim(ctx, req)
	if err != nil {
		outcome := PayrollOutcomeFailed
		if errors.Is(err, appErrors.ErrStateConflict) {
			outcome = PayrollOutcomeConflict
		}
		s.metrics.ObservePayrollRun(outcome, 0, time.Since(start))
		return nil, err
	}

	written, err := s.run(ctx, cycle)
	if err != nil {
		if relErr := s.cycles.Release(context.WithoutCancel(ctx), cycle.ID); relErr != nil {
			s.logger.Sugar().Errorw("failed to return payroll cycle to draft", "cycle_id", cycle.ID, "error", relErr)
		}
		s.metrics.ObservePayrollRun(PayrollOutcomeFailed, 0, time.Since(start))
		log.Errorw("payroll calculation failed",
			"cycle_id", cycle.ID,
			"campus_id", cycle.CampusID,
			"period", fmt.Sprintf("%04d-%02d", cycle.Year, cycle.Month),
			"error", err)
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
			fmt.Sprintf("payroll calculation failed for campus %s %04d-%02d", cycle.CampusID, cycle.Year, cycle.Month))
	}

	s.metrics.ObservePayrollRun(PayrollOutcomeCompleted, written, time.Since(start))
	s.cache.Invalidate(ctx, payrollSummaryCachePrefix+"*")

	completed, err := s.cycles.FindByID(ctx, nil, cycle.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload payroll cycle")
	}
	log.Infow("payroll calculated",
		"cycle_id", completed.ID,
		"campus_id", completed.CampusID,
		"period", fmt.Sprintf("%04d-%02d", completed.Year, completed.Month),
		"working_days", completed.TotalWorkingDays,
		"entries", written)
	return completed, nil
}

func (s *PayrollService) acquireRunLock(ctx context.Context, req dto.CalculatePayrollRequest) (func(), error) {
	noop := func() {}
	if s.locks == nil {
		return noop, nil
	}
	key := fmt.Sprintf("payroll:lock:%s:%04d:%02d", req.CampusID, req.Year, req.Month)
	token, ok, err := s.locks.Acquire(ctx, key, s.cfg.LockTTL)
	if err != nil {
		s.logger.Sugar().Warnw("payroll run lock unavailable, relying on cycle state guard", "key", key, "error", err)
		return noop, nil
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrStateConflict,
			fmt.Sprintf("payroll calculation already running for campus %s %04d-%02d", req.CampusID, req.Year, req.Month))
	}
	return func() {
		if err := s.locks.Release(context.WithoutCancel(ctx), key, token); err != nil {
			s.logger.Sugar().Warnw("failed to release payroll run lock", "key", key, "error", err)
		}
	}, nil
}

// claim moves the cycle to PROCESSING and clears the previous run's entries.
func (s *PayrollService) claim(ctx context.Context, req dto.CalculatePayrollRequest) (cycle *models.PayrollCycle, err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start payroll transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	cycle, err = s.cycles.FindByKey(ctx, tx, req.CampusID, req.Year, req.Month)
	if errors.Is(err, sql.ErrNoRows) {
		cycle, err = s.cycles.CreateDraft(ctx, tx, req.CampusID, req.Year, req.Month)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve payroll cycle")
	}
	// a PROCESSING cycle older than the run lock TTL belongs to a run that died mid-way
	staleBefore := s.now().Add(-s.cfg.LockTTL)
	if !cycle.Recomputable(staleBefore) {
		err = appErrors.Clone(appErrors.ErrStateConflict,
			fmt.Sprintf("payroll cycle %04d-%02d for campus %s is %s and cannot be recalculated", cycle.Year, cycle.Month, cycle.CampusID, cycle.Status))
		return nil, err
	}
	if cycle.Status == models.CycleStatusProcessing {
		s.logger.Sugar().Warnw("reclaiming abandoned payroll cycle", "cycle_id", cycle.ID, "updated_at", cycle.UpdatedAt)
	}
	if err = s.cycles.Claim(ctx, tx, cycle.ID, staleBefore); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrStateConflict, "payroll cycle changed state concurrently; retry the calculation")
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to claim payroll cycle")
	}

	if s.cfg.ReverseLedgerOnRecompute {
		if err = s.reversePriorEntries(ctx, tx, cycle); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reverse prior leave usage")
		}
	}
	removed, err := s.entries.DeleteByCycle(ctx, tx, cycle.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear previous payroll entries")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit payroll claim")
	}

	cycle.Status = models.CycleStatusProcessing
	s.logger.Sugar().Infow("payroll cycle claimed", "cycle_id", cycle.ID, "previous_entries", removed)
	return cycle, nil
}

func (s *PayrollService) reversePriorEntries(ctx context.Context, tx sqlx.ExtContext, cycle *models.PayrollCycle) error {
	prior, err := s.entries.ListByCycle(ctx, tx, cycle.ID)
	if err != nil {
		return err
	}
	for _, entry := range prior {
		err := s.leaves.Apply(ctx, tx, entry.EmployeeID, cycle.Year, entry.LeaveDelta().Neg())
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
	}
	return nil
}

// run writes one entry per active employee and completes the cycle in a single transaction.
func (s *PayrollService) run(ctx context.Context, cycle *models.PayrollCycle) (written int, err error) {
	workingDays, _, err := s.calendar.MonthWorkingDays(ctx, cycle.CampusID, cycle.Year, cycle.Month)
	if err != nil {
		return 0, err
	}
	if workingDays <= 0 {
		return 0, appErrors.Clone(appErrors.ErrPrecondition,
			fmt.Sprintf("no working days in %04d-%02d for campus %s; check the holiday calendar", cycle.Year, cycle.Month, cycle.CampusID))
	}
	from, to, err := MonthBounds(cycle.Year, cycle.Month)
	if err != nil {
		return 0, err
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin payroll run: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	employees, err := s.employees.ListActiveByCampus(ctx, tx, cycle.CampusID)
	if err != nil {
		return 0, fmt.Errorf("load employees: %w", err)
	}
	tallies, err := s.attendance.TallyByCampus(ctx, tx, cycle.CampusID, from, to)
	if err != nil {
		return 0, fmt.Errorf("tally attendance: %w", err)
	}

	paidTotal := decimal.NewFromInt(int64(s.cfg.DefaultPaidLeaves))
	for _, employee := range employees {
		balance, ensureErr := s.leaves.Ensure(ctx, tx, employee.ID, cycle.Year, paidTotal)
		if ensureErr != nil {
			err = fmt.Errorf("leave balance for %s: %w", employee.Code, ensureErr)
			return 0, err
		}
		lines, linesErr := s.structures.ListEffective(ctx, tx, employee.ID, from, to)
		if linesErr != nil {
			err = fmt.Errorf("salary structure for %s: %w", employee.Code, linesErr)
			return 0, err
		}
		tally := tallies[employee.ID]
		tally.EmployeeID = employee.ID

		entry, delta, computeErr := computeEntry(employee, tally, *balance, lines, workingDays)
		if computeErr != nil {
			err = fmt.Errorf("compute entry for %s: %w", employee.Code, computeErr)
			return 0, err
		}
		entry.PayrollCycleID = cycle.ID
		if err = s.entries.Create(ctx, tx, entry); err != nil {
			return 0, fmt.Errorf("write entry for %s: %w", employee.Code, err)
		}
		if err = s.leaves.Apply(ctx, tx, employee.ID, cycle.Year, delta); err != nil {
			return 0, fmt.Errorf("apply leave usage for %s: %w", employee.Code, err)
		}
		written++
	}

	if err = s.cycles.Complete(ctx, tx, cycle.ID, workingDays); err != nil {
		return 0, fmt.Errorf("complete cycle: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit payroll run: %w", err)
	}
	return written, nil
}

// Lock freezes a COMPLETED cycle. Locking is terminal.
func (s *PayrollService) Lock(ctx context.Context, cycleID string) (*models.PayrollCycle, error) {
	cycle, err := s.GetCycle(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	switch cycle.Status {
	case models.CycleStatusCompleted:
	case models.CycleStatusLocked:
		s.metrics.ObserveCycleLock(PayrollOutcomeConflict)
		return nil, appErrors.Clone(appErrors.ErrStateConflict, "payroll cycle is already locked")
	default:
		s.metrics.ObserveCycleLock(PayrollOutcomeConflict)
		return nil, appErrors.Clone(appErrors.ErrStateConflict,
			fmt.Sprintf("payroll cycle must be COMPLETED before locking; current status is %s", cycle.Status))
	}

	at := s.now()
	if err := s.cycles.Lock(ctx, cycle.ID, at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.ObserveCycleLock(PayrollOutcomeConflict)
			return nil, appErrors.Clone(appErrors.ErrStateConflict, "payroll cycle changed state concurrently; reload and retry")
		}
		s.metrics.ObserveCycleLock(PayrollOutcomeFailed)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock payroll cycle")
	}
	cycle.Status = models.CycleStatusLocked
	cycle.LockedAt = &at
	cycle.UpdatedAt = at

	s.metrics.ObserveCycleLock(PayrollOutcomeCompleted)
	s.cache.Invalidate(ctx, payrollSummaryCachePrefix+"*")
	s.logger.Sugar().Infow("payroll cycle locked", "cycle_id", cycle.ID, "locked_at", at)
	return cycle, nil
}

// GetCycle returns a cycle by ID.
func (s *PayrollService) GetCycle(ctx context.Context, id string) (*models.PayrollCycle, error) {
	cycle, err := s.cycles.FindByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payroll cycle not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payroll cycle")
	}
	return cycle, nil
}

// ListCycles returns cycles matching the filter.
func (s *PayrollService) ListCycles(ctx context.Context, filter models.PayrollCycleFilter) ([]models.PayrollCycle, *models.Pagination, error) {
	cycles, total, err := s.cycles.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payroll cycles")
	}
	return cycles, paginationFor(filter.Limit, filter.Offset, total), nil
}

// GetEntry returns a single entry with its component breakdown.
func (s *PayrollService) GetEntry(ctx context.Context, id string) (*dto.PayrollEntryDetail, error) {
	entry, err := s.entries.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payroll entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payroll entry")
	}
	return entry, nil
}

// ListEntries returns entries matching the filter.
func (s *PayrollService) ListEntries(ctx context.Context, filter models.PayrollEntryFilter) ([]dto.PayrollEntryDetail, *models.Pagination, error) {
	entries, total, err := s.entries.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payroll entries")
	}
	return entries, paginationFor(filter.Limit, filter.Offset, total), nil
}

// Summary totals entries for a cycle or campus period, served from cache when available.
func (s *PayrollService) Summary(ctx context.Context, query dto.PayrollSummaryQuery) (*dto.PayrollSummaryResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payroll summary query")
	}
	if query.CycleID == "" && query.CampusID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cycleId or campusId is required")
	}

	key := fmt.Sprintf("%s%s:%s:%d:%d", payrollSummaryCachePrefix, query.CycleID, query.CampusID, query.Year, query.Month)
	var cached dto.PayrollSummaryResponse
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	summary, err := s.entries.Summary(ctx, query)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarise payroll")
	}
	resp := &dto.PayrollSummaryResponse{Query: query, Summary: *summary}
	s.cache.Set(ctx, key, resp, s.cfg.SummaryCacheTTL)
	return resp, nil
}
