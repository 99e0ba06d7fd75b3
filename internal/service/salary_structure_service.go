package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-payroll-api/internal/dto"
	"github.com/noah-isme/campus-payroll-api/internal/models"
	appErrors "github.com/noah-isme/campus-payroll-api/pkg/errors"
)

type salaryStructureRepository interface {
	FindComponent(ctx context.Context, id string) (*models.SalaryComponent, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]models.SalaryStructureLine, error)
	ListByEmployeeComponent(ctx context.Context, exec sqlx.ExtContext, employeeID, componentID string) ([]models.EmployeeSalaryStructure, error)
	Create(ctx context.Context, exec sqlx.ExtContext, row *models.EmployeeSalaryStructure) error
}

type employeeFinder interface {
	FindByID(ctx context.Context, id string) (*models.Employee, error)
}

// SalaryStructureService maintains the dated salary components of employees.
type SalaryStructureService struct {
	structures salaryStructureRepository
	employees  employeeFinder
	tx         txProvider
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewSalaryStructureService constructs the service.
func NewSalaryStructureService(structures salaryStructureRepository, employees employeeFinder, tx txProvider, validate *validator.Validate, logger *zap.Logger) *SalaryStructureService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SalaryStructureService{structures: structures, employees: employees, tx: tx, validator: validate, logger: logger}
}

// ListByEmployee returns the structure lines of an employee. A non-nil activeOn keeps only
// lines effective on that date.
func (s *SalaryStructureService) ListByEmployee(ctx context.Context, employeeID string, activeOn *time.Time) (*dto.SalaryStructureResponse, error) {
	if _, err := s.loadEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	lines, err := s.structures.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load salary structure")
	}
	if activeOn != nil {
		on := dateOnly(*activeOn)
		effective := lines[:0]
		for _, line := range lines {
			if line.Overlaps(on, &on) {
				effective = append(effective, line)
			}
		}
		lines = effective
	}
	return &dto.SalaryStructureResponse{EmployeeID: employeeID, Lines: lines}, nil
}

// Assign adds dated component rows for an employee. Ranges for the same component must not overlap.
func (s *SalaryStructureService) Assign(ctx context.Context, employeeID string, req dto.AssignSalaryStructureRequest) (_ *dto.SalaryStructureResponse, err error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid salary structure payload")
	}
	if _, err := s.loadEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	rows, err := s.buildRows(ctx, employeeID, req.Items)
	if err != nil {
		return nil, err
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start salary structure transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, row := range rows {
		existing, listErr := s.structures.ListByEmployeeComponent(ctx, tx, employeeID, row.ComponentID)
		if listErr != nil {
			return nil, appErrors.Wrap(listErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load salary structure")
		}
		for _, current := range existing {
			if current.Overlaps(row.EffectiveFrom, row.EffectiveTo) {
				return nil, appErrors.Clone(appErrors.ErrConflict,
					fmt.Sprintf("component %s already has a structure effective from %s", row.ComponentID, current.EffectiveFrom.Format(time.DateOnly)))
			}
		}
		if err = s.structures.Create(ctx, tx, row); err != nil {
			if isConstraintViolation(err) {
				return nil, appErrors.Clone(appErrors.ErrConflict, "salary structure overlaps an existing range")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save salary structure")
		}
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit salary structure")
	}

	s.logger.Sugar().Infow("salary structure assigned", "employee_id", employeeID, "rows", len(rows))
	return s.ListByEmployee(ctx, employeeID, nil)
}

// buildRows validates items against the catalog and against each other.
func (s *SalaryStructureService) buildRows(ctx context.Context, employeeID string, items []dto.SalaryStructureItem) ([]*models.EmployeeSalaryStructure, error) {
	rows := make([]*models.EmployeeSalaryStructure, 0, len(items))
	for i, item := range items {
		if item.Amount.IsNegative() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("items[%d]: amount must not be negative", i))
		}
		from := dateOnly(item.EffectiveFrom)
		var to *time.Time
		if item.EffectiveTo != nil {
			end := dateOnly(*item.EffectiveTo)
			if end.Before(from) {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("items[%d]: effectiveTo is before effectiveFrom", i))
			}
			to = &end
		}
		component, err := s.structures.FindComponent(ctx, item.ComponentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("items[%d]: unknown salary component %s", i, item.ComponentID))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load salary component")
		}
		if !component.Kind.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("items[%d]: component %s has unsupported type %s", i, component.ID, component.Kind))
		}
		row := &models.EmployeeSalaryStructure{
			EmployeeID:    employeeID,
			ComponentID:   component.ID,
			Amount:        item.Amount.Round(2),
			EffectiveFrom: from,
			EffectiveTo:   to,
		}
		for _, prior := range rows {
			if prior.ComponentID == row.ComponentID && prior.Overlaps(row.EffectiveFrom, row.EffectiveTo) {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("items[%d]: overlaps another item for component %s", i, row.ComponentID))
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *SalaryStructureService) loadEmployee(ctx context.Context, employeeID string) (*models.Employee, error) {
	employee, err := s.employees.FindByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}
	return employee, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// isConstraintViolation matches unique and exclusion violations raised by postgres.
func isConstraintViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "23505" || pqErr.Code == "23P01"
}
