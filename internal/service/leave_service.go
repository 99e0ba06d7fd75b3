package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/campus-payroll-api/internal/dto"
	"github.com/noah-isme/campus-payroll-api/internal/models"
	appErrors "github.com/noah-isme/campus-payroll-api/pkg/errors"
)

type leaveBalanceReader interface {
	Find(ctx context.Context, employeeID string, year int) (*models.LeaveBalance, error)
}

// LeaveService reports leave ledger balances.
type LeaveService struct {
	balances          leaveBalanceReader
	employees         employeeFinder
	defaultPaidLeaves int
}

// NewLeaveService constructs the leave service.
func NewLeaveService(balances leaveBalanceReader, employees employeeFinder, defaultPaidLeaves int) *LeaveService {
	return &LeaveService{balances: balances, employees: employees, defaultPaidLeaves: defaultPaidLeaves}
}

// GetBalance returns the ledger of an employee for a year. Years without a ledger row report
// the entitlement a payroll run would create.
func (s *LeaveService) GetBalance(ctx context.Context, employeeID string, year int) (*dto.LeaveBalanceResponse, error) {
	if year < 1900 || year > 9999 {
		return nil, appErrors.Clone(appErrors.ErrInvalidArgument, "year must be between 1900 and 9999")
	}
	if _, err := s.employees.FindByID(ctx, employeeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}

	balance, err := s.balances.Find(ctx, employeeID, year)
	projected := false
	if errors.Is(err, sql.ErrNoRows) {
		projected = true
		balance = &models.LeaveBalance{
			EmployeeID:      employeeID,
			Year:            year,
			PaidLeavesTotal: decimal.NewFromInt(int64(s.defaultPaidLeaves)),
		}
	} else if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave balance")
	}
	return &dto.LeaveBalanceResponse{
		LeaveBalance:  *balance,
		PaidAvailable: balance.PaidAvailable(),
		CompAvailable: balance.CompAvailable(),
		Projected:     projected,
	}, nil
}
