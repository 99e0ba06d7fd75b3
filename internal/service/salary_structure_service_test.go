package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-payroll-api/internal/dto"
	"github.com/noah-isme/campus-payroll-api/internal/models"
	appErrors "github.com/noah-isme/campus-payroll-api/pkg/errors"
)

type structureRepoStub struct {
	components map[string]models.SalaryComponent
	rows       []models.EmployeeSalaryStructure
	createErr  error
}

func (s *structureRepoStub) FindComponent(ctx context.Context, id string) (*models.SalaryComponent, error) {
	component, ok := s.components[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &component, nil
}

func (s *structureRepoStub) ListByEmployee(ctx context.Context, employeeID string) ([]models.SalaryStructureLine, error) {
	var out []models.SalaryStructureLine
	for _, row := range s.rows {
		if row.EmployeeID != employeeID {
			continue
		}
		component := s.components[row.ComponentID]
		out = append(out, models.SalaryStructureLine{EmployeeSalaryStructure: row, ComponentName: component.Name, Kind: component.Kind})
	}
	return out, nil
}

func (s *structureRepoStub) ListByEmployeeComponent(ctx context.Context, exec sqlx.ExtContext, employeeID, componentID string) ([]models.EmployeeSalaryStructure, error) {
	var out []models.EmployeeSalaryStructure
	for _, row := range s.rows {
		if row.EmployeeID == employeeID && row.ComponentID == componentID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *structureRepoStub) Create(ctx context.Context, exec sqlx.ExtContext, row *models.EmployeeSalaryStructure) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.rows = append(s.rows, *row)
	return nil
}

type employeeFinderStub map[string]models.Employee

func (s employeeFinderStub) FindByID(ctx context.Context, id string) (*models.Employee, error) {
	employee, ok := s[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &employee, nil
}

func newStructureFixture(t *testing.T) (*SalaryStructureService, *structureRepoStub, *txProviderMock) {
	t.Helper()
	tx, _ := newTxProviderMock(t)
	repo := &structureRepoStub{components: map[string]models.SalaryComponent{
		"basic": {ID: "basic", Name: "Basic", Kind: models.ComponentKindEarning},
		"pf":    {ID: "pf", Name: "Provident Fund", Kind: models.ComponentKindDeduction},
	}}
	svc := NewSalaryStructureService(repo, employeeFinderStub{"emp-1": {ID: "emp-1"}}, tx, nil, nil)
	return svc, repo, tx
}

func ptrTime(t time.Time) *time.Time {
	return &t
}

func TestSalaryStructureServiceAssign(t *testing.T) {
	svc, repo, tx := newStructureFixture(t)
	tx.mock.ExpectBegin()
	tx.mock.ExpectCommit()

	resp, err := svc.Assign(context.Background(), "emp-1", dto.AssignSalaryStructureRequest{Items: []dto.SalaryStructureItem{
		{ComponentID: "basic", Amount: dec("30000"), EffectiveFrom: day(2024, 1, 1), EffectiveTo: ptrTime(day(2024, 6, 30))},
		{ComponentID: "basic", Amount: dec("32000"), EffectiveFrom: day(2024, 7, 1)},
		{ComponentID: "pf", Amount: dec("1800.456"), EffectiveFrom: day(2024, 1, 1)},
	}})
	require.NoError(t, err)
	assert.Len(t, resp.Lines, 3)
	require.Len(t, repo.rows, 3)
	requireDecimal(t, "1800.46", repo.rows[2].Amount)
	require.NoError(t, tx.mock.ExpectationsWereMet())
}

func TestSalaryStructureServiceAssignRejectsOverlapWithExisting(t *testing.T) {
	svc, repo, tx := newStructureFixture(t)
	repo.rows = []models.EmployeeSalaryStructure{{EmployeeID: "emp-1", ComponentID: "basic", Amount: dec("30000"), EffectiveFrom: day(2024, 1, 1)}}
	tx.mock.ExpectBegin()
	tx.mock.ExpectRollback()

	_, err := svc.Assign(context.Background(), "emp-1", dto.AssignSalaryStructureRequest{Items: []dto.SalaryStructureItem{
		{ComponentID: "basic", Amount: dec("35000"), EffectiveFrom: day(2024, 4, 1)},
	}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	assert.Len(t, repo.rows, 1)
	require.NoError(t, tx.mock.ExpectationsWereMet())
}

func TestSalaryStructureServiceAssignMapsExclusionViolation(t *testing.T) {
	svc, repo, tx := newStructureFixture(t)
	repo.createErr = &pq.Error{Code: "23P01"}
	tx.mock.ExpectBegin()
	tx.mock.ExpectRollback()

	_, err := svc.Assign(context.Background(), "emp-1", dto.AssignSalaryStructureRequest{Items: []dto.SalaryStructureItem{
		{ComponentID: "basic", Amount: dec("35000"), EffectiveFrom: day(2024, 4, 1)},
	}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestSalaryStructureServiceAssignValidatesItems(t *testing.T) {
	svc, _, _ := newStructureFixture(t)
	cases := map[string]dto.SalaryStructureItem{
		"unknown component": {ComponentID: "bonus", Amount: dec("1"), EffectiveFrom: day(2024, 1, 1)},
		"negative amount":   {ComponentID: "basic", Amount: dec("-1"), EffectiveFrom: day(2024, 1, 1)},
		"inverted range":    {ComponentID: "basic", Amount: dec("1"), EffectiveFrom: day(2024, 2, 1), EffectiveTo: ptrTime(day(2024, 1, 1))},
	}
	for name, item := range cases {
		_, err := svc.Assign(context.Background(), "emp-1", dto.AssignSalaryStructureRequest{Items: []dto.SalaryStructureItem{item}})
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, appErrors.ErrValidation), name)
	}

	_, err := svc.Assign(context.Background(), "emp-1", dto.AssignSalaryStructureRequest{Items: []dto.SalaryStructureItem{
		{ComponentID: "basic", Amount: dec("1"), EffectiveFrom: day(2024, 1, 1)},
		{ComponentID: "basic", Amount: dec("2"), EffectiveFrom: day(2024, 3, 1)},
	}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestSalaryStructureServiceUnknownEmployee(t *testing.T) {
	svc, _, _ := newStructureFixture(t)

	_, err := svc.ListByEmployee(context.Background(), "ghost", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

type leaveBalanceReaderStub map[string]models.LeaveBalance

func (s leaveBalanceReaderStub) Find(ctx context.Context, employeeID string, year int) (*models.LeaveBalance, error) {
	balance, ok := s[employeeID]
	if !ok || balance.Year != year {
		return nil, sql.ErrNoRows
	}
	return &balance, nil
}

func TestLeaveServiceGetBalance(t *testing.T) {
	balances := leaveBalanceReaderStub{"emp-1": {EmployeeID: "emp-1", Year: 2024, PaidLeavesTotal: dec("12"), PaidLeavesUsed: dec("4.5"), CompLeavesEarned: dec("2"), CompLeavesUsed: dec("1")}}
	svc := NewLeaveService(balances, employeeFinderStub{"emp-1": {ID: "emp-1"}}, 12)

	resp, err := svc.GetBalance(context.Background(), "emp-1", 2024)
	require.NoError(t, err)
	assert.False(t, resp.Projected)
	requireDecimal(t, "7.5", resp.PaidAvailable)
	requireDecimal(t, "1", resp.CompAvailable)

	resp, err = svc.GetBalance(context.Background(), "emp-1", 2025)
	require.NoError(t, err)
	assert.True(t, resp.Projected)
	requireDecimal(t, "12", resp.PaidAvailable)

	_, err = svc.GetBalance(context.Background(), "ghost", 2024)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestSalaryStructureServiceListActiveOn(t *testing.T) {
	svc, repo, _ := newStructureFixture(t)
	repo.rows = []models.EmployeeSalaryStructure{
		{EmployeeID: "emp-1", ComponentID: "basic", Amount: dec("30000"), EffectiveFrom: day(2024, 1, 1), EffectiveTo: ptrTime(day(2024, 6, 30))},
		{EmployeeID: "emp-1", ComponentID: "basic", Amount: dec("32000"), EffectiveFrom: day(2024, 7, 1)},
		{EmployeeID: "emp-1", ComponentID: "pf", Amount: dec("1800"), EffectiveFrom: day(2024, 1, 1)},
	}

	all, err := svc.ListByEmployee(context.Background(), "emp-1", nil)
	require.NoError(t, err)
	assert.Len(t, all.Lines, 3)

	active, err := svc.ListByEmployee(context.Background(), "emp-1", ptrTime(day(2024, 6, 30)))
	require.NoError(t, err)
	require.Len(t, active.Lines, 2)
	requireDecimal(t, "30000", active.Lines[0].Amount)
	assert.Equal(t, "pf", active.Lines[1].ComponentID)
}
