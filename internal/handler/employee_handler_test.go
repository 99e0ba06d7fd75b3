package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-payroll-api/internal/dto"
	appErrors "github.com/noah-isme/campus-payroll-api/pkg/errors"
)

type structureServiceMock struct {
	assignErr  error
	lastReq    dto.AssignSalaryStructureRequest
	lastEmpID  string
	assignHits int
	lastActive *time.Time
}

func (m *structureServiceMock) ListByEmployee(ctx context.Context, employeeID string, activeOn *time.Time) (*dto.SalaryStructureResponse, error) {
	m.lastEmpID = employeeID
	m.lastActive = activeOn
	return &dto.SalaryStructureResponse{EmployeeID: employeeID}, nil
}

func (m *structureServiceMock) Assign(ctx context.Context, employeeID string, req dto.AssignSalaryStructureRequest) (*dto.SalaryStructureResponse, error) {
	m.assignHits++
	m.lastEmpID = employeeID
	m.lastReq = req
	if m.assignErr != nil {
		return nil, m.assignErr
	}
	return &dto.SalaryStructureResponse{EmployeeID: employeeID}, nil
}

type leaveServiceMock struct {
	lastYear int
}

func (m *leaveServiceMock) GetBalance(ctx context.Context, employeeID string, year int) (*dto.LeaveBalanceResponse, error) {
	m.lastYear = year
	return &dto.LeaveBalanceResponse{}, nil
}

func TestEmployeeHandlerAssignSalaryStructure(t *testing.T) {
	structures := &structureServiceMock{}
	handler := NewEmployeeHandler(structures, &leaveServiceMock{})

	payload := []byte(`{"items":[{"salaryComponentId":"basic","amount":"30000.50","effectiveFrom":"2024-01-01T00:00:00Z"}]}`)
	c, w := newTestContext(http.MethodPut, "/employees/emp-1/salary-structure", payload)
	c.Params = gin.Params{{Key: "id", Value: "emp-1"}}
	handler.AssignSalaryStructure(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "emp-1", structures.lastEmpID)
	require.Len(t, structures.lastReq.Items, 1)
	assert.Equal(t, "30000.5", structures.lastReq.Items[0].Amount.String())
}

func TestEmployeeHandlerAssignConflict(t *testing.T) {
	structures := &structureServiceMock{assignErr: appErrors.Clone(appErrors.ErrConflict, "overlap")}
	handler := NewEmployeeHandler(structures, &leaveServiceMock{})

	payload, _ := json.Marshal(dto.AssignSalaryStructureRequest{Items: []dto.SalaryStructureItem{{ComponentID: "basic", EffectiveFrom: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}}})
	c, w := newTestContext(http.MethodPut, "/employees/emp-1/salary-structure", payload)
	c.Params = gin.Params{{Key: "id", Value: "emp-1"}}
	handler.AssignSalaryStructure(c)

	require.Equal(t, http.StatusConflict, w.Code)
}

func TestEmployeeHandlerLeaveBalanceDefaultsYear(t *testing.T) {
	leaves := &leaveServiceMock{}
	handler := NewEmployeeHandler(&structureServiceMock{}, leaves)
	handler.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }

	c, w := newTestContext(http.MethodGet, "/employees/emp-1/leave-balance", nil)
	c.Params = gin.Params{{Key: "id", Value: "emp-1"}}
	handler.GetLeaveBalance(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2025, leaves.lastYear)

	c, w = newTestContext(http.MethodGet, "/employees/emp-1/leave-balance?year=2023", nil)
	c.Params = gin.Params{{Key: "id", Value: "emp-1"}}
	handler.GetLeaveBalance(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2023, leaves.lastYear)
}

func TestEmployeeHandlerSalaryStructureActiveOn(t *testing.T) {
	structures := &structureServiceMock{}
	handler := NewEmployeeHandler(structures, &leaveServiceMock{})

	c, w := newTestContext(http.MethodGet, "/employees/emp-1/salary-structure?activeOn=2024-03-15", nil)
	c.Params = gin.Params{{Key: "id", Value: "emp-1"}}
	handler.GetSalaryStructure(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, structures.lastActive)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), *structures.lastActive)

	c, w = newTestContext(http.MethodGet, "/employees/emp-1/salary-structure?activeOn=15-03-2024", nil)
	c.Params = gin.Params{{Key: "id", Value: "emp-1"}}
	handler.GetSalaryStructure(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
