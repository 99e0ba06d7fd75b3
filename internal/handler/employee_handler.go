package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-payroll-api/internal/dto"
	appErrors "github.com/noah-isme/campus-payroll-api/pkg/errors"
	"github.com/noah-isme/campus-payroll-api/pkg/response"
)

type salaryStructureService interface {
	ListByEmployee(ctx context.Context, employeeID string, activeOn *time.Time) (*dto.SalaryStructureResponse, error)
	Assign(ctx context.Context, employeeID string, req dto.AssignSalaryStructureRequest) (*dto.SalaryStructureResponse, error)
}

type leaveBalanceService interface {
	GetBalance(ctx context.Context, employeeID string, year int) (*dto.LeaveBalanceResponse, error)
}

// EmployeeHandler exposes per-employee payroll configuration.
type EmployeeHandler struct {
	structures salaryStructureService
	leaves     leaveBalanceService
	now        func() time.Time
}

// NewEmployeeHandler builds a new handler.
func NewEmployeeHandler(structures salaryStructureService, leaves leaveBalanceService) *EmployeeHandler {
	return &EmployeeHandler{structures: structures, leaves: leaves, now: time.Now}
}

// GetSalaryStructure godoc
// @Summary List salary structure lines of an employee
// @Tags Employees
// @Produce json
// @Param id path string true "Employee ID"
// @Param activeOn query string false "Only lines effective on this date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /employees/{id}/salary-structure [get]
func (h *EmployeeHandler) GetSalaryStructure(c *gin.Context) {
	activeOn, err := parseDateParam(c.Query("activeOn"))
	if err != nil {
		response.Error(c, err)
		return
	}
	structure, err := h.structures.ListByEmployee(c.Request.Context(), c.Param("id"), activeOn)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, structure, nil)
}

// AssignSalaryStructure godoc
// @Summary Add dated salary components to an employee
// @Tags Employees
// @Accept json
// @Produce json
// @Param id path string true "Employee ID"
// @Param payload body dto.AssignSalaryStructureRequest true "Structure rows"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /employees/{id}/salary-structure [put]
func (h *EmployeeHandler) AssignSalaryStructure(c *gin.Context) {
	var req dto.AssignSalaryStructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid salary structure payload"))
		return
	}
	structure, err := h.structures.Assign(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, structure, nil)
}

// GetLeaveBalance godoc
// @Summary Leave ledger of an employee
// @Tags Employees
// @Produce json
// @Param id path string true "Employee ID"
// @Param year query int false "Year (defaults to current)"
// @Success 200 {object} response.Envelope
// @Router /employees/{id}/leave-balance [get]
func (h *EmployeeHandler) GetLeaveBalance(c *gin.Context) {
	year, err := strictQueryInt(c, "year")
	if err != nil {
		response.Error(c, err)
		return
	}
	if year == 0 {
		year = h.now().Year()
	}
	balance, err := h.leaves.GetBalance(c.Request.Context(), c.Param("id"), year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, balance, nil)
}
