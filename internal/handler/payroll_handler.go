package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-payroll-api/internal/dto"
	"github.com/noah-isme/campus-payroll-api/internal/models"
	appErrors "github.com/noah-isme/campus-payroll-api/pkg/errors"
	"github.com/noah-isme/campus-payroll-api/pkg/response"
)

type payrollService interface {
	Calculate(ctx context.Context, req dto.CalculatePayrollRequest) (*models.PayrollCycle, error)
	Lock(ctx context.Context, cycleID string) (*models.PayrollCycle, error)
	GetCycle(ctx context.Context, id string) (*models.PayrollCycle, error)
	ListCycles(ctx context.Context, filter models.PayrollCycleFilter) ([]models.PayrollCycle, *models.Pagination, error)
	GetEntry(ctx context.Context, id string) (*dto.PayrollEntryDetail, error)
	ListEntries(ctx context.Context, filter models.PayrollEntryFilter) ([]dto.PayrollEntryDetail, *models.Pagination, error)
	Summary(ctx context.Context, query dto.PayrollSummaryQuery) (*dto.PayrollSummaryResponse, error)
}

// PayrollHandler exposes payroll cycle endpoints.
type PayrollHandler struct {
	service payrollService
}

// NewPayrollHandler builds a new handler.
func NewPayrollHandler(service payrollService) *PayrollHandler {
	return &PayrollHandler{service: service}
}

// Calculate godoc
// @Summary Calculate payroll for a campus month
// @Description Creates the cycle when missing and replaces its entries. Locked cycles are rejected.
// @Tags Payroll
// @Accept json
// @Produce json
// @Param payload body dto.CalculatePayrollRequest true "Calculation payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /payroll/calculate [post]
func (h *PayrollHandler) Calculate(c *gin.Context) {
	var req dto.CalculatePayrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payroll calculation payload"))
		return
	}
	cycle, err := h.service.Calculate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cycle, nil)
}

// Lock godoc
// @Summary Lock a completed payroll cycle
// @Tags Payroll
// @Produce json
// @Param id path string true "Cycle ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /payroll/cycles/{id}/lock [post]
func (h *PayrollHandler) Lock(c *gin.Context) {
	cycle, err := h.service.Lock(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cycle, nil)
}

// ListCycles godoc
// @Summary List payroll cycles
// @Tags Payroll
// @Produce json
// @Param campusId query string false "Campus ID"
// @Param year query int false "Year"
// @Param month query int false "Month"
// @Param status query string false "DRAFT, PROCESSING, COMPLETED or LOCKED"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /payroll/cycles [get]
func (h *PayrollHandler) ListCycles(c *gin.Context) {
	year, err := strictQueryInt(c, "year")
	if err != nil {
		response.Error(c, err)
		return
	}
	month, err := strictQueryInt(c, "month")
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.PayrollCycleFilter{
		CampusID: c.Query("campusId"),
		Year:     year,
		Month:    month,
		Status:   models.CycleStatus(strings.ToUpper(c.Query("status"))),
	}
	filter.Limit, filter.Offset = pageWindow(c)

	cycles, pagination, err := h.service.ListCycles(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cycles, pagination)
}

// GetCycle godoc
// @Summary Get payroll cycle
// @Tags Payroll
// @Produce json
// @Param id path string true "Cycle ID"
// @Success 200 {object} response.Envelope
// @Router /payroll/cycles/{id} [get]
func (h *PayrollHandler) GetCycle(c *gin.Context) {
	cycle, err := h.service.GetCycle(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cycle, nil)
}

// ListEntries godoc
// @Summary List payroll entries
// @Tags Payroll
// @Produce json
// @Param cycleId query string false "Cycle ID"
// @Param employeeId query string false "Employee ID"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /payroll/entries [get]
func (h *PayrollHandler) ListEntries(c *gin.Context) {
	filter := models.PayrollEntryFilter{
		CycleID:    c.Query("cycleId"),
		EmployeeID: c.Query("employeeId"),
	}
	if filter.CycleID == "" && filter.EmployeeID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "cycleId or employeeId required"))
		return
	}
	filter.Limit, filter.Offset = pageWindow(c)

	entries, pagination, err := h.service.ListEntries(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

// GetEntry godoc
// @Summary Get payroll entry with component breakdown
// @Tags Payroll
// @Produce json
// @Param id path string true "Entry ID"
// @Success 200 {object} response.Envelope
// @Router /payroll/entries/{id} [get]
func (h *PayrollHandler) GetEntry(c *gin.Context) {
	entry, err := h.service.GetEntry(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Summary godoc
// @Summary Payroll totals for a cycle or campus period
// @Tags Payroll
// @Produce json
// @Param cycleId query string false "Cycle ID"
// @Param campusId query string false "Campus ID"
// @Param year query int false "Year"
// @Param month query int false "Month"
// @Success 200 {object} response.Envelope
// @Router /payroll/summary [get]
func (h *PayrollHandler) Summary(c *gin.Context) {
	var query dto.PayrollSummaryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid summary query"))
		return
	}
	summary, err := h.service.Summary(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
