package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-payroll-api/internal/dto"
	"github.com/noah-isme/campus-payroll-api/internal/models"
	appErrors "github.com/noah-isme/campus-payroll-api/pkg/errors"
	"github.com/noah-isme/campus-payroll-api/pkg/response"
)

type attendanceService interface {
	CreateUpload(ctx context.Context, req dto.CreateAttendanceUploadRequest, filename string, content io.Reader) (*dto.AttendanceUploadResponse, error)
	Ingest(ctx context.Context, uploadID string) (*dto.IngestResult, error)
	GetUpload(ctx context.Context, id string) (*models.AttendanceUpload, error)
	ListUploads(ctx context.Context, filter models.AttendanceUploadFilter) ([]models.AttendanceUpload, *models.Pagination, error)
	ListRecords(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, *models.Pagination, error)
	MonthlySummary(ctx context.Context, query dto.AttendanceSummaryQuery) ([]dto.AttendanceSummaryItem, error)
}

// AttendanceHandler exposes attendance upload and query endpoints.
type AttendanceHandler struct {
	service       attendanceService
	maxUploadSize int64
}

// NewAttendanceHandler builds a new handler. maxUploadSize caps the multipart body in bytes.
func NewAttendanceHandler(service attendanceService, maxUploadSize int64) *AttendanceHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = 10 << 20
	}
	return &AttendanceHandler{service: service, maxUploadSize: maxUploadSize}
}

// Upload godoc
// @Summary Upload a monthly attendance workbook
// @Description Accepts an .xlsx grid (dates down, employee codes across). Ingested inline unless async ingestion is enabled.
// @Tags Attendance
// @Accept mpfd
// @Produce json
// @Param campusId formData string true "Campus ID"
// @Param year formData int true "Year"
// @Param month formData int true "Month"
// @Param file formData file true "Attendance workbook"
// @Success 201 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /attendance/uploads [post]
func (h *AttendanceHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize)

	var req dto.CreateAttendanceUploadRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, uploadBindError(err, h.maxUploadSize))
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, uploadBindError(err, h.maxUploadSize))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unable to read uploaded file"))
		return
	}
	defer file.Close() //nolint:errcheck

	result, err := h.service.CreateUpload(c.Request.Context(), req, fileHeader.Filename, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.Queued {
		response.Accepted(c, result)
		return
	}
	response.Created(c, result)
}

func uploadBindError(err error, limit int64) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
		return appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("attendance workbook exceeds %d bytes", limit))
	}
	if errors.Is(err, http.ErrMissingFile) {
		return appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance upload payload")
}

// Process godoc
// @Summary Process a pending attendance upload
// @Tags Attendance
// @Produce json
// @Param id path string true "Upload ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /attendance/uploads/{id}/process [post]
func (h *AttendanceHandler) Process(c *gin.Context) {
	result, err := h.service.Ingest(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ListUploads godoc
// @Summary List attendance uploads
// @Tags Attendance
// @Produce json
// @Param campusId query string false "Campus ID"
// @Param status query string false "PENDING, PROCESSING, COMPLETED or FAILED"
// @Param year query int false "Year"
// @Param month query int false "Month"
// @Success 200 {object} response.Envelope
// @Router /attendance/uploads [get]
func (h *AttendanceHandler) ListUploads(c *gin.Context) {
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
	filter := models.AttendanceUploadFilter{
		CampusID: c.Query("campusId"),
		Status:   models.UploadStatus(strings.ToUpper(c.Query("status"))),
		Year:     year,
		Month:    month,
	}
	filter.Limit, filter.Offset = pageWindow(c)

	uploads, pagination, err := h.service.ListUploads(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, uploads, pagination)
}

// GetUpload godoc
// @Summary Get attendance upload
// @Tags Attendance
// @Produce json
// @Param id path string true "Upload ID"
// @Success 200 {object} response.Envelope
// @Router /attendance/uploads/{id} [get]
func (h *AttendanceHandler) GetUpload(c *gin.Context) {
	upload, err := h.service.GetUpload(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, upload, nil)
}

// ListRecords godoc
// @Summary List attendance records
// @Tags Attendance
// @Produce json
// @Param campusId query string false "Campus ID"
// @Param employeeId query string false "Employee ID"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /attendance/records [get]
func (h *AttendanceHandler) ListRecords(c *gin.Context) {
	from, err := parseDateParam(c.Query("from"))
	if err != nil {
		response.Error(c, err)
		return
	}
	to, err := parseDateParam(c.Query("to"))
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.AttendanceFilter{
		CampusID:   c.Query("campusId"),
		EmployeeID: c.Query("employeeId"),
		From:       from,
		To:         to,
	}
	if filter.CampusID == "" && filter.EmployeeID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "campusId or employeeId required"))
		return
	}
	filter.Limit, filter.Offset = pageWindow(c)

	records, pagination, err := h.service.ListRecords(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Summary godoc
// @Summary Monthly attendance tallies per employee
// @Tags Attendance
// @Produce json
// @Param campusId query string true "Campus ID"
// @Param year query int true "Year"
// @Param month query int true "Month"
// @Success 200 {object} response.Envelope
// @Router /attendance/summary [get]
func (h *AttendanceHandler) Summary(c *gin.Context) {
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
	items, err := h.service.MonthlySummary(c.Request.Context(), dto.AttendanceSummaryQuery{
		CampusID: c.Query("campusId"),
		Year:     year,
		Month:    month,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}
