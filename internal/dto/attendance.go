package dto

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/campus-payroll-api/internal/models"
)

// CreateAttendanceUploadRequest carries the form fields of an upload.
type CreateAttendanceUploadRequest struct {
	CampusID string `form:"campusId" json:"campusId" validate:"required"`
	Year     int    `form:"year" json:"year" validate:"required,min=1900,max=9999"`
	Month    int    `form:"month" json:"month" validate:"required,min=1,max=12"`
}

// IngestResult reports the outcome of one ingestion attempt.
type IngestResult struct {
	UploadID       string              `json:"uploadId"`
	Status         models.UploadStatus `json:"status"`
	RecordsCreated int                 `json:"recordsCreated"`
	RecordsUpdated int                 `json:"recordsUpdated"`
	Errors         []string            `json:"errors,omitempty"`
}

// AttendanceUploadResponse returns the batch plus any inline ingestion result.
type AttendanceUploadResponse struct {
	Upload *models.AttendanceUpload `json:"upload"`
	Result *IngestResult            `json:"result,omitempty"`
	Queued bool                     `json:"queued"`
}

// AttendanceSummaryQuery scopes a monthly summary.
type AttendanceSummaryQuery struct {
	CampusID string `validate:"required"`
	Year     int    `validate:"required,min=1900,max=9999"`
	Month    int    `validate:"required,min=1,max=12"`
}

// AttendanceSummaryItem is one employee row of the monthly summary.
type AttendanceSummaryItem struct {
	EmployeeID   string          `json:"employeeId"`
	EmployeeCode string          `json:"employeeCode"`
	EmployeeName string          `json:"employeeName"`
	TotalDays    int             `json:"totalDays"`
	Present      int             `json:"present"`
	Absent       int             `json:"absent"`
	HalfDays     int             `json:"halfDays"`
	WeekendWork  int             `json:"weekendWork"`
	Holidays     int             `json:"holidays"`
	Leaves       int             `json:"leaves"`
	DaysPresent  decimal.Decimal `json:"daysPresent"`
}
