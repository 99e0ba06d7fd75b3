package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AttendanceStatus is the canonical daily status for an employee.
type AttendanceStatus string

const (
	AttendancePresent     AttendanceStatus = "PRESENT"
	AttendanceAbsent      AttendanceStatus = "ABSENT"
	AttendanceHalfDay     AttendanceStatus = "HALF_DAY"
	AttendanceWeekendWork AttendanceStatus = "WEEKEND_WORK"
	AttendanceHoliday     AttendanceStatus = "HOLIDAY"
	AttendanceLeave       AttendanceStatus = "LEAVE"
)

var (
	dayFull = decimal.NewFromInt(1)
	dayHalf = decimal.NewFromFloat(0.5)
)

// PresenceCredit returns the fraction of a day counted as present.
func (s AttendanceStatus) PresenceCredit() decimal.Decimal {
	switch s {
	case AttendancePresent, AttendanceWeekendWork:
		return dayFull
	case AttendanceHalfDay:
		return dayHalf
	case AttendanceAbsent, AttendanceHoliday, AttendanceLeave:
		return decimal.Zero
	default:
		return decimal.Zero
	}
}

// AttendanceRecord is one employee-day fact. Unique per (employee_id, date).
type AttendanceRecord struct {
	ID                 string           `db:"id" json:"id"`
	EmployeeID         string           `db:"employee_id" json:"employeeId"`
	Date               time.Time        `db:"date" json:"date"`
	Status             AttendanceStatus `db:"status" json:"status"`
	AttendanceUploadID *string          `db:"attendance_upload_id" json:"attendanceUploadId,omitempty"`
	CreatedAt          time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time        `db:"updated_at" json:"updatedAt"`
}

// AttendanceFilter narrows record listings.
type AttendanceFilter struct {
	CampusID   string
	EmployeeID string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// UploadStatus tracks the ingestion batch lifecycle.
type UploadStatus string

const (
	UploadStatusPending    UploadStatus = "PENDING"
	UploadStatusProcessing UploadStatus = "PROCESSING"
	UploadStatusCompleted  UploadStatus = "COMPLETED"
	UploadStatusFailed     UploadStatus = "FAILED"
)

// Terminal reports whether the batch can no longer change.
func (s UploadStatus) Terminal() bool {
	return s == UploadStatusCompleted || s == UploadStatusFailed
}

// AttendanceUpload is a single ingestion batch.
type AttendanceUpload struct {
	ID           string       `db:"id" json:"id"`
	CampusID     string       `db:"campus_id" json:"campusId"`
	Year         int          `db:"year" json:"year"`
	Month        int          `db:"month" json:"month"`
	FileName     string       `db:"file_name" json:"fileName"`
	FilePath     string       `db:"file_path" json:"-"`
	Status       UploadStatus `db:"status" json:"status"`
	ErrorMessage *string      `db:"error_message" json:"errorMessage,omitempty"`
	RecordsCount int          `db:"records_count" json:"recordsCount"`
	UploadedAt   time.Time    `db:"uploaded_at" json:"uploadedAt"`
	ProcessedAt  *time.Time   `db:"processed_at" json:"processedAt,omitempty"`
}

// AttendanceUploadFilter narrows upload listings.
type AttendanceUploadFilter struct {
	CampusID string
	Status   UploadStatus
	Year     int
	Month    int
	Limit    int
	Offset   int
}

// AttendanceTally aggregates one employee's month of attendance.
type AttendanceTally struct {
	EmployeeID  string `db:"employee_id" json:"employeeId"`
	Present     int    `db:"present" json:"present"`
	Absent      int    `db:"absent" json:"absent"`
	HalfDays    int    `db:"half_days" json:"halfDays"`
	WeekendWork int    `db:"weekend_work" json:"weekendWork"`
	Holidays    int    `db:"holidays" json:"holidays"`
	Leaves      int    `db:"leaves" json:"leaves"`
}

// DaysPresent converts the tally to fractional presence.
func (t AttendanceTally) DaysPresent() decimal.Decimal {
	full := decimal.NewFromInt(int64(t.Present + t.WeekendWork))
	return full.Add(dayHalf.Mul(decimal.NewFromInt(int64(t.HalfDays))))
}
