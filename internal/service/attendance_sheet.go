package service

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/campus-payroll-api/internal/models"
)

var statusTokens = map[string]models.AttendanceStatus{
	"P":  models.AttendancePresent,
	"A":  models.AttendanceAbsent,
	"H":  models.AttendanceHalfDay,
	"WW": models.AttendanceWeekendWork,
	"HD": models.AttendanceHoliday,
	"L":  models.AttendanceLeave,
}

var sheetDateLayouts = []string{"2006-01-02", "02-01-2006"}

// ParseStatusToken maps a sheet cell to an attendance status. Blank cells are ABSENT.
func ParseStatusToken(raw string) (models.AttendanceStatus, bool) {
	token := strings.ToUpper(strings.TrimSpace(raw))
	if token == "" {
		return models.AttendanceAbsent, true
	}
	status, ok := statusTokens[token]
	return status, ok
}

// ParseSheetDate accepts ISO and day-first text dates or a spreadsheet date serial.
func ParseSheetDate(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range sheetDateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	if serial, err := strconv.ParseFloat(value, 64); err == nil && serial > 0 {
		parsed, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, err
		}
		return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}

// ReadSheetRows returns the raw cell values of the first worksheet of a workbook.
func ReadSheetRows(r io.Reader) ([][]string, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer book.Close() //nolint:errcheck

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no worksheets")
	}
	rows, err := book.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read worksheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

type codeResolver func(ctx context.Context, codes []string) (map[string]string, error)

type attendanceFact struct {
	EmployeeID string
	Date       time.Time
	Status     models.AttendanceStatus
}

type parsedSheet struct {
	Facts  []attendanceFact
	Errors []string
}

// parseAttendanceRows turns raw sheet rows into facts. Validation problems are collected in
// Errors; only resolver failures are returned as err.
func parseAttendanceRows(ctx context.Context, rows [][]string, period time.Time, resolve codeResolver) (*parsedSheet, error) {
	result := &parsedSheet{}
	if len(rows) == 0 {
		result.Errors = append(result.Errors, "sheet is empty")
		return result, nil
	}

	header := rows[0]
	columns := make(map[int]string, len(header))
	codes := make([]string, 0, len(header))
	seen := make(map[string]int, len(header))
	for col := 1; col < len(header); col++ {
		code := strings.TrimSpace(header[col])
		if code == "" {
			continue
		}
		if first, dup := seen[code]; dup {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: duplicate employee code %q (first in %s)", cellName(col, 0), code, cellName(first, 0)))
			continue
		}
		seen[code] = col
		columns[col] = code
		codes = append(codes, code)
	}
	if len(codes) == 0 {
		result.Errors = append(result.Errors, "header row has no employee codes")
		return result, nil
	}

	resolved, err := resolve(ctx, codes)
	if err != nil {
		return nil, err
	}
	employees := make(map[int]string, len(columns))
	for col := 1; col < len(header); col++ {
		code, ok := columns[col]
		if !ok {
			continue
		}
		id, ok := resolved[code]
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: unknown employee code %q", cellName(col, 0), code))
			continue
		}
		employees[col] = id
	}

	seenDates := make(map[string]int, len(rows))
	for idx := 1; idx < len(rows); idx++ {
		row := rows[idx]
		if blankRow(row) {
			continue
		}
		date, err := ParseSheetDate(cellValue(row, 0))
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", cellName(0, idx), err))
			continue
		}
		if date.Year() != period.Year() || date.Month() != period.Month() {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: date %s outside period %s", cellName(0, idx), date.Format(time.DateOnly), period.Format("2006-01")))
			continue
		}
		key := date.Format(time.DateOnly)
		if first, dup := seenDates[key]; dup {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: duplicate date %s (first in row %d)", cellName(0, idx), key, first+1))
			continue
		}
		seenDates[key] = idx

		for col := 1; col < len(header); col++ {
			employeeID, ok := employees[col]
			if !ok {
				continue
			}
			raw := cellValue(row, col)
			status, ok := ParseStatusToken(raw)
			if !ok {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: unknown status code %q", cellName(col, idx), strings.TrimSpace(raw)))
				continue
			}
			result.Facts = append(result.Facts, attendanceFact{EmployeeID: employeeID, Date: date, Status: status})
		}
	}
	return result, nil
}

func cellValue(row []string, col int) string {
	if col < len(row) {
		return row[col]
	}
	return ""
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func cellName(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return fmt.Sprintf("R%dC%d", row+1, col+1)
	}
	return name
}
