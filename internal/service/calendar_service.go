package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-payroll-api/internal/models"
	appErrors "github.com/noah-isme/campus-payroll-api/pkg/errors"
)

type holidayRepository interface {
	ListBetween(ctx context.Context, campusID string, from, to time.Time) ([]models.Holiday, error)
}

// MonthBounds returns the first and last calendar day of a month in UTC.
func MonthBounds(year, month int) (time.Time, time.Time, error) {
	if year < 1 || year > 9999 || month < 1 || month > 12 {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrInvalidArgument, fmt.Sprintf("invalid period %04d-%02d", year, month))
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return start, end, nil
}

// DaysInMonth returns the number of calendar days in a month.
func DaysInMonth(year, month int) (int, error) {
	_, end, err := MonthBounds(year, month)
	if err != nil {
		return 0, err
	}
	return end.Day(), nil
}

// WorkingDays counts the days of a month that are neither a weekend weekday nor a holiday.
// Holidays are matched by calendar date in their own location; values outside the month are ignored.
func WorkingDays(year, month int, holidays []time.Time, weekend []time.Weekday) (int, error) {
	start, end, err := MonthBounds(year, month)
	if err != nil {
		return 0, err
	}
	weekendSet := make(map[time.Weekday]struct{}, len(weekend))
	for _, day := range weekend {
		weekendSet[day] = struct{}{}
	}
	holidaySet := make(map[string]struct{}, len(holidays))
	for _, day := range holidays {
		holidaySet[day.Format(time.DateOnly)] = struct{}{}
	}

	count := 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if _, off := weekendSet[day.Weekday()]; off {
			continue
		}
		if _, off := holidaySet[day.Format(time.DateOnly)]; off {
			continue
		}
		count++
	}
	return count, nil
}

// CalendarService resolves working-day calendars for campuses.
type CalendarService struct {
	holidays holidayRepository
	weekend  []time.Weekday
	logger   *zap.Logger
}

// NewCalendarService constructs the service. An empty weekend means every weekday is worked.
func NewCalendarService(holidays holidayRepository, weekend []time.Weekday, logger *zap.Logger) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{holidays: holidays, weekend: weekend, logger: logger}
}

// Weekend returns the configured weekend weekdays.
func (s *CalendarService) Weekend() []time.Weekday {
	return s.weekend
}

// MonthWorkingDays loads campus holidays for a month and counts its working days.
func (s *CalendarService) MonthWorkingDays(ctx context.Context, campusID string, year, month int) (int, []models.Holiday, error) {
	start, end, err := MonthBounds(year, month)
	if err != nil {
		return 0, nil, err
	}
	holidays, err := s.holidays.ListBetween(ctx, campusID, start, end)
	if err != nil {
		return 0, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load holidays")
	}
	dates := make([]time.Time, 0, len(holidays))
	for _, holiday := range holidays {
		dates = append(dates, holiday.Date)
	}
	days, err := WorkingDays(year, month, dates, s.weekend)
	if err != nil {
		return 0, nil, err
	}
	s.logger.Debug("resolved working days",
		zap.String("campus_id", campusID),
		zap.Int("year", year),
		zap.Int("month", month),
		zap.Int("holidays", len(holidays)),
		zap.Int("working_days", days))
	return days, holidays, nil
}
