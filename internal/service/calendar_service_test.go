package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-payroll-api/internal/models"
	appErrors "github.com/noah-isme/campus-payroll-api/pkg/errors"
)

var satSun = []time.Weekday{time.Saturday, time.Sunday}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestWorkingDays(t *testing.T) {
	cases := []struct {
		name     string
		year     int
		month    int
		holidays []time.Time
		weekend  []time.Weekday
		want     int
	}{
		{name: "leap february", year: 2024, month: 2, weekend: satSun, want: 21},
		{name: "weekday holiday", year: 2024, month: 2, holidays: []time.Time{day(2024, 2, 14)}, weekend: satSun, want: 20},
		{name: "holiday on weekend counts once", year: 2024, month: 2, holidays: []time.Time{day(2024, 2, 10)}, weekend: satSun, want: 21},
		{name: "holiday outside month ignored", year: 2024, month: 3, holidays: []time.Time{day(2024, 2, 14)}, weekend: satSun, want: 21},
		{name: "friday weekend", year: 2024, month: 3, weekend: []time.Weekday{time.Friday}, want: 26},
		{name: "no weekend", year: 2023, month: 4, want: 30},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := WorkingDays(tc.year, tc.month, tc.holidays, tc.weekend)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestWorkingDaysAllHolidays(t *testing.T) {
	var holidays []time.Time
	for d := 1; d <= 30; d++ {
		holidays = append(holidays, day(2024, 4, d))
	}
	got, err := WorkingDays(2024, 4, holidays, satSun)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestMonthBoundsRejectsInvalidPeriod(t *testing.T) {
	_, _, err := MonthBounds(2024, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidArgument))

	start, end, err := MonthBounds(2023, 2)
	require.NoError(t, err)
	assert.Equal(t, day(2023, 2, 1), start)
	assert.Equal(t, day(2023, 2, 28), end)
}

type holidayRepoStub struct {
	holidays []models.Holiday
	from, to time.Time
}

func (s *holidayRepoStub) ListBetween(ctx context.Context, campusID string, from, to time.Time) ([]models.Holiday, error) {
	s.from, s.to = from, to
	return s.holidays, nil
}

func TestCalendarServiceMonthWorkingDays(t *testing.T) {
	repo := &holidayRepoStub{holidays: []models.Holiday{
		{ID: "h1", CampusID: "campus-1", Date: day(2024, 3, 29), Name: "Good Friday"},
		{ID: "h2", CampusID: "campus-1", Date: day(2024, 3, 11), Name: "Optional", IsOptional: true},
	}}
	svc := NewCalendarService(repo, satSun, nil)

	days, holidays, err := svc.MonthWorkingDays(context.Background(), "campus-1", 2024, 3)
	require.NoError(t, err)
	assert.Equal(t, 19, days)
	assert.Len(t, holidays, 2)
	assert.Equal(t, day(2024, 3, 1), repo.from)
	assert.Equal(t, day(2024, 3, 31), repo.to)
}
