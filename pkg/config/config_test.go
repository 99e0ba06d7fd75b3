package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 12, cfg.Payroll.DefaultPaidLeaves)
	assert.Equal(t, []time.Weekday{time.Saturday, time.Sunday}, cfg.Payroll.WeekendDays)
	assert.False(t, cfg.Payroll.ReverseLedgerOnRecompute)
	assert.Equal(t, 5*time.Minute, cfg.Payroll.LockTTL)
	assert.Equal(t, int64(10*1024*1024), cfg.Attendance.MaxUploadSize)
	assert.Equal(t, "./storage/uploads", cfg.Attendance.UploadDir)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PAYROLL_WEEKEND_DAYS", "fri, sat")
	t.Setenv("PAYROLL_DEFAULT_PAID_LEAVES", "18")
	t.Setenv("PAYROLL_REVERSE_LEDGER_ON_RECOMPUTE", "true")
	t.Setenv("PAYROLL_LOCK_TTL", "not-a-duration")
	t.Setenv("ATTENDANCE_ASYNC_INGEST", "true")
	t.Setenv("ALLOWED_ORIGINS", "https://hr.example.org, ,https://ops.example.org")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []time.Weekday{time.Friday, time.Saturday}, cfg.Payroll.WeekendDays)
	assert.Equal(t, 18, cfg.Payroll.DefaultPaidLeaves)
	assert.True(t, cfg.Payroll.ReverseLedgerOnRecompute)
	assert.Equal(t, 5*time.Minute, cfg.Payroll.LockTTL)
	assert.True(t, cfg.Attendance.AsyncIngest)
	assert.Equal(t, []string{"https://hr.example.org", "https://ops.example.org"}, cfg.CORS.AllowedOrigins)
}

func TestLoadRejectsBadWeekend(t *testing.T) {
	t.Setenv("PAYROLL_WEEKEND_DAYS", "caturday")
	_, err := Load()
	assert.Error(t, err)
}

func TestParseWeekdays(t *testing.T) {
	days, err := ParseWeekdays("0,6,sunday")
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Sunday, time.Saturday}, days)

	days, err = ParseWeekdays("")
	require.NoError(t, err)
	assert.Empty(t, days)

	_, err = ParseWeekdays("7")
	assert.Error(t, err)
}
