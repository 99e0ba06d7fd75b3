package config

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	CORS       CORSConfig
	Log        LogConfig
	Payroll    PayrollConfig
	Attendance AttendanceConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// PayrollConfig tunes the monthly calculation engine.
type PayrollConfig struct {
	DefaultPaidLeaves        int
	WeekendDays              []time.Weekday
	ReverseLedgerOnRecompute bool
	LockTTL                  time.Duration
	SummaryCacheTTL          time.Duration
}

// AttendanceConfig governs workbook uploads and ingestion workers.
type AttendanceConfig struct {
	UploadDir     string
	MaxUploadSize int64
	AsyncIngest   bool
	IngestWorkers int
	IngestRetries int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	weekend, err := ParseWeekdays(v.GetString("PAYROLL_WEEKEND_DAYS"))
	if err != nil {
		return nil, err
	}
	paidLeaves := v.GetInt("PAYROLL_DEFAULT_PAID_LEAVES")
	if paidLeaves < 0 {
		paidLeaves = 12
	}
	cfg.Payroll = PayrollConfig{
		DefaultPaidLeaves:        paidLeaves,
		WeekendDays:              weekend,
		ReverseLedgerOnRecompute: v.GetBool("PAYROLL_REVERSE_LEDGER_ON_RECOMPUTE"),
		LockTTL:                  parseDuration(v.GetString("PAYROLL_LOCK_TTL"), 5*time.Minute),
		SummaryCacheTTL:          parseDuration(v.GetString("PAYROLL_SUMMARY_CACHE_TTL"), 5*time.Minute),
	}

	maxUpload := v.GetInt64("ATTENDANCE_MAX_UPLOAD_SIZE")
	if maxUpload <= 0 {
		maxUpload = 10 * 1024 * 1024
	}
	cfg.Attendance = AttendanceConfig{
		UploadDir:     v.GetString("ATTENDANCE_UPLOAD_DIR"),
		MaxUploadSize: maxUpload,
		AsyncIngest:   v.GetBool("ATTENDANCE_ASYNC_INGEST"),
		IngestWorkers: v.GetInt("ATTENDANCE_INGEST_WORKERS"),
		IngestRetries: v.GetInt("ATTENDANCE_INGEST_RETRIES"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "campus_payroll")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("PAYROLL_DEFAULT_PAID_LEAVES", 12)
	v.SetDefault("PAYROLL_WEEKEND_DAYS", "saturday,sunday")
	v.SetDefault("PAYROLL_REVERSE_LEDGER_ON_RECOMPUTE", false)
	v.SetDefault("PAYROLL_LOCK_TTL", "5m")
	v.SetDefault("PAYROLL_SUMMARY_CACHE_TTL", "5m")

	v.SetDefault("ATTENDANCE_UPLOAD_DIR", "./storage/uploads")
	v.SetDefault("ATTENDANCE_MAX_UPLOAD_SIZE", 10*1024*1024)
	v.SetDefault("ATTENDANCE_ASYNC_INGEST", false)
	v.SetDefault("ATTENDANCE_INGEST_WORKERS", 2)
	v.SetDefault("ATTENDANCE_INGEST_RETRIES", 1)
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"sun":       time.Sunday,
	"monday":    time.Monday,
	"mon":       time.Monday,
	"tuesday":   time.Tuesday,
	"tue":       time.Tuesday,
	"wednesday": time.Wednesday,
	"wed":       time.Wednesday,
	"thursday":  time.Thursday,
	"thu":       time.Thursday,
	"friday":    time.Friday,
	"fri":       time.Friday,
	"saturday":  time.Saturday,
	"sat":       time.Saturday,
}

// ParseWeekdays accepts a comma separated list of weekday names or numbers (0 = Sunday).
func ParseWeekdays(raw string) ([]time.Weekday, error) {
	parts := splitAndTrim(raw)
	seen := make(map[time.Weekday]struct{}, len(parts))
	result := make([]time.Weekday, 0, len(parts))
	for _, part := range parts {
		key := strings.ToLower(part)
		day, ok := weekdayNames[key]
		if !ok {
			n, err := strconv.Atoi(key)
			if err != nil || n < 0 || n > 6 {
				return nil, errors.New("invalid weekday: " + part)
			}
			day = time.Weekday(n)
		}
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		result = append(result, day)
	}
	return result, nil
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
