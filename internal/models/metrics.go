package models

import "time"

// ServiceMetrics is a point-in-time snapshot of process counters.
type ServiceMetrics struct {
	RequestsTotal        uint64    `json:"requestsTotal"`
	CacheHitRatio        float64   `json:"cacheHitRatio"`
	PayrollRunsCompleted uint64    `json:"payrollRunsCompleted"`
	PayrollRunsFailed    uint64    `json:"payrollRunsFailed"`
	PayrollEntries       uint64    `json:"payrollEntries"`
	IngestsCompleted     uint64    `json:"ingestsCompleted"`
	IngestsFailed        uint64    `json:"ingestsFailed"`
	AttendanceRecords    uint64    `json:"attendanceRecords"`
	Goroutines           int       `json:"goroutines"`
	GeneratedAt          time.Time `json:"generatedAt"`
}
