package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/campus-payroll-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	payrollRuns     *prometheus.CounterVec
	payrollDuration prometheus.Observer
	payrollEntries  prometheus.Counter
	cycleLocks      *prometheus.CounterVec
	ingestRuns      *prometheus.CounterVec
	ingestDuration  prometheus.Observer
	ingestRecords   prometheus.Counter

	cacheHitCount  uint64
	cacheMissCount uint64
	requestCount   uint64
	payrollOK      uint64
	payrollFailed  uint64
	entriesTotal   uint64
	ingestOK       uint64
	ingestFailed   uint64
	recordsTotal   uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	payrollRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payroll_runs_total",
		Help: "Payroll calculations by outcome",
	}, []string{"outcome"})

	payrollDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "payroll_run_duration_seconds",
		Help:    "Duration of payroll calculations",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	payrollEntries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payroll_entries_written_total",
		Help: "Payroll entries materialised by completed runs",
	})

	cycleLocks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payroll_cycle_locks_total",
		Help: "Cycle lock attempts by outcome",
	}, []string{"outcome"})

	ingestRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_ingest_total",
		Help: "Attendance ingestion attempts by resulting batch status",
	}, []string{"status"})

	ingestDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "attendance_ingest_duration_seconds",
		Help:    "Duration of attendance ingestion",
		Buckets: prometheus.DefBuckets,
	})

	ingestRecords := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "attendance_records_upserted_total",
		Help: "Attendance records created or updated by ingestion",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheHits, cacheMisses,
		payrollRuns, payrollDuration, payrollEntries, cycleLocks, ingestRuns, ingestDuration, ingestRecords, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		payrollRuns:     payrollRuns,
		payrollDuration: payrollDuration,
		payrollEntries:  payrollEntries,
		cycleLocks:      cycleLocks,
		ingestRuns:      ingestRuns,
		ingestDuration:  ingestDuration,
		ingestRecords:   ingestRecords,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
}

// RecordCacheOperation records cache hit/miss metrics.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
		return
	}
	m.cacheMisses.Inc()
	atomic.AddUint64(&m.cacheMissCount, 1)
}

// ObservePayrollRun records the outcome of one calculation.
func (m *MetricsService) ObservePayrollRun(outcome string, entries int, duration time.Duration) {
	if m == nil {
		return
	}
	m.payrollRuns.WithLabelValues(outcome).Inc()
	m.payrollDuration.Observe(duration.Seconds())
	if outcome == PayrollOutcomeCompleted {
		m.payrollEntries.Add(float64(entries))
		atomic.AddUint64(&m.payrollOK, 1)
		atomic.AddUint64(&m.entriesTotal, uint64(entries))
		return
	}
	atomic.AddUint64(&m.payrollFailed, 1)
}

// ObserveCycleLock records a lock attempt.
func (m *MetricsService) ObserveCycleLock(outcome string) {
	if m == nil {
		return
	}
	m.cycleLocks.WithLabelValues(outcome).Inc()
}

// ObserveIngest records an ingestion attempt by resulting batch status.
func (m *MetricsService) ObserveIngest(status string, records int, duration time.Duration) {
	if m == nil {
		return
	}
	m.ingestRuns.WithLabelValues(status).Inc()
	m.ingestDuration.Observe(duration.Seconds())
	if status == string(models.UploadStatusCompleted) {
		m.ingestRecords.Add(float64(records))
		atomic.AddUint64(&m.ingestOK, 1)
		atomic.AddUint64(&m.recordsTotal, uint64(records))
		return
	}
	atomic.AddUint64(&m.ingestFailed, 1)
}

// Snapshot returns aggregated counters suitable for a JSON status endpoint.
func (m *MetricsService) Snapshot() models.ServiceMetrics {
	if m == nil {
		return models.ServiceMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	var ratio float64
	if hits+misses > 0 {
		ratio = float64(hits) / float64(hits+misses)
	}
	return models.ServiceMetrics{
		RequestsTotal:        atomic.LoadUint64(&m.requestCount),
		CacheHitRatio:        ratio,
		PayrollRunsCompleted: atomic.LoadUint64(&m.payrollOK),
		PayrollRunsFailed:    atomic.LoadUint64(&m.payrollFailed),
		PayrollEntries:       atomic.LoadUint64(&m.entriesTotal),
		IngestsCompleted:     atomic.LoadUint64(&m.ingestOK),
		IngestsFailed:        atomic.LoadUint64(&m.ingestFailed),
		AttendanceRecords:    atomic.LoadUint64(&m.recordsTotal),
		Goroutines:           runtime.NumGoroutine(),
		GeneratedAt:          time.Now().UTC(),
	}
}
