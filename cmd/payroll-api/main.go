package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/campus-payroll-api/api/swagger"
	"github.com/noah-isme/campus-payroll-api/internal/handler"
	internalmiddleware "github.com/noah-isme/campus-payroll-api/internal/middleware"
	"github.com/noah-isme/campus-payroll-api/internal/repository"
	"github.com/noah-isme/campus-payroll-api/internal/service"
	"github.com/noah-isme/campus-payroll-api/pkg/cache"
	"github.com/noah-isme/campus-payroll-api/pkg/config"
	"github.com/noah-isme/campus-payroll-api/pkg/database"
	"github.com/noah-isme/campus-payroll-api/pkg/jobs"
	"github.com/noah-isme/campus-payroll-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/campus-payroll-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-payroll-api/pkg/middleware/requestid"
	"github.com/noah-isme/campus-payroll-api/pkg/storage"
)

// @title Campus Payroll API
// @version 1.0.0
// @description Monthly payroll calculation, attendance ingestion and leave ledger
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		// Redis only backs the run lock and summary cache; both degrade safely.
		logr.Sugar().Warnw("redis unavailable, continuing without cache and run locks", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	files, err := storage.NewLocalStorage(cfg.Attendance.UploadDir)
	if err != nil {
		return err
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	employeeRepo := repository.NewEmployeeRepository(db)
	holidayRepo := repository.NewHolidayRepository(db)
	structureRepo := repository.NewSalaryStructureRepository(db)
	leaveRepo := repository.NewLeaveBalanceRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	uploadRepo := repository.NewAttendanceUploadRepository(db)
	cycleRepo := repository.NewPayrollCycleRepository(db)
	entryRepo := repository.NewPayrollEntryRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, "campus-payroll:", logr)
	lockRepo := repository.NewLockRepository(redisClient)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Payroll.SummaryCacheTTL, logr, redisClient != nil)
	calendarSvc := service.NewCalendarService(holidayRepo, cfg.Payroll.WeekendDays, logr)

	attendanceSvc := service.NewAttendanceService(uploadRepo, attendanceRepo, employeeRepo, files, db, metricsSvc, validate, logr,
		service.AttendanceServiceConfig{AsyncIngest: cfg.Attendance.AsyncIngest})

	var ingestQueue *jobs.Queue
	if cfg.Attendance.AsyncIngest {
		ingestQueue = jobs.NewQueue("attendance-ingest", attendanceSvc.HandleIngestJob, jobs.QueueConfig{
			Workers:    cfg.Attendance.IngestWorkers,
			MaxRetries: cfg.Attendance.IngestRetries,
			RetryDelay: 5 * time.Second,
			JobTimeout: 5 * time.Minute,
			Logger:     logr,
		})
		ingestQueue.Start(ctx)
		defer ingestQueue.Stop()
		attendanceSvc.UseQueue(ingestQueue)
	}

	payrollSvc := service.NewPayrollService(service.PayrollServiceDeps{
		Cycles:     cycleRepo,
		Entries:    entryRepo,
		Leaves:     leaveRepo,
		Structures: structureRepo,
		Employees:  employeeRepo,
		Attendance: attendanceRepo,
		Calendar:   calendarSvc,
		Locks:      lockRepo,
		Cache:      cacheSvc,
		Tx:         db,
		Metrics:    metricsSvc,
		Validator:  validate,
		Logger:     logr,
	}, service.PayrollServiceConfig{
		DefaultPaidLeaves:        cfg.Payroll.DefaultPaidLeaves,
		ReverseLedgerOnRecompute: cfg.Payroll.ReverseLedgerOnRecompute,
		LockTTL:                  cfg.Payroll.LockTTL,
		SummaryCacheTTL:          cfg.Payroll.SummaryCacheTTL,
	})
	structureSvc := service.NewSalaryStructureService(structureRepo, employeeRepo, db, validate, logr)
	leaveSvc := service.NewLeaveService(leaveRepo, employeeRepo, cfg.Payroll.DefaultPaidLeaves)

	router := newRouter(cfg, logr, routerDeps{
		payroll:    handler.NewPayrollHandler(payrollSvc),
		attendance: handler.NewAttendanceHandler(attendanceSvc, cfg.Attendance.MaxUploadSize),
		employees:  handler.NewEmployeeHandler(structureSvc, leaveSvc),
		metrics:    handler.NewMetricsHandler(metricsSvc, readinessChecks(db, redisClient)),
		metricsSvc: metricsSvc,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "async_ingest", cfg.Attendance.AsyncIngest)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Sugar().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type routerDeps struct {
	payroll    *handler.PayrollHandler
	attendance *handler.AttendanceHandler
	employees  *handler.EmployeeHandler
	metrics    *handler.MetricsHandler
	metricsSvc *service.MetricsService
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(deps.metricsSvc, "/metrics", "/health", "/ready"))

	r.GET("/health", deps.metrics.Health)
	r.GET("/ready", deps.metrics.Ready)
	r.GET("/metrics", deps.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/metrics/summary", deps.metrics.Snapshot)

	payroll := api.Group("/payroll")
	payroll.POST("/calculate", deps.payroll.Calculate)
	payroll.GET("/cycles", deps.payroll.ListCycles)
	payroll.GET("/cycles/:id", deps.payroll.GetCycle)
	payroll.POST("/cycles/:id/lock", deps.payroll.Lock)
	payroll.GET("/entries", deps.payroll.ListEntries)
	payroll.GET("/entries/:id", deps.payroll.GetEntry)
	payroll.GET("/summary", deps.payroll.Summary)

	attendance := api.Group("/attendance")
	attendance.POST("/uploads", deps.attendance.Upload)
	attendance.GET("/uploads", deps.attendance.ListUploads)
	attendance.GET("/uploads/:id", deps.attendance.GetUpload)
	attendance.POST("/uploads/:id/process", deps.attendance.Process)
	attendance.GET("/records", deps.attendance.ListRecords)
	attendance.GET("/summary", deps.attendance.Summary)

	employees := api.Group("/employees")
	employees.GET("/:id/salary-structure", deps.employees.GetSalaryStructure)
	employees.PUT("/:id/salary-structure", deps.employees.AssignSalaryStructure)
	employees.GET("/:id/leave-balance", deps.employees.GetLeaveBalance)

	return r
}

func readinessChecks(db *sqlx.DB, redisClient *redis.Client) map[string]handler.ReadinessCheck {
	checks := map[string]handler.ReadinessCheck{
		"postgres": func(ctx context.Context) error { return database.Ping(ctx, db) },
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return cache.Ping(ctx, redisClient) }
	}
	return checks
}
