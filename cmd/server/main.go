package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	attendanceapp "github.com/merchpulse/backend/internal/application/attendance"
	auditapp "github.com/merchpulse/backend/internal/application/audit"
	"github.com/merchpulse/backend/internal/application/authz"
	identityapp "github.com/merchpulse/backend/internal/application/identity"
	"github.com/merchpulse/backend/internal/application/session"
	"github.com/merchpulse/backend/internal/infrastructure/auth"
	"github.com/merchpulse/backend/internal/infrastructure/cache"
	"github.com/merchpulse/backend/internal/infrastructure/clock"
	"github.com/merchpulse/backend/internal/infrastructure/config"
	"github.com/merchpulse/backend/internal/infrastructure/logger"
	"github.com/merchpulse/backend/internal/infrastructure/persistence"
	"github.com/merchpulse/backend/internal/infrastructure/scheduler"
	"github.com/merchpulse/backend/internal/infrastructure/storage"
	"github.com/merchpulse/backend/internal/infrastructure/telemetry"
	"github.com/merchpulse/backend/internal/interfaces/http/handler"
	"github.com/merchpulse/backend/internal/interfaces/http/middleware"
	"github.com/merchpulse/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Bootstrap logger for telemetry setup; replaced once the OTLP log bridge exists
	bootLog, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()
	version := cfg.App.Version

	logsProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize OTEL logs", zap.Error(err))
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}, logsProvider.ZapCore(logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting MerchPulse backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Telemetry.ProfilingEnabled,
		ServerAddress:     cfg.Telemetry.ProfilingServerAddress,
		ApplicationName:   cfg.Telemetry.ServiceName,
		BasicAuthUser:     cfg.Telemetry.ProfilingBasicAuthUser,
		BasicAuthPassword: cfg.Telemetry.ProfilingBasicAuthPass,
		ProfileTypes:      cfg.Telemetry.ProfilingTypes,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}

	attendanceMetrics, err := telemetry.NewAttendanceMetrics(meterProvider.Meter("merchpulse/attendance"))
	if err != nil {
		log.Fatal("Failed to register attendance metrics", zap.Error(err))
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBName:          cfg.Database.DBName,
	}, log); err != nil {
		log.Fatal("Failed to enable database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	clk := clock.Real()
	loc := cfg.Attendance.Location()

	// Repositories
	employeeRepo := persistence.NewGormEmployeeRepository(db.DB)
	punchRepo := persistence.NewGormPunchRepository(db.DB)
	auditRepo := persistence.NewGormAuditLogRepository(db.DB)

	// Redis-backed stores when configured, memory otherwise
	cacheFactory := cache.NewFactory(cfg.Redis, cache.WithLogger(log), cache.WithClock(clk))
	defer func() {
		if err := cacheFactory.Close(); err != nil {
			log.Warn("Error closing redis client", zap.Error(err))
		}
	}()

	idempotencyStore, err := cacheFactory.IdempotencyStore(ctx, cfg.Attendance.LockBackend)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	var (
		locker    attendanceapp.EmployeeLocker
		blacklist auth.TokenBlacklist
	)
	if cfg.Attendance.LockBackend == cache.BackendRedis {
		client, err := cacheFactory.Redis(ctx)
		if err != nil {
			log.Fatal("Redis lock backend configured but redis is unavailable", zap.Error(err))
		}
		locker = cache.NewRedisLocker(client, cfg.Attendance.LockTTL, cfg.Attendance.LockWait, log)
		blacklist = auth.NewRedisTokenBlacklist(client, clk)
		log.Info("Using Redis employee lock and token blacklist")
	} else {
		locker = attendanceapp.NewKeyedMutex()
		blacklist = auth.NewInMemoryTokenBlacklist(clk)
	}

	// Services
	sessions := session.ContextProvider{}
	policy := authz.NewPolicy(sessions, attendanceMetrics, log)
	auditService := auditapp.NewService(auditRepo, sessions, policy, clk, cfg.Audit.RecentDefaultLimit, log)

	jwtService, err := auth.NewJWTService(cfg.JWT, clk)
	if err != nil {
		log.Fatal("Failed to initialize JWT service", zap.Error(err))
	}
	authService := identityapp.NewAuthService(employeeRepo, jwtService, blacklist, clk, log)
	employeeService := identityapp.NewEmployeeService(
		employeeRepo, policy, auditService, blacklist,
		cfg.JWT.AccessTokenExpiration, clk, attendanceMetrics, log,
	)

	earnings, err := attendanceapp.NewEarningsPolicy(
		cfg.Attendance.HourlyRate,
		cfg.Attendance.Currency,
		cfg.Attendance.ExcludeBreaksFromEarnings,
		language.AmericanEnglish,
	)
	if err != nil {
		log.Fatal("Invalid earnings configuration", zap.Error(err))
	}

	engine := attendanceapp.NewEngine(attendanceapp.EngineDeps{
		Punches:     punchRepo,
		Employees:   employeeRepo,
		Session:     sessions,
		Policy:      policy,
		Audit:       auditService,
		Locker:      locker,
		Idempotency: idempotencyStore,
		Clock:       clk,
		Metrics:     attendanceMetrics,
		Logger:      log,
	}, attendanceapp.EngineConfig{
		Location:           loc,
		Earnings:           earnings,
		IdempotencyTTL:     cfg.Attendance.IdempotencyTTL,
		AuditRetryAttempts: cfg.Audit.RetryAttempts,
		AuditRetryDelay:    cfg.Audit.RetryDelay,
		AuditRetryMaxDelay: cfg.Audit.RetryMaxDelay,
	})

	if cfg.Bootstrap.Username != "" {
		admin, err := employeeService.Bootstrap(ctx, identityapp.BootstrapInput{
			Name:     cfg.Bootstrap.Name,
			Username: cfg.Bootstrap.Username,
			PIN:      cfg.Bootstrap.PIN,
		})
		if err != nil {
			log.Fatal("Failed to bootstrap administrator", zap.Error(err))
		}
		if admin != nil {
			log.Info("Created bootstrap administrator", zap.String("username", admin.Username))
		}
	}

	// Nightly audit archive
	var (
		jobScheduler *scheduler.Scheduler
		cronTrigger  *scheduler.CronTrigger
	)
	if cfg.Archive.Enabled && cfg.Scheduler.Enabled {
		objectStore, err := storage.NewS3ObjectStorage(cfg.Archive, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to create archive storage", zap.Error(err))
		}
		if err := objectStore.EnsureBucket(ctx); err != nil {
			log.Fatal("Archive bucket unavailable", zap.Error(err))
		}

		archiver := auditapp.NewArchiver(auditRepo, objectStore, cfg.Archive.Prefix, loc, clk, log)
		jobScheduler = scheduler.NewScheduler(cfg.Scheduler, scheduler.NewArchiveExecutor(archiver, log), log,
			scheduler.WithClock(clk))
		if err := jobScheduler.Start(ctx); err != nil {
			log.Fatal("Failed to start job scheduler", zap.Error(err))
		}

		cronTrigger = scheduler.NewCronTrigger(scheduler.CronTriggerConfig{
			RunHour:       cfg.Archive.RunHour,
			RunMinute:     cfg.Archive.RunMinute,
			CheckInterval: cfg.Scheduler.CheckInterval,
			Location:      loc,
			MaxRetries:    cfg.Scheduler.RetryAttempts,
		}, scheduler.JobTypeAuditArchive, jobScheduler, clk, log)
		if err := cronTrigger.Start(ctx); err != nil {
			log.Fatal("Failed to start archive trigger", zap.Error(err))
		}
		log.Info("Audit archive enabled",
			zap.String("bucket", objectStore.GetBucket()),
			zap.Int("run_hour", cfg.Archive.RunHour),
			zap.Int("run_minute", cfg.Archive.RunMinute),
		)
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	var loginLimiter *middleware.RateLimiter
	if cfg.HTTP.LoginRateLimit > 0 {
		loginLimiter = middleware.NewRateLimiter(cfg.HTTP.LoginRateLimit, cfg.HTTP.LoginRateWindow, clk)
		log.Info("Login rate limiting enabled",
			zap.Int("attempts", cfg.HTTP.LoginRateLimit),
			zap.Duration("window", cfg.HTTP.LoginRateWindow),
		)
	}

	engineCfg := router.EngineConfig{
		Logger:        log,
		Authenticator: authService,
		HTTP:          cfg.HTTP,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tracerProvider.IsEnabled(),
		},
		LoginLimiter: loginLimiter,
		Profiling:    profiler.IsEnabled(),
	}
	if meterProvider.IsEnabled() {
		engineCfg.Meter = meterProvider.Meter("merchpulse/http")
	}

	ginEngine := router.NewEngine(engineCfg, router.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Attendance: handler.NewAttendanceHandler(engine),
		Audit:      handler.NewAuditHandler(auditService),
		Employees:  handler.NewEmployeeHandler(employeeService),
		Health:     handler.NewHealthHandler(version, db, clk),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        ginEngine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if cronTrigger != nil {
		if err := cronTrigger.Stop(shutdownCtx); err != nil {
			log.Warn("Archive trigger did not stop cleanly", zap.Error(err))
		}
	}
	if jobScheduler != nil {
		if err := jobScheduler.Stop(shutdownCtx); err != nil {
			log.Warn("Job scheduler did not stop cleanly", zap.Error(err))
		}
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Meter provider shutdown failed", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Tracer provider shutdown failed", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Profiler stop failed", zap.Error(err))
	}
	if err := logsProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Logger provider shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
