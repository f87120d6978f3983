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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-dashboard-gateway/api/swagger"
	"github.com/noah-isme/sma-dashboard-gateway/internal/handler"
	"github.com/noah-isme/sma-dashboard-gateway/internal/middleware"
	"github.com/noah-isme/sma-dashboard-gateway/internal/repository"
	"github.com/noah-isme/sma-dashboard-gateway/internal/service"
	"github.com/noah-isme/sma-dashboard-gateway/pkg/cache"
	"github.com/noah-isme/sma-dashboard-gateway/pkg/config"
	"github.com/noah-isme/sma-dashboard-gateway/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-dashboard-gateway/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-dashboard-gateway/pkg/middleware/requestid"
)

// @title School Dashboard Gateway
// @version 1.0.0
// @description Role-scoped aggregation and document export in front of the school REST backend
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, logo cache limited to process memory", "error", err)
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	metrics := service.NewMetricsService()
	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.School.LogoCacheTTL, logr)

	client := repository.NewBackendClient(cfg.Backend, metrics, logr)
	classRepo := repository.NewClassRepository(client)
	studentRepo := repository.NewStudentRepository(client)
	teacherRepo := repository.NewTeacherRepository(client)
	courseRepo := repository.NewCourseRepository(client)
	periodRepo := repository.NewPeriodRepository(client)
	attendanceRepo := repository.NewAttendanceRepository(client)
	examRepo := repository.NewExamResultRepository(client)

	validate := validator.New()
	assets := service.NewAssetLoader(cfg.School, cacheSvc, logr)
	exporter := service.NewExportService(assets, service.ExportConfig{
		BatchSize:   cfg.Export.BatchSize,
		CompressPDF: cfg.Export.CompressPDF,
	}, metrics, logr)

	rosterSessions := service.NewSessionStore[*service.RosterSession]("roster", cfg.Sessions.TTL, metrics, logr)
	attendanceSessions := service.NewSessionStore[*service.AttendanceSession]("attendance", cfg.Sessions.TTL, metrics, logr)
	go rosterSessions.Run(ctx, cfg.Sessions.SweepInterval)
	go attendanceSessions.Run(ctx, cfg.Sessions.SweepInterval)

	handlers := handler.Handlers{
		Lookups:     handler.NewLookupHandler(service.NewLookupService(classRepo, studentRepo, teacherRepo, courseRepo)),
		ExamResults: handler.NewExamResultHandler(service.NewExamResultService(examRepo, exporter, validate, logr)),
		Roster:      handler.NewRosterHandler(service.NewRosterService(classRepo, exporter, rosterSessions, logr)),
		Attendance:  handler.NewAttendanceHandler(service.NewAttendanceService(periodRepo, classRepo, attendanceRepo, attendanceSessions, logr)),
		Periods:     handler.NewPeriodHandler(service.NewPeriodService(periodRepo, validate, logr)),
	}

	checks := map[string]handler.ReadinessCheck{}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	metricsHandler := handler.NewMetricsHandler(metrics, checks)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Register(r.Group(cfg.APIPrefix), handlers, middleware.Claims(service.NewTokenService()))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "backend", cfg.Backend.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
