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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/Sistersocrates/secure-eduflexscheduler-sub001/api/swagger"
	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/internal/handler"
	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/internal/middleware"
	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/internal/repository"
	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/internal/service"
	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/pkg/cache"
	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/pkg/config"
	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/pkg/database"
	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/pkg/export"
	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/pkg/logger"
	corsmiddleware "github.com/Sistersocrates/secure-eduflexscheduler-sub001/pkg/middleware/cors"
	reqidmiddleware "github.com/Sistersocrates/secure-eduflexscheduler-sub001/pkg/middleware/requestid"
)

// @title EduFlex Scheduler API
// @version 1.0.0
// @description Seminar scheduling, enrollment, attendance and credit tracking service
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	// Repositories.
	offeringRepo := repository.NewOfferingRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	creditRepo := repository.NewCreditRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Schedule.CacheTTL, logr, cfg.Schedule.CacheEnabled)
	auditSvc := service.NewAuditService(auditRepo, service.AuditQueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: cfg.Audit.MaxRetries,
		RetryDelay: cfg.Audit.RetryDelay,
	}, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, logr)
	scheduleSvc := service.NewScheduleService(enrollmentRepo, appointmentRepo, cacheSvc, cfg.Schedule.CacheTTL, logr)
	offeringSvc := service.NewOfferingService(offeringRepo, auditSvc, nil, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, offeringRepo, userRepo,
		auditSvc, notificationSvc, scheduleSvc, metricsSvc, nil, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, enrollmentRepo, offeringRepo, auditSvc, nil, logr)
	creditSvc := service.NewCreditService(creditRepo, logr)
	appointmentSvc := service.NewAppointmentService(appointmentRepo, userRepo, auditSvc, scheduleSvc, nil, logr)
	reportSvc := service.NewReportService(offeringRepo, enrollmentRepo, attendanceRepo, export.NewPDFExporter(), logr)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	auditSvc.Start(rootCtx)
	defer auditSvc.Stop()

	// Handlers.
	offeringHandler := handler.NewOfferingHandler(offeringSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	creditHandler := handler.NewCreditHandler(creditSvc)
	appointmentHandler := handler.NewAppointmentHandler(appointmentSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.Actor())
	api.Use(middleware.RateLimit(cfg.RateLimit, metricsSvc))

	offerings := api.Group("/offerings")
	{
		offerings.GET("", offeringHandler.List)
		offerings.POST("", offeringHandler.Create)
		offerings.GET("/:id", offeringHandler.Get)
		offerings.PUT("/:id", offeringHandler.Update)
		offerings.POST("/:id/publish", offeringHandler.Publish)
		offerings.POST("/:id/archive", offeringHandler.Archive)
		offerings.POST("/:id/clone", offeringHandler.Clone)
		offerings.GET("/:id/roster", enrollmentHandler.Roster)
		offerings.GET("/:id/waitlist", enrollmentHandler.Waitlist)
		offerings.POST("/:id/waitlist/:enrollmentId/approve", enrollmentHandler.Approve)
		offerings.GET("/:id/attendance/stats", attendanceHandler.Stats)
	}

	enrollments := api.Group("/enrollments")
	{
		enrollments.GET("", enrollmentHandler.List)
		enrollments.POST("", enrollmentHandler.Enroll)
		enrollments.POST("/:id/drop", enrollmentHandler.Drop)
		enrollments.POST("/:id/complete", enrollmentHandler.Complete)
	}

	attendance := api.Group("/attendance")
	{
		attendance.GET("", attendanceHandler.List)
		attendance.POST("", attendanceHandler.Record)
		attendance.PUT("/:id", attendanceHandler.Update)
	}

	students := api.Group("/students/:studentId")
	{
		students.GET("/schedule", scheduleHandler.Day)
		students.GET("/credits", creditHandler.List)
		students.GET("/credits/totals", creditHandler.Totals)
	}

	appointments := api.Group("/appointments")
	{
		appointments.GET("", appointmentHandler.List)
		appointments.POST("", appointmentHandler.Request)
		appointments.GET("/:id", appointmentHandler.Get)
		appointments.POST("/:id/schedule", appointmentHandler.Schedule)
		appointments.POST("/:id/confirm", appointmentHandler.Confirm)
		appointments.POST("/:id/cancel", appointmentHandler.Cancel)
	}

	notifications := api.Group("/notifications")
	{
		notifications.GET("", notificationHandler.List)
		notifications.POST("/:id/read", notificationHandler.MarkRead)
	}

	if cfg.Reports.Enabled {
		reportHandler := handler.NewReportHandler(reportSvc)
		offerings.GET("/:id/reports/roster", reportHandler.Roster)
		offerings.GET("/:id/reports/attendance", reportHandler.Attendance)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
