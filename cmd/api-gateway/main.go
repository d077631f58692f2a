package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/certpath/certpath-api/api/swagger"
	"github.com/certpath/certpath-api/internal/handler"
	"github.com/certpath/certpath-api/internal/middleware"
	"github.com/certpath/certpath-api/internal/models"
	"github.com/certpath/certpath-api/internal/repository"
	"github.com/certpath/certpath-api/internal/service"
	"github.com/certpath/certpath-api/pkg/cache"
	"github.com/certpath/certpath-api/pkg/clock"
	"github.com/certpath/certpath-api/pkg/config"
	"github.com/certpath/certpath-api/pkg/database"
	"github.com/certpath/certpath-api/pkg/export"
	"github.com/certpath/certpath-api/pkg/jobs"
	"github.com/certpath/certpath-api/pkg/logger"
	corsmiddleware "github.com/certpath/certpath-api/pkg/middleware/cors"
	reqidmiddleware "github.com/certpath/certpath-api/pkg/middleware/requestid"
	"github.com/certpath/certpath-api/pkg/timeutil"
	"github.com/certpath/certpath-api/pkg/whatsapp"
)

// @title CertPath API
// @version 1.0.0
// @description Certification lifecycle tracking and SLA engine
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
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, sla cache disabled", zap.Error(err))
		redisClient = nil
	}

	location := timeutil.LoadLocation(cfg.Lifecycle.ReferenceTimezone)
	validate := validator.New()
	clk := clock.System{}

	processRepo := repository.NewProcessRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	slaRepo := repository.NewSLARepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	lifecycleSvc := service.NewLifecycleService(clk)
	timelineSvc := service.NewTimelineService(lifecycleSvc, location)
	slaSvc := service.NewSLAService(slaRepo, cacheRepo, auditRepo, validate, logr, cfg.SLA.CacheTTL)
	processSvc := service.NewProcessService(
		processRepo, studentRepo, auditRepo, slaSvc,
		lifecycleSvc, timelineSvc, clk, location, validate, logr,
		service.WithProcessMetrics(metricsSvc),
	)
	reportSvc := service.NewReportService(processRepo, studentRepo, timelineSvc, lifecycleSvc, slaSvc, export.NewPDFExporter())

	var transport service.MessageTransport = whatsapp.NewClient(whatsapp.ClientConfig{
		WebhookURL:  cfg.Notifications.WebhookURL,
		ClientToken: cfg.Notifications.ClientToken,
		Timeout:     cfg.Notifications.RequestTimeout,
	})
	if !cfg.Notifications.Enabled {
		transport = dryRunTransport{logger: logr}
	}
	notificationSvc := service.NewNotificationService(
		processRepo, studentRepo, timelineSvc, transport, auditRepo, logr,
		jobs.QueueConfig{
			Workers:    cfg.Notifications.WorkerConcurrency,
			MaxRetries: cfg.Notifications.WorkerRetries,
			RetryDelay: cfg.Notifications.RetryDelay,
		},
		metricsSvc,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notificationSvc.Start(ctx)
	defer notificationSvc.Stop()

	processHandler := handler.NewProcessHandler(processSvc, notificationSvc, reportSvc)
	slaHandler := handler.NewSLAHandler(slaSvc)

	pingers := map[string]handler.ReadinessPinger{
		"postgres": func(ctx context.Context) error { return db.PingContext(ctx) },
	}
	if redisClient != nil {
		pingers["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	metricsHandler := handler.NewMetricsHandler(metricsSvc, pingers)

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
	api.Use(middleware.Claims(cfg.JWT.Secret))
	{
		api.GET("/processes", processHandler.List)

		students := api.Group("/students/:id/process")
		{
			students.POST("", processHandler.Start)
			students.GET("", processHandler.View)
			students.PUT("/status", processHandler.UpdateStatus)
			students.PUT("/dates", processHandler.UpdateDates)
			students.POST("/notify", processHandler.Notify)
			if cfg.Reports.Enabled {
				students.GET("/report", processHandler.Report)
			}
		}

		api.GET("/sla", slaHandler.List)
		api.PUT("/sla", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), slaHandler.Update)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

// dryRunTransport logs instead of delivering; used when notifications are
// disabled so the notify endpoint still previews messages.
type dryRunTransport struct {
	logger *zap.Logger
}

func (t dryRunTransport) SendText(_ context.Context, phone, message string) error {
	t.logger.Info("notifications disabled, skipping delivery",
		zap.String("phone", phone),
		zap.Int("message_len", len(message)))
	return nil
}
