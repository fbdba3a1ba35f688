package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/edusched/timegrid-api/api/swagger"
	"github.com/edusched/timegrid-api/internal/handler"
	"github.com/edusched/timegrid-api/internal/middleware"
	"github.com/edusched/timegrid-api/internal/models"
	"github.com/edusched/timegrid-api/internal/repository"
	"github.com/edusched/timegrid-api/internal/service"
	"github.com/edusched/timegrid-api/pkg/cache"
	"github.com/edusched/timegrid-api/pkg/config"
	"github.com/edusched/timegrid-api/pkg/database"
	"github.com/edusched/timegrid-api/pkg/jobs"
	"github.com/edusched/timegrid-api/pkg/logger"
	corsmiddleware "github.com/edusched/timegrid-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edusched/timegrid-api/pkg/middleware/requestid"
)

// @title Timegrid API
// @version 0.1.0
// @description Session placement and conflict engine for class timetables
// @BasePath /
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, snapshot cache disabled", "error", err)
		redisClient = nil
	}

	sessionRepo := repository.NewSessionRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()

	var auditQueue *jobs.Queue
	if cfg.Audit.Enabled {
		auditQueue = jobs.NewQueue("move-audit", func(ctx context.Context, job jobs.Job) error {
			audit, ok := job.Payload.(models.MoveAudit)
			if !ok {
				return fmt.Errorf("unexpected payload type %T", job.Payload)
			}
			return auditRepo.Insert(ctx, &audit)
		}, jobs.QueueConfig{
			Workers:    cfg.Audit.Workers,
			MaxRetries: cfg.Audit.MaxRetries,
			RetryDelay: cfg.Audit.RetryDelay,
			Logger:     logr,
		})
		auditQueue.Start(context.Background())
		defer auditQueue.Stop()
	}

	sessionSvc := service.NewSessionService(sessionRepo, cacheRepo, metricsSvc, cfg.Cache, logr)
	placementSvc := service.NewPlacementService(db, sessionRepo, auditRepo, sessionSvc, auditQueue, metricsSvc, logr)
	layoutSvc := service.NewLayoutService(sessionSvc, cfg.Grid, logr)

	sessionHandler := handler.NewSessionHandler(sessionSvc)
	placementHandler := handler.NewPlacementHandler(placementSvc)
	gridHandler := handler.NewGridHandler(layoutSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/sessions", sessionHandler.List)
		api.GET("/sessions/:id", sessionHandler.Get)
		api.DELETE("/sessions/:id", placementHandler.Delete)
		api.POST("/sessions/:id/move", placementHandler.Move)
		api.POST("/sessions/:id/duplicate", placementHandler.Duplicate)
		api.GET("/sessions/:id/audits", placementHandler.History)
		api.POST("/placements/validate", placementHandler.Validate)
		api.GET("/classes/:id/grid", gridHandler.Week)
		api.GET("/classes/:id/grid/cell", gridHandler.Cell)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
