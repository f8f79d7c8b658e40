package main

import (
	"context"
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

	_ "github.com/mishrapeekay/campuskona-timetable/api/swagger"
	"github.com/mishrapeekay/campuskona-timetable/internal/handler"
	internalmiddleware "github.com/mishrapeekay/campuskona-timetable/internal/middleware"
	"github.com/mishrapeekay/campuskona-timetable/internal/repository"
	"github.com/mishrapeekay/campuskona-timetable/internal/service"
	"github.com/mishrapeekay/campuskona-timetable/pkg/cache"
	"github.com/mishrapeekay/campuskona-timetable/pkg/config"
	"github.com/mishrapeekay/campuskona-timetable/pkg/database"
	"github.com/mishrapeekay/campuskona-timetable/pkg/logger"
	corsmiddleware "github.com/mishrapeekay/campuskona-timetable/pkg/middleware/cors"
	reqidmiddleware "github.com/mishrapeekay/campuskona-timetable/pkg/middleware/requestid"
)

// @title CampusKona Timetable API
// @version 0.1.0
// @description Timetable generation core: constraint-driven search, genetic optimization and transactional apply
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, analyze caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	runRepo := repository.NewGenerationRunRepository(db)
	classRepo := repository.NewClassScheduleRepository(db)
	teacherRepo := repository.NewTeacherScheduleRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	requirementRepo := repository.NewRequirementRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	loader := service.NewDatasetLoader(sectionRepo, requirementRepo)
	metricsSvc := service.NewMetricsService()
	generationSvc := service.NewGenerationService(runRepo, loader, metricsSvc, validate, logr, cfg.Timetable)
	applySvc := service.NewApplyService(runRepo, classRepo, teacherRepo, db, cacheRepo, metricsSvc, logr)
	analyzeSvc := service.NewAnalyzeService(runRepo, loader, cacheRepo, logr, cfg.Timetable.AnalyzeCacheTTL)
	exportSvc := service.NewExportService(runRepo, sectionRepo, logr, cfg.Export)

	timetableHandler := handler.NewTimetableHandler(generationSvc, applySvc, analyzeSvc, exportSvc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	generationSvc.StartWorkers(ctx)
	defer generationSvc.StopWorkers()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	runs := api.Group("/timetable/runs")
	runs.POST("", timetableHandler.Generate)
	runs.GET("", timetableHandler.List)
	runs.GET("/:id", timetableHandler.Get)
	runs.POST("/:id/apply", timetableHandler.Apply)
	runs.POST("/:id/rollback", timetableHandler.Rollback)
	runs.GET("/:id/analyze", timetableHandler.Analyze)
	runs.GET("/:id/export", timetableHandler.Export)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown", "error", err)
	}
}
