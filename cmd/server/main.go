package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/openedu-vn/school-admin-api/api/swagger"
	"github.com/openedu-vn/school-admin-api/internal/handler"
	"github.com/openedu-vn/school-admin-api/internal/importer"
	"github.com/openedu-vn/school-admin-api/internal/middleware"
	"github.com/openedu-vn/school-admin-api/internal/repository"
	"github.com/openedu-vn/school-admin-api/internal/service"
	"github.com/openedu-vn/school-admin-api/pkg/cache"
	"github.com/openedu-vn/school-admin-api/pkg/config"
	"github.com/openedu-vn/school-admin-api/pkg/database"
	"github.com/openedu-vn/school-admin-api/pkg/jobs"
	"github.com/openedu-vn/school-admin-api/pkg/logger"
	corsmiddleware "github.com/openedu-vn/school-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/openedu-vn/school-admin-api/pkg/middleware/requestid"
	"github.com/openedu-vn/school-admin-api/pkg/storage"
)

// @title School Admin API
// @version 1.0.0
// @description Timetable, roster and device administration for Vietnamese K-12 schools
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
	defer db.Close() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Repositories.
	subjectRepo := repository.NewSubjectRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	classRepo := repository.NewClassRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)
	curriculumRepo := repository.NewCurriculumRepository(db)
	periodRepo := repository.NewPeriodRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)

	var cacheRepo *repository.CacheRepository
	if cfg.Grid.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, grid cache disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	// Services.
	metricsSvc := service.NewMetricsService()
	subjectSvc := service.NewSubjectService(subjectRepo, nil, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, nil, logr)
	classSvc := service.NewClassService(classRepo, nil, logr)
	deviceSvc := service.NewDeviceService(deviceRepo, nil, logr)
	curriculumSvc := service.NewCurriculumService(curriculumRepo, nil, logr)
	periodSvc := service.NewPeriodService(periodRepo, nil, logr)

	timetableCacheCfg := service.TimetableCacheConfig{
		Enabled:      cfg.Grid.CacheEnabled && cacheRepo != nil,
		TTL:          cfg.Grid.CacheTTL,
		FallbackSpan: cfg.Grid.FallbackPeriodSpan,
	}
	timetableSvc := service.NewTimetableService(timetableRepo, periodRepo, cacheRepo, timetableCacheCfg, metricsSvc, logr)

	importSvc := importer.NewService(periodRepo, subjectRepo, timetableSvc, importer.Config{
		MaxFileSizeBytes:  cfg.Import.MaxFileSizeBytes,
		AllowedExtensions: cfg.Import.AllowedExtensions,
	}, logr)

	// Handlers.
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	classHandler := handler.NewClassHandler(classSvc)
	deviceHandler := handler.NewDeviceHandler(deviceSvc)
	curriculumHandler := handler.NewCurriculumHandler(curriculumSvc)
	periodHandler := handler.NewPeriodHandler(periodSvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc, importSvc, metricsSvc, cfg.Import.MaxFileSizeBytes)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	var exportHandler *handler.ExportHandler
	var exportQueue *jobs.Queue
	if cfg.Exports.Enabled {
		store, err := storage.NewExportStore(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc := service.NewExportService(exportJobRepo, classRepo, timetableSvc, store, signer, logr)
		exportQueue = jobs.NewQueue("exports", exportSvc.HandleJob, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
		})
		exportQueue.Start(ctx)
		defer exportQueue.Stop()
		exportSvc.SetQueue(exportQueue)
		exportSvc.StartCleanup(ctx, cfg.Exports.CleanupInterval, cfg.Exports.SignedURLTTL)
		exportHandler = handler.NewExportHandler(exportSvc, metricsSvc)
	}

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
	api.Use(middleware.JWT(cfg.JWT.Secret))
	{
		subjects := api.Group("/subjects")
		subjects.GET("", subjectHandler.List)
		subjects.GET("/catalog", subjectHandler.Catalog)
		subjects.GET("/:id", subjectHandler.Get)
		subjects.POST("", subjectHandler.Create)
		subjects.PUT("/:id", subjectHandler.Update)
		subjects.DELETE("/:id", subjectHandler.Delete)

		teachers := api.Group("/teachers")
		teachers.GET("", teacherHandler.List)
		teachers.GET("/:id", teacherHandler.Get)
		teachers.POST("", teacherHandler.Create)
		teachers.PUT("/:id", teacherHandler.Update)
		teachers.DELETE("/:id", teacherHandler.Deactivate)

		classes := api.Group("/classes")
		classes.GET("", classHandler.List)
		classes.GET("/:id", classHandler.Get)
		classes.POST("", classHandler.Create)
		classes.PUT("/:id", classHandler.Update)
		classes.DELETE("/:id", classHandler.Delete)

		devices := api.Group("/devices")
		devices.GET("", deviceHandler.List)
		devices.GET("/:id", deviceHandler.Get)
		devices.POST("", deviceHandler.Create)
		devices.PUT("/:id", deviceHandler.Update)
		devices.DELETE("/:id", deviceHandler.Delete)

		curricula := api.Group("/curricula")
		curricula.GET("", curriculumHandler.List)
		curricula.GET("/:id", curriculumHandler.Get)
		curricula.POST("", curriculumHandler.Create)
		curricula.PUT("/:id", curriculumHandler.Update)
		curricula.DELETE("/:id", curriculumHandler.Delete)
		curricula.GET("/:id/subjects", curriculumHandler.Subjects)
		curricula.POST("/:id/subjects", curriculumHandler.AddSubject)
		curricula.DELETE("/:id/subjects/:subjectId", curriculumHandler.RemoveSubject)

		periods := api.Group("/periods")
		periods.GET("", periodHandler.List)
		periods.POST("/apply", periodHandler.ApplyDiff)

		timetables := api.Group("/timetables")
		timetables.GET("/grid", timetableHandler.Grid)
		timetables.GET("/rows", timetableHandler.Rows)
		timetables.POST("/entries", timetableHandler.UpsertEntry)
		timetables.DELETE("/entries/:id", timetableHandler.DeleteEntry)
		timetables.POST("/import", timetableHandler.Import)

		if exportHandler != nil {
			exports := api.Group("/exports")
			exports.POST("", exportHandler.Request)
			exports.GET("/:id", exportHandler.Get)
		}
	}

	// Download URLs carry their own HMAC token, no JWT required.
	if exportHandler != nil {
		r.GET(cfg.APIPrefix+"/exports/download/:token", exportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
