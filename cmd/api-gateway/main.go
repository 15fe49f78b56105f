package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/timetable-api/api/swagger"
	"github.com/noah-isme/timetable-api/internal/handler"
	internalmiddleware "github.com/noah-isme/timetable-api/internal/middleware"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/repository"
	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/pkg/cache"
	"github.com/noah-isme/timetable-api/pkg/config"
	"github.com/noah-isme/timetable-api/pkg/database"
	"github.com/noah-isme/timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/timetable-api/pkg/middleware/requestid"
	"github.com/noah-isme/timetable-api/pkg/storage"
)

// @title Timetable API
// @version 1.0.0
// @description Classroom timetable, faculty, and substitution management
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

	var cacheRepo *repository.CacheRepository
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, week cache disabled", "error", err)
	} else {
		defer redisClient.Close()
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}

	slotRepo := repository.NewSlotRepository(db)
	overrideRepo := repository.NewOverrideRepository(db)
	facultyRepo := repository.NewFacultyRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(facultyRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	facultySvc := service.NewFacultyService(facultyRepo, nil, logr)
	classroomSvc := service.NewClassroomService(classroomRepo, nil, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, nil, logr)
	availabilitySvc := service.NewAvailabilityService(slotRepo, overrideRepo, facultyRepo, cfg.Schedule.LegacyAvailability, logr)
	timetableSvc := service.NewTimetableService(slotRepo, overrideRepo, cacheRepo, cfg.Schedule.WeekCacheTTL, logr).WithMetrics(metricsSvc)
	overrideSvc := service.NewOverrideService(overrideRepo, slotRepo, availabilitySvc, cacheRepo, nil, logr)
	importSvc := service.NewScheduleImportService(slotRepo, facultyRepo, classroomRepo, cacheRepo, logr)

	if cacheRepo != nil {
		warmSvc := service.NewWarmService(timetableSvc, logr)
		warmSvc.Start(context.Background())
		defer warmSvc.Stop()
		overrideSvc = overrideSvc.WithWarmer(warmSvc)
		importSvc = importSvc.WithWarmer(warmSvc)
	}

	archive, err := storage.NewImportArchive(cfg.Schedule.ImportArchiveDir)
	if err != nil {
		logr.Sugar().Warnw("import archive disabled", "error", err)
	} else {
		importSvc = importSvc.WithArchive(archive)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	facultyHandler := handler.NewFacultyHandler(facultySvc)
	classroomHandler := handler.NewClassroomHandler(classroomSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc, importSvc)
	overrideHandler := handler.NewOverrideHandler(overrideSvc, availabilitySvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)

	public := api.Group("/public")
	public.GET("/classrooms/:id/timetable", timetableHandler.PublicDay)
	public.GET("/classrooms/:id/timetable/week", timetableHandler.PublicWeek)
	public.GET("/classrooms", classroomHandler.List)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(authSvc))

	secured.GET("/auth/me", authHandler.Me)

	adminOnly := internalmiddleware.RequireRoles(models.RoleAdmin)
	adminOrSelf := internalmiddleware.RBAC(string(models.RoleAdmin), "SELF")

	secured.GET("/faculty", adminOnly, facultyHandler.List)
	secured.POST("/faculty", adminOnly, facultyHandler.Create)
	secured.GET("/faculty/:id", adminOrSelf, facultyHandler.Get)
	secured.DELETE("/faculty/:id", adminOnly, facultyHandler.Delete)

	secured.GET("/classrooms", adminOnly, classroomHandler.List)
	secured.POST("/classrooms", adminOnly, classroomHandler.Create)
	secured.DELETE("/classrooms/:id", adminOnly, classroomHandler.Delete)

	secured.GET("/subjects", subjectHandler.List)
	secured.POST("/subjects", adminOnly, subjectHandler.Create)
	secured.DELETE("/subjects/:id", adminOnly, subjectHandler.Delete)

	secured.GET("/classrooms/:id/timetable", adminOnly, timetableHandler.Template)
	secured.DELETE("/classrooms/:id/timetable", adminOnly, timetableHandler.DeleteTemplate)
	secured.POST("/classrooms/:id/timetable/import", adminOnly, timetableHandler.Import)
	secured.GET("/classrooms/:id/timetable/export", adminOnly, timetableHandler.Export)

	secured.GET("/faculty/:id/timetable", adminOrSelf, timetableHandler.FacultyTimetable)
	secured.GET("/faculty/:id/overrides", adminOrSelf, overrideHandler.ListForFacultyMonth)

	secured.GET("/availability", overrideHandler.Availability)
	secured.POST("/overrides", overrideHandler.Create)
	secured.DELETE("/overrides/:id", overrideHandler.Delete)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
