package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/univ-reg-api/api/swagger"
	"github.com/noah-isme/univ-reg-api/internal/handler"
	"github.com/noah-isme/univ-reg-api/internal/middleware"
	"github.com/noah-isme/univ-reg-api/internal/models"
	"github.com/noah-isme/univ-reg-api/internal/repository"
	"github.com/noah-isme/univ-reg-api/internal/service"
	"github.com/noah-isme/univ-reg-api/pkg/cache"
	"github.com/noah-isme/univ-reg-api/pkg/config"
	"github.com/noah-isme/univ-reg-api/pkg/database"
	"github.com/noah-isme/univ-reg-api/pkg/lock"
	"github.com/noah-isme/univ-reg-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/univ-reg-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/univ-reg-api/pkg/middleware/requestid"
)

// @title University Registration API
// @version 0.1.0
// @description Concurrency-safe course registration service
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	var locker lock.Locker
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Without Redis mutual exclusion only holds within this process.
		logr.Sugar().Warnw("redis unavailable, using in-process lock", "error", err)
		locker = lock.NewMemoryLocker()
		redisClient = nil
	} else {
		locker = lock.NewRedisLocker(redisClient)
	}

	sectionRepo := repository.NewSectionRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	windowRepo := repository.NewWindowRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	eligibilitySvc := service.NewEligibilityService(windowRepo, models.WindowKind(cfg.Registration.WindowKind), logr)
	sectionSvc := service.NewSectionService(sectionRepo, cacheRepo, cfg.Sections.CacheTTL, logr)
	registrationSvc := service.NewRegistrationService(
		sectionRepo,
		registrationRepo,
		ledgerRepo,
		eligibilitySvc,
		locker,
		cfg.Registration.LockTTL,
		sectionSvc,
		metricsSvc,
		nil,
		logr,
	)

	registrationHandler := handler.NewRegistrationHandler(registrationSvc)
	sectionHandler := handler.NewSectionHandler(sectionSvc)
	windowHandler := handler.NewWindowHandler(eligibilitySvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/registrations", registrationHandler.Create)
		api.POST("/registrations/cancel", registrationHandler.Cancel)
		api.POST("/registrations/transfer", registrationHandler.Transfer)
		api.GET("/students/:id/registrations", registrationHandler.ListByStudent)
		api.GET("/students/:id/history", registrationHandler.HistoryByStudent)
		api.GET("/sections/:id", sectionHandler.Get)
		api.GET("/sections/:id/slots", sectionHandler.Slots)
		api.GET("/terms/:id/registration-window", windowHandler.RegistrationWindow)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
