package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/live-timetable-api/api/swagger"
	"github.com/noah-isme/live-timetable-api/internal/handler"
	"github.com/noah-isme/live-timetable-api/internal/middleware"
	"github.com/noah-isme/live-timetable-api/internal/repository"
	"github.com/noah-isme/live-timetable-api/internal/service"
	"github.com/noah-isme/live-timetable-api/internal/timetable"
	"github.com/noah-isme/live-timetable-api/pkg/cache"
	"github.com/noah-isme/live-timetable-api/pkg/config"
	"github.com/noah-isme/live-timetable-api/pkg/database"
	"github.com/noah-isme/live-timetable-api/pkg/export"
	"github.com/noah-isme/live-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/live-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/live-timetable-api/pkg/middleware/requestid"
)

// @title Live Timetable API
// @version 1.0.0
// @description Weekly overrides, absences, makeup classes and special events over locked schedules.
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("redis connection failed", "error", err)
	}

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	schedules := repository.NewScheduleRepository(db)
	allocations := repository.NewAllocationRepository(db)
	overrides := repository.NewOverrideRepository(db)
	absences := repository.NewAbsenceRepository(db)
	makeups := repository.NewMakeupRepository(db)
	events := repository.NewSpecialEventRepository(db)
	audits := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	bundleCache := service.NewCacheService(cacheRepo, metricsSvc, cfg.Timetable.BundleCacheTTL, logr, cfg.Timetable.EnableCache)

	notifier := service.NewChangeNotifier(bundleCache, cacheRepo, metricsSvc, logr, service.ChangeNotifierConfig{
		Workers:    cfg.Timetable.NotifyWorkers,
		Retries:    cfg.Timetable.NotifyRetries,
		RetryDelay: time.Second,
	})
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notifier.Start(appCtx)
	defer notifier.Stop()

	grid := timetable.NewGrid(cfg.Timetable.DayStart, cfg.Timetable.DayEnd, cfg.Timetable.SlotMinutes)

	timetableSvc := service.NewTimetableService(service.TimetableReaders{
		Schedules:   schedules,
		Allocations: allocations,
		Overrides:   overrides,
		Absences:    absences,
		Makeups:     makeups,
		Events:      events,
	}, bundleCache, metricsSvc, export.NewPDFExporter(), audits, logr, service.TimetableConfig{
		Grid:         grid,
		Location:     cfg.Timetable.Location(),
		PollInterval: cfg.Timetable.PollInterval,
		CacheTTL:     cfg.Timetable.BundleCacheTTL,
	})
	overrideSvc := service.NewOverrideService(overrides, allocations, schedules, timetableSvc, notifier, audits, metricsSvc, validate, logr)
	absenceSvc := service.NewAbsenceService(absences, allocations, schedules, notifier, audits, metricsSvc, validate, logr)
	makeupSvc := service.NewMakeupService(makeups, allocations, schedules, notifier, audits, metricsSvc, validate, logr)
	eventSvc := service.NewSpecialEventService(events, allocations, schedules, notifier, audits, metricsSvc, validate, logr, grid)
	tokens := service.NewTokenVerifier(service.AuthConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(corsmiddleware.Options{AllowedOrigins: cfg.CORS.AllowedOrigins, MaxAge: cfg.CORS.MaxAge}))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(metricsSvc))
	}

	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r.Group(cfg.APIPrefix), routeDeps{
		tokens:       tokens,
		timetable:    handler.NewTimetableHandler(timetableSvc, notifier, metricsSvc),
		overrides:    handler.NewOverrideHandler(overrideSvc),
		absences:     handler.NewAbsenceHandler(absenceSvc),
		makeups:      handler.NewMakeupHandler(makeupSvc),
		events:       handler.NewSpecialEventHandler(eventSvc),
		enableExport: cfg.Timetable.EnableExport,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	// request contexts derive from streamCtx so open change streams end when shutdown begins
	streamCtx, closeStreams := context.WithCancel(context.Background())
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return streamCtx },
	}
	srv.RegisterOnShutdown(closeStreams)

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down server")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
	cancel()
}
