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

	_ "github.com/ietf-tools/errata-api/api/swagger"
	"github.com/ietf-tools/errata-api/internal/handler"
	"github.com/ietf-tools/errata-api/internal/middleware"
	"github.com/ietf-tools/errata-api/internal/repository"
	"github.com/ietf-tools/errata-api/internal/service"
	"github.com/ietf-tools/errata-api/pkg/cache"
	"github.com/ietf-tools/errata-api/pkg/config"
	"github.com/ietf-tools/errata-api/pkg/database"
	"github.com/ietf-tools/errata-api/pkg/jobs"
	"github.com/ietf-tools/errata-api/pkg/logger"
	corsmiddleware "github.com/ietf-tools/errata-api/pkg/middleware/cors"
	reqidmiddleware "github.com/ietf-tools/errata-api/pkg/middleware/requestid"
	"github.com/ietf-tools/errata-api/pkg/storage"
)

// @title RFC Errata API
// @version 1.0.0
// @description Errata reporting, screening and verification for published RFCs
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, corpus cache disabled", "error", err)
		redisClient = nil
	}

	store, err := storage.NewLocalStorage(cfg.Snapshot.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare snapshot storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Snapshot.SignedURLSecret, cfg.Snapshot.SignedURLTTL)

	validate := validator.New()

	erratumRepo := repository.NewErratumRepository(db)
	stagedRepo := repository.NewStagedRepository(db)
	rfcRepo := repository.NewRfcRepository(db)
	logRepo := repository.NewLogRepository(db)
	mailRepo := repository.NewMailRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metrics := service.NewMetricsService()
	visibility := service.NewVisibilityService(erratumRepo, rfcRepo, logr)
	recipients := service.NewRecipientService(cfg.Mail)
	notifications := service.NewNotificationService(mailRepo, recipients, service.NewLogSender(logr), metrics, cfg, logr)

	dispatchQueue := jobs.NewQueue(service.JobTypeMailDispatch, notifications.HandleDispatch, jobs.QueueConfig{
		Workers:    cfg.Dispatch.Workers,
		MaxRetries: cfg.Dispatch.MaxRetries,
		RetryDelay: cfg.Dispatch.RetryDelay,
		Logger:     logr,
	})
	notifications.SetDispatcher(dispatchQueue)

	stagedSvc := service.NewStagedService(stagedRepo, rfcRepo, validate, logr)
	exportSvc := service.NewExportService(erratumRepo, cacheRepo, store, signer, cfg.Mail.CacheTTL, logr)
	erratumSvc := service.NewErratumService(erratumRepo, stagedRepo, rfcRepo, logRepo, visibility, notifications, exportSvc, metrics, validate, logr)
	rfcSvc := service.NewRfcService(rfcRepo, validate, logr)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: "errata-api",
	})

	stagedHandler := handler.NewStagedHandler(stagedSvc)
	erratumHandler := handler.NewErratumHandler(erratumSvc)
	rfcHandler := handler.NewRfcHandler(rfcSvc)
	exportHandler := handler.NewExportHandler(exportSvc, store)
	authHandler := handler.NewAuthHandler(authSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
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
		api.POST("/auth/login", authHandler.Login)
		api.GET("/errata", erratumHandler.Search)
		api.GET("/errata.json", exportHandler.CorpusJSON)
		api.GET("/errata/:id", erratumHandler.Get)
		api.GET("/rfcs/:number", rfcHandler.Get)
		api.GET("/snapshots/download", exportHandler.Download)

		api.POST("/staged", stagedHandler.Create)
		api.PATCH("/staged/:id", stagedHandler.Update)
		api.POST("/staged/:id/submit", stagedHandler.Submit)

		authed := api.Group("")
		authed.Use(middleware.JWT(authSvc))
		{
			authed.GET("/auth/me", authHandler.Me)

			verifier := authed.Group("")
			verifier.Use(middleware.RequireVerifier(visibility))
			{
				verifier.GET("/queue", erratumHandler.Queue)
				verifier.POST("/errata/:id/classify", erratumHandler.Classify)
			}

			rpc := authed.Group("")
			rpc.Use(middleware.RequireRPC(visibility))
			{
				rpc.GET("/staged/:id", stagedHandler.Get)
				rpc.DELETE("/staged/:id", stagedHandler.Reject)
				rpc.POST("/staged/:id/convert", erratumHandler.Convert)
				rpc.PUT("/rfcs/:number", rfcHandler.Upsert)
				rpc.POST("/snapshots", exportHandler.WriteSnapshot)
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dispatchQueue.Start(ctx)
	defer dispatchQueue.Stop()

	go runStagedCleanup(ctx, stagedSvc, metrics, cfg.Staged, logr)
	if cfg.Snapshot.Enabled {
		go runSnapshotWriter(ctx, exportSvc, store, cfg.Snapshot, logr)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}

func runStagedCleanup(ctx context.Context, staged *service.StagedService, metrics *service.MetricsService, cfg config.StagedConfig, logr *zap.Logger) {
	ticker := time.NewTicker(cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := staged.CleanupStale(ctx, cfg.MaxAge)
			if err != nil {
				logr.Error("staged cleanup failed", zap.Error(err))
				continue
			}
			metrics.ObserveStagedPurged(purged)
		}
	}
}

func runSnapshotWriter(ctx context.Context, exports *service.ExportService, store *storage.LocalStorage, cfg config.SnapshotConfig, logr *zap.Logger) {
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := exports.WriteSnapshot(ctx); err != nil {
				logr.Error("snapshot write failed", zap.Error(err))
				continue
			}
			if cfg.Retention > 0 {
				removed, err := store.CleanupOlderThan(cfg.Retention)
				if err != nil {
					logr.Error("snapshot prune failed", zap.Error(err))
				} else if len(removed) > 0 {
					logr.Info("pruned old snapshots", zap.Int("files", len(removed)))
				}
			}
		}
	}
}
