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

	"github.com/sstli/attendance-gateway/internal/handler"
	internalmiddleware "github.com/sstli/attendance-gateway/internal/middleware"
	"github.com/sstli/attendance-gateway/internal/service"
	"github.com/sstli/attendance-gateway/internal/upstream"
	"github.com/sstli/attendance-gateway/pkg/cache"
	"github.com/sstli/attendance-gateway/pkg/config"
	"github.com/sstli/attendance-gateway/pkg/jobs"
	"github.com/sstli/attendance-gateway/pkg/logger"
	corsmiddleware "github.com/sstli/attendance-gateway/pkg/middleware/cors"
	reqidmiddleware "github.com/sstli/attendance-gateway/pkg/middleware/requestid"
	"github.com/sstli/attendance-gateway/pkg/storage"
)

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
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}

	metricsSvc := service.NewMetricsService()
	client := upstream.NewClient(cfg.Upstream, logr).WithMetrics(metricsSvc)
	validate := validator.New()

	sessions := service.NewSessionStore(redisClient)
	authSvc := service.NewAuthService(client, sessions, validate, logr, service.AuthConfig{
		Secret:     cfg.Session.Secret,
		Expiration: cfg.Session.Expiration,
	})
	attendanceSvc := service.NewAttendanceService(client, validate, logr)
	reportSvc := service.NewReportService(client, validate, logr)
	teachingSvc := service.NewTeachingService(client, validate, logr)

	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(reportSvc, exportStore, signer,
		service.ExportConfig{APIPrefix: cfg.APIPrefix}, logr,
		jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
		}).WithMetrics(metricsSvc)
	metricsSvc.RegisterExportQueueDepth(func() float64 {
		return float64(exportSvc.QueueDepth())
	})

	exportSvc.Start(ctx)
	defer exportSvc.Stop()

	go func() {
		ticker := time.NewTicker(cfg.Exports.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				exportSvc.Cleanup(cfg.Exports.SignedURLTTL)
			}
		}
	}()

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
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	api := r.Group(cfg.APIPrefix)
	handler.Register(api, handler.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		Attendance: handler.NewAttendanceHandler(attendanceSvc),
		Report:     handler.NewReportHandler(reportSvc),
		Export:     handler.NewExportHandler(exportSvc),
		Teaching:   handler.NewTeachingHandler(teachingSvc),
	}, internalmiddleware.Session(authSvc))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
}
