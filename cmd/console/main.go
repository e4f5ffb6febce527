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

	_ "github.com/noah-isme/yakhtimoon-console/api/swagger"
	"github.com/noah-isme/yakhtimoon-console/internal/handler"
	"github.com/noah-isme/yakhtimoon-console/internal/middleware"
	"github.com/noah-isme/yakhtimoon-console/internal/models"
	"github.com/noah-isme/yakhtimoon-console/internal/projector"
	"github.com/noah-isme/yakhtimoon-console/internal/repository"
	"github.com/noah-isme/yakhtimoon-console/internal/service"
	"github.com/noah-isme/yakhtimoon-console/internal/transport"
	"github.com/noah-isme/yakhtimoon-console/pkg/config"
	"github.com/noah-isme/yakhtimoon-console/pkg/database"
	"github.com/noah-isme/yakhtimoon-console/pkg/jobs"
	"github.com/noah-isme/yakhtimoon-console/pkg/logger"
	corsmiddleware "github.com/noah-isme/yakhtimoon-console/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/yakhtimoon-console/pkg/middleware/requestid"
	"github.com/noah-isme/yakhtimoon-console/pkg/session"
)

// @title Yakhtimoon Console API
// @version 1.0.0
// @description Screens, filters and forms of the course-management admin console
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()

	store, closeStore, err := session.NewStore(cfg.Session, cfg.Redis)
	if err != nil {
		logr.Fatal("failed to open session store", zap.String("store", cfg.Session.Store), zap.Error(err))
	}
	defer closeStore() //nolint:errcheck
	sess := session.New(store, logr.Named("session"))

	client, err := transport.New(transport.Options{
		BaseURL:     cfg.Upstream.BaseURL,
		HTTPClient:  &http.Client{Timeout: cfg.Upstream.Timeout},
		Tokens:      sess,
		BypassKey:   cfg.Upstream.BypassKey,
		BypassValue: cfg.Upstream.BypassValue,
		Validator:   validator.New(),
		Observer:    metrics,
		Logger:      logr.Named("transport"),
	})
	if err != nil {
		logr.Fatal("failed to build course api client", zap.Error(err))
	}

	repos, err := repository.NewRepositories(client, models.DefaultRegistry())
	if err != nil {
		logr.Fatal("failed to build repositories", zap.Error(err))
	}

	audit := newAuditService(ctx, cfg, metrics, logr)
	audit.Start(ctx)
	defer audit.Stop()

	screens := service.NewScreenService(repos, projector.New(logr.Named("projector"), metrics), audit, logr.Named("screens"))
	exports := service.NewExportService(service.ExportConfig{Enabled: cfg.Exports.Enabled}, logr.Named("export"), nil, nil)

	screenHandler := handler.NewScreenHandler(screens, exports, audit)
	sessionHandler := handler.NewSessionHandler(sess)
	metricsHandler := handler.NewMetricsHandler(metrics)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, "/metrics"))

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/session", sessionHandler.Get)
	api.PUT("/session", sessionHandler.Put)
	api.DELETE("/session", sessionHandler.Delete)

	screenRoutes := api.Group("/screens")
	screenRoutes.GET("", screenHandler.List)
	screenRoutes.GET("/:screen", screenHandler.View)
	screenRoutes.GET("/:screen/filters", screenHandler.FilterOptions)
	screenRoutes.PUT("/:screen/filter", screenHandler.SetFilter)
	screenRoutes.POST("/:screen/refresh", screenHandler.Refresh)
	screenRoutes.POST("/:screen/form", screenHandler.OpenForm)
	screenRoutes.DELETE("/:screen/form", screenHandler.CloseForm)
	screenRoutes.POST("/:screen/submit", screenHandler.Submit)
	screenRoutes.DELETE("/:screen/rows/:key", screenHandler.DeleteRow)
	screenRoutes.GET("/:screen/export", screenHandler.Export)
	screenRoutes.GET("/:screen/audit", screenHandler.Audit)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "upstream", cfg.Upstream.BaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logr.Sugar().Errorw("server failed", "error", err)
	case <-ctx.Done():
		logr.Info("shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
		_ = server.Close()
	}
}

// newAuditService connects the audit trail when enabled. Without a database
// mutations are still counted in metrics.
func newAuditService(ctx context.Context, cfg *config.Config, metrics *service.MetricsService, logr *zap.Logger) *service.AuditService {
	auditLogger := logr.Named("audit")
	if !cfg.Audit.Enabled {
		return service.NewAuditService(nil, metrics, auditLogger, jobs.QueueConfig{})
	}
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Warn("audit database unavailable, audit trail disabled", zap.Error(err))
		return service.NewAuditService(nil, metrics, auditLogger, jobs.QueueConfig{})
	}
	repo := repository.NewAuditRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		logr.Warn("audit schema unavailable, audit trail disabled", zap.Error(err))
		_ = db.Close()
		return service.NewAuditService(nil, metrics, auditLogger, jobs.QueueConfig{})
	}
	return service.NewAuditService(repo, metrics, auditLogger, jobs.QueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: cfg.Audit.MaxRetries,
		RetryDelay: cfg.Audit.RetryDelay,
	})
}
