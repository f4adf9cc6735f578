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
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/stellarfs-api/api/swagger"
	"github.com/noah-isme/stellarfs-api/internal/handler"
	"github.com/noah-isme/stellarfs-api/internal/middleware"
	"github.com/noah-isme/stellarfs-api/internal/models"
	"github.com/noah-isme/stellarfs-api/internal/repository"
	"github.com/noah-isme/stellarfs-api/internal/service"
	"github.com/noah-isme/stellarfs-api/internal/viewmodel"
	"github.com/noah-isme/stellarfs-api/pkg/cache"
	"github.com/noah-isme/stellarfs-api/pkg/config"
	"github.com/noah-isme/stellarfs-api/pkg/database"
	"github.com/noah-isme/stellarfs-api/pkg/export"
	"github.com/noah-isme/stellarfs-api/pkg/jobs"
	"github.com/noah-isme/stellarfs-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/stellarfs-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/stellarfs-api/pkg/middleware/requestid"
	"github.com/noah-isme/stellarfs-api/pkg/storage"
)

// @title StellarFS API
// @version 1.0.0
// @description Distributed file system backend: record views, node health and exports
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 10 * time.Second

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

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

type handlers struct {
	files    *handler.FileHandler
	metadata *handler.MetadataHandler
	users    *handler.UserHandler
	nodes    *handler.NodeHandler
	storage  *handler.StorageHandler
	exports  *handler.ExportHandler
	metrics  *handler.MetricsHandler
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	if err := database.EnsureSchema(ctx, db); err != nil {
		return err
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, view cache disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Views.CacheTTL, logr, cfg.Views.CacheEnabled)

	fileRepo := repository.NewFileRepository(db)
	metadataRepo := repository.NewMetadataRepository(db)
	userRepo := repository.NewUserRepository(db)
	nodeRepo := repository.NewNodeRepository(db)

	viewCfg := service.ViewConfig{
		CacheTTL:        cfg.Views.CacheTTL,
		DefaultPageSize: cfg.Views.DefaultPageSize,
		MaxPageSize:     cfg.Views.MaxPageSize,
	}
	fileEngine := viewmodel.MustNewEngine(viewmodel.FileSchema(), cfg.Views.RecentLimit)
	fileViews := service.NewViewService[models.File](fileRepo, fileEngine, cacheSvc, metricsSvc, logr, viewCfg)
	metadataViews := service.NewViewService[models.MetadataEntry](metadataRepo,
		viewmodel.MustNewEngine(viewmodel.MetadataSchema(), cfg.Views.RecentLimit), cacheSvc, metricsSvc, logr, viewCfg)
	userViews := service.NewViewService[models.User](userRepo,
		viewmodel.MustNewEngine(viewmodel.UserSchema(), cfg.Views.RecentLimit), cacheSvc, metricsSvc, logr, viewCfg)
	nodeViews := service.NewViewService[models.Node](nodeRepo,
		viewmodel.MustNewEngine(viewmodel.NodeSchema(), cfg.Views.RecentLimit), cacheSvc, metricsSvc, logr, viewCfg)

	fileSvc := service.NewFileService(fileRepo, fileViews, metricsSvc, validate, logr, service.FileServiceConfig{
		LookupCacheSize: cfg.Files.LookupCacheSize,
		LookupCacheTTL:  cfg.Files.LookupCacheTTL,
	})
	metadataSvc := service.NewMetadataService(metadataRepo, metadataViews, validate, logr)
	userSvc := service.NewUserService(userRepo, userViews, validate, logr)
	nodeSvc := service.NewNodeService(nodeRepo, nodeViews, validate, logr, service.NodeServiceConfig{
		WarningThreshold:  cfg.Nodes.WarningThreshold,
		CriticalThreshold: cfg.Nodes.CriticalThreshold,
		MetricRetention:   cfg.Nodes.MetricRetention,
	})
	storageSvc := service.NewStorageService(fileViews, nodeViews, fileEngine, cfg.Storage.ReplicationTarget, logr)
	authSvc := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
	})

	h := handlers{
		files:    handler.NewFileHandler(fileViews, fileSvc),
		metadata: handler.NewMetadataHandler(metadataViews, metadataSvc),
		users:    handler.NewUserHandler(userViews, userSvc),
		nodes:    handler.NewNodeHandler(nodeViews, nodeSvc),
		storage:  handler.NewStorageHandler(storageSvc),
		metrics:  handler.NewMetricsHandler(metricsSvc, readinessChecks(db, redisClient)),
	}

	var exportCleaner interface {
		CleanupExpired(ctx context.Context) (int, error)
	}
	if cfg.Exports.Enabled {
		exportSvc, queue, err := buildExports(cfg, db, metricsSvc, validate, logr, map[models.ResourceKind]service.DatasetSource{
			models.ResourceFiles:    service.ViewDataset(fileViews, "Files"),
			models.ResourceMetadata: service.ViewDataset(metadataViews, "Metadata"),
			models.ResourceUsers:    service.ViewDataset(userViews, "Users"),
			models.ResourceNodes:    service.ViewDataset(nodeViews, "Nodes"),
		})
		if err != nil {
			return err
		}
		queue.Start(ctx)
		defer queue.Stop()
		exportSvc.RecoverPendingJobs(ctx)
		h.exports = handler.NewExportHandler(exportSvc, logr)
		exportCleaner = exportSvc
	}

	maintenance := service.NewMaintenanceService(nodeRepo, exportCleaner, service.MaintenanceConfig{
		Schedule:        cfg.Maintenance.Schedule,
		MetricRetention: cfg.Nodes.MetricRetention,
	}, logr)
	if err := maintenance.Start(ctx); err != nil {
		return err
	}
	defer maintenance.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(middleware.Metrics(metricsSvc, "/metrics"))
	r.Use(middleware.WithResponseMeta())
	registerRoutes(r, cfg, authSvc, h)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logr.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logr.Info("server stopped")
	return nil
}

func buildExports(cfg *config.Config, db *sqlx.DB, metricsSvc *service.MetricsService, validate *validator.Validate, logr *zap.Logger, sources map[models.ResourceKind]service.DatasetSource) (*service.ExportJobService, *jobs.Queue, error) {
	local, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return nil, nil, fmt.Errorf("init export storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exporter := service.NewExportService(sources, local, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr, export.NewCSVExporter(cfg.Exports.CSVDelimiter), nil)

	jobRepo := repository.NewExportJobRepository(db)
	worker := service.NewExportWorker(jobRepo, exporter, metricsSvc, cfg.Exports.WorkerRetries, logr)
	queue := jobs.NewQueue("exports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})
	return service.NewExportJobService(jobRepo, queue, exporter, validate, logr), queue, nil
}

func readinessChecks(db *sqlx.DB, redisClient *redis.Client) map[string]handler.ReadinessCheck {
	checks := map[string]handler.ReadinessCheck{
		"database": db.PingContext,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return checks
}

func registerRoutes(r *gin.Engine, cfg *config.Config, auth *service.AuthService, h handlers) {
	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	if h.exports != nil {
		// The signed token authorizes downloads on its own.
		api.GET("/exports/download/:token", h.exports.Download)
	}

	secured := api.Group("")
	secured.Use(middleware.JWT(auth))

	admin := middleware.RequireRoles(models.RoleAdmin)
	adminOrSelf := middleware.RequireRolesOrSelf("id", models.RoleAdmin)
	operators := middleware.RequireRoles(models.RoleAdmin, models.RoleManager)
	writers := middleware.RequireRoles(models.RoleAdmin, models.RoleManager, models.RoleUser)

	secured.GET("/metrics/summary", admin, h.metrics.Summary)

	files := secured.Group("/files")
	files.GET("", h.files.List)
	files.GET("/:id", h.files.Get)
	files.GET("/:id/versions", h.files.Versions)
	files.POST("", writers, h.files.Upload)
	files.DELETE("/:id", writers, h.files.Delete)
	files.POST("/:id/restore/:version", writers, h.files.Restore)

	metadata := secured.Group("/metadata")
	metadata.GET("", h.metadata.List)
	metadata.GET("/:id", h.metadata.Get)
	metadata.POST("", writers, h.metadata.Create)
	metadata.PUT("/:id", writers, h.metadata.Update)
	metadata.DELETE("/:id", writers, h.metadata.Delete)

	users := secured.Group("/users")
	users.GET("", admin, h.users.List)
	users.GET("/activity", admin, h.users.AllActivity)
	users.GET("/roles", admin, h.users.Roles)
	users.GET("/permissions", admin, h.users.Permissions)
	users.GET("/:id", adminOrSelf, h.users.Get)
	users.GET("/:id/activity", adminOrSelf, h.users.Activity)
	users.PUT("/:id", admin, h.users.Update)
	users.PUT("/:id/roles", admin, h.users.UpdateRoles)
	users.PUT("/:id/permissions", admin, h.users.UpdatePermissions)
	users.PUT("/:id/toggle-status", admin, h.users.ToggleStatus)
	users.DELETE("/:id", admin, h.users.Delete)

	nodes := secured.Group("/nodes")
	nodes.GET("", h.nodes.List)
	nodes.GET("/summary", h.nodes.Summary)
	nodes.GET("/:id", h.nodes.Get)
	nodes.GET("/:id/history", h.nodes.History)
	nodes.POST("/:id/metrics", operators, h.nodes.ReportMetrics)
	nodes.POST("/:id/actions/:action", operators, h.nodes.Action)

	secured.GET("/storage/overview", h.storage.Overview)

	if h.exports != nil {
		secured.POST("/exports", h.exports.Create)
		secured.GET("/exports/:id", h.exports.Status)
	}
}
