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

	_ "github.com/papervault/papervault-api/api/swagger"
	"github.com/papervault/papervault-api/internal/handler"
	"github.com/papervault/papervault-api/internal/middleware"
	"github.com/papervault/papervault-api/internal/models"
	"github.com/papervault/papervault-api/internal/repository"
	"github.com/papervault/papervault-api/internal/service"
	"github.com/papervault/papervault-api/pkg/cache"
	"github.com/papervault/papervault-api/pkg/config"
	"github.com/papervault/papervault-api/pkg/database"
	"github.com/papervault/papervault-api/pkg/jobs"
	"github.com/papervault/papervault-api/pkg/logger"
	corsmiddleware "github.com/papervault/papervault-api/pkg/middleware/cors"
	reqidmiddleware "github.com/papervault/papervault-api/pkg/middleware/requestid"
	"github.com/papervault/papervault-api/pkg/storage"
)

// @title PaperVault API
// @version 1.0.0
// @description Question paper catalogue with ratings, bookmarks and study tools
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching and live comments disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	paperRepo := repository.NewPaperRepository(db)
	ratingRepo := repository.NewRatingRepository(db)
	bookmarkRepo := repository.NewBookmarkRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	suggestionRepo := repository.NewSuggestionRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)

	var cacheSvc *service.CacheService
	if redisClient != nil && cfg.Cache.Enabled {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.FacetTTL, logr, true)
	}

	uploadStore, err := storage.NewLocalStorage(cfg.Uploads.StorageDir, cfg.Uploads.PublicBaseURL)
	if err != nil {
		logr.Sugar().Fatalw("upload storage init failed", "error", err)
	}

	// Services.
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "papervault-api",
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	paperSvc := service.NewPaperService(paperRepo, bookmarkRepo, uploadStore, cacheSvc, validate, logr, service.PaperServiceConfig{
		MaxFileSizeBytes: cfg.Uploads.MaxFileSizeBytes,
		AllowedMIMEs:     cfg.Uploads.AllowedMIMEs,
		FacetCacheTTL:    cfg.Cache.FacetTTL,
	})
	ratingSvc := service.NewRatingService(ratingRepo, logr)
	bookmarkSvc := service.NewBookmarkService(bookmarkRepo, userRepo, paperRepo, logr)
	commentSvc := service.NewCommentService(commentRepo, paperRepo, redisClient, validate, logr)
	suggestionSvc := service.NewSuggestionService(suggestionRepo, validate, logr)
	calculatorSvc := service.NewCalculatorService(logr)

	assistSvc, err := service.NewAssistService(ctx, cfg.Assist.APIKey, validate, logr, service.AssistServiceConfig{
		Enabled: cfg.Assist.Enabled,
		Model:   cfg.Assist.Model,
		Timeout: cfg.Assist.Timeout,
	})
	if err != nil {
		logr.Sugar().Fatalw("assist service init failed", "error", err)
	}

	var exportJobSvc *service.ExportJobService
	if cfg.Exports.Enabled {
		exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir, "")
		if err != nil {
			logr.Sugar().Fatalw("export storage init failed", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exporter := service.NewExportService(exportStore, signer)

		exportQueue := jobs.NewQueue("catalogue-exports", func(ctx context.Context, job jobs.Job) error {
			return exportJobSvc.ProcessJob(ctx, job)
		}, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
		})
		exportQueue.Start(ctx)
		defer exportQueue.Stop()

		exportJobSvc = service.NewExportJobService(exportJobRepo, paperRepo, exportQueue, exporter, logr, service.ExportJobServiceConfig{
			ResultTTL:        cfg.Exports.SignedURLTTL,
			CleanupInterval:  cfg.Exports.CleanupInterval,
			DownloadBasePath: cfg.APIPrefix + "/exports/download",
		})
		exportJobSvc.RecoverPendingJobs(ctx)
		exportJobSvc.StartCleanup(ctx)
	}

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	paperHandler := handler.NewPaperHandler(paperSvc)
	ratingHandler := handler.NewRatingHandler(ratingSvc, metricsSvc)
	bookmarkHandler := handler.NewBookmarkHandler(bookmarkSvc)
	commentHandler := handler.NewCommentHandler(commentSvc, userSvc)
	suggestionHandler := handler.NewSuggestionHandler(suggestionSvc)
	assistHandler := handler.NewAssistHandler(assistSvc)
	calculatorHandler := handler.NewCalculatorHandler(calculatorSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

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

	r.Static("/files", cfg.Uploads.StorageDir)

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		}

		papers := api.Group("/papers")
		{
			papers.GET("", middleware.OptionalJWT(authSvc), paperHandler.List)
			papers.GET("/:id", middleware.OptionalJWT(authSvc), paperHandler.Get)
			papers.POST("", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin), paperHandler.Upload)

			papers.POST("/:id/ratings", middleware.JWT(authSvc), ratingHandler.Submit)
			papers.GET("/:id/ratings/me", middleware.JWT(authSvc), ratingHandler.Mine)
			papers.POST("/:id/bookmark", middleware.JWT(authSvc), bookmarkHandler.Toggle)

			papers.GET("/:id/comments", commentHandler.List)
			papers.POST("/:id/comments", middleware.JWT(authSvc), commentHandler.Create)
			papers.GET("/:id/comments/stream", commentHandler.Stream)
		}

		// Legacy upload surface kept for older clients.
		api.POST("/upload", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin), paperHandler.UploadCompat)

		me := api.Group("/me", middleware.JWT(authSvc))
		{
			me.GET("", userHandler.Me)
			me.PATCH("", userHandler.UpdateProfile)
			me.GET("/bookmarks", bookmarkHandler.List)
		}

		api.PATCH("/users/:id/role", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin), userHandler.UpdateRole)

		suggestions := api.Group("/suggestions")
		{
			suggestions.POST("", middleware.OptionalJWT(authSvc), suggestionHandler.Create)
			suggestions.GET("", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin), suggestionHandler.List)
			suggestions.POST("/:id/read", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin), suggestionHandler.MarkRead)
		}

		assist := api.Group("/assist", middleware.JWT(authSvc))
		{
			assist.POST("/explain", assistHandler.Explain)
			assist.POST("/topics", assistHandler.Topics)
			assist.POST("/questions", assistHandler.Questions)
			assist.POST("/study-plan", assistHandler.StudyPlan)
		}

		api.POST("/tools/calculate", calculatorHandler.Calculate)

		if exportJobSvc != nil {
			exportHandler := handler.NewExportHandler(exportJobSvc)
			exports := api.Group("/exports")
			{
				exports.POST("", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin), exportHandler.Create)
				exports.GET("/download", exportHandler.Download)
				exports.GET("/:id", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin), exportHandler.Status)
			}
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
