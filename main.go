package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"catalog-feed-service/controllers"
	"catalog-feed-service/database"
	"catalog-feed-service/fetcher"
	"catalog-feed-service/progress"
	"catalog-feed-service/repository"
	"catalog-feed-service/routes"
	"catalog-feed-service/scheduler"
	servicepkg "catalog-feed-service/services"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	if err := database.Connect(logger); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close() //nolint:errcheck

	// DI chain
	feedFetcher := fetcher.New(&http.Client{})
	feedFetcher.SetTimeout(cfg.FetchTimeout)
	feedFetcher.SetMaxBytes(cfg.UploadMaxBytes)
	catalogRepo := repository.NewGormCatalogRepository(database.DB)
	tracker := progress.NewTracker(cfg.ProgressRetention)
	ingestService := servicepkg.NewIngestService(catalogRepo, feedFetcher, tracker, cfg.RefreshInterval, logger)
	registryService := servicepkg.NewRegistryService(catalogRepo, ingestService, logger)
	feedController := controllers.NewFeedController(ingestService, registryService, tracker)
	feedController.SetMaxUploadBytes(cfg.UploadMaxBytes)

	// Background loops: scheduled feed sweeps and progress cell eviction
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	sched := scheduler.New(catalogRepo, ingestService, logger)
	sched.SetInterval(cfg.RefreshInterval)
	go sched.Run(bgCtx)
	go tracker.Run(bgCtx)

	r := gin.New()
	r.Use(gin.Recovery())

	// Global request-logging middleware
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", duration),
		)
	})

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{getEnv("CORS_ORIGIN", "http://localhost:3000")},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "catalog-feed-service"})
	})

	routes.RegisterFeedRoutes(r, feedController)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	logger.Info("Catalog feed service started", zap.String("port", cfg.Port))
	<-quit
	logger.Info("Shutting down catalog feed service...")

	bgCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited cleanly")
}
