package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/princeprakhar/biz-directory/internal/api/middleware"
	"github.com/princeprakhar/biz-directory/internal/api/routes"
	"github.com/princeprakhar/biz-directory/internal/config"
	"github.com/princeprakhar/biz-directory/internal/database"
	"github.com/princeprakhar/biz-directory/internal/services"
	"github.com/princeprakhar/biz-directory/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 20 * time.Second

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found")
	}

	// Initialize logger
	logger.Init()
	log := logger.L()

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration: ", err)
	}

	// Initialize database
	db, err := database.Init(cfg.DatabaseURL, database.LogLevelFor(cfg.LogLevel, cfg.IsProduction()))
	if err != nil {
		logger.Fatal("Failed to initialize database: ", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("Invalid REDIS_URL: ", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
	}
	limiterStore, err := middleware.NewLimiterStore(redisClient)
	if err != nil {
		logger.Fatal("Failed to initialize rate limiter: ", err)
	}

	adminHash, err := middleware.AdminSecretHash(cfg)
	if err != nil {
		logger.Fatal("Failed to prepare admin secret: ", err)
	}
	if adminHash == nil {
		logger.Warn("No admin secret configured, admin routes will reject every request")
	}

	logos, err := services.NewLogoStore(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize logo storage: ", err)
	}
	if !logos.Enabled() {
		logger.Warn("S3_BUCKET not set, logos will be ignored")
	}

	emailService := services.NewEmailService(cfg, log)
	if !emailService.Enabled() {
		logger.Warn("SMTP_HOST not set, notification emails are disabled")
	}

	pinger := services.NewSearchPinger(cfg.SearchPingURLs, cfg.BaseURL+"/sitemap.xml", nil, log)
	dispatcher := services.NewDispatcher(cfg.DispatchWorkers, cfg.DispatchQueueSize, cfg.SideEffectTimeout, log)

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	router := gin.New()

	// Setup routes
	if err := routes.SetupRoutes(router, db, cfg, routes.Dependencies{
		Log:          log,
		Dispatcher:   dispatcher,
		LimiterStore: limiterStore,
		AdminHash:    adminHash,
		Logos:        logos,
		Notifier:     emailService,
		Pinger:       pinger,
	}); err != nil {
		logger.Fatal("Failed to setup routes: ", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Server starting on port " + cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: ", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed: ", err)
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Error("Pending side effects were abandoned: ", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("Server stopped")
}
