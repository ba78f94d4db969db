package routes

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/princeprakhar/biz-directory/internal/api/handlers"
	"github.com/princeprakhar/biz-directory/internal/api/middleware"
	"github.com/princeprakhar/biz-directory/internal/config"
	"github.com/princeprakhar/biz-directory/internal/repository"
	"github.com/princeprakhar/biz-directory/internal/services"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	"gorm.io/gorm"
)

// Dependencies are the process-level collaborators main builds once and the
// routes share.
type Dependencies struct {
	Log          logrus.FieldLogger
	Dispatcher   *services.Dispatcher
	LimiterStore limiter.Store
	AdminHash    []byte
	Logos        services.LogoUploader
	Notifier     services.Notifier
	Pinger       services.SitemapPinger
}

func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, deps Dependencies) error {
	log := deps.Log

	writeRate, err := limiter.NewRateFromFormatted(cfg.WriteRateLimit)
	if err != nil {
		return fmt.Errorf("parse WRITE_RATE_LIMIT %q: %w", cfg.WriteRateLimit, err)
	}

	// Reject request bodies carrying fields the DTOs do not declare.
	binding.EnableDecoderDisallowUnknownFields = true

	// Middleware
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Metrics())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.RateLimitMiddleware("global", deps.LimiterStore, middleware.GlobalRate(cfg), log))
	writeLimit := middleware.RouteRateLimitMiddleware("write", deps.LimiterStore, writeRate, log)

	// Initialize repositories and services
	businessRepo := repository.NewBusinessRepository(db)
	reviewRepo := repository.NewReviewRepository(db)

	businessService := services.NewBusinessService(businessRepo, deps.Logos, deps.Notifier, deps.Dispatcher, log)
	reviewService := services.NewReviewService(businessRepo, reviewRepo, deps.Dispatcher, log)
	duplicateService := services.NewDuplicateService(businessRepo, log)
	adminService := services.NewAdminService(businessRepo, reviewRepo, deps.Logos, deps.Notifier, deps.Pinger, deps.Dispatcher, log)
	seoService := services.NewSEOService(businessRepo, reviewService, cfg.BaseURL, cfg.SiteName)

	// Initialize handlers
	businessHandler := handlers.NewBusinessHandler(businessService, duplicateService, cfg.MaxLogoBytes)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	adminHandler := handlers.NewAdminHandler(adminService, reviewService, cfg.DispatchWorkers)
	seoHandler := handlers.NewSEOHandler(seoService)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			log.WithError(err).Error("health check: database unreachable")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "message": "Database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Server is running"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// SEO
	router.GET("/sitemap.xml", seoHandler.Sitemap)
	router.GET("/robots.txt", seoHandler.Robots)

	// API routes
	api := router.Group("/api/v1")

	// Business routes (public)
	businesses := api.Group("/businesses")
	{
		businesses.GET("", businessHandler.ListBusinesses)
		businesses.POST("", writeLimit, businessHandler.CreateBusiness)
		businesses.GET("/check-duplicates", businessHandler.CheckDuplicates)
		businesses.GET("/categories", businessHandler.GetCategories)
		businesses.GET("/cities", businessHandler.GetCities)
		businesses.GET("/:ref", businessHandler.GetBusiness)
		businesses.GET("/:ref/seo", seoHandler.GetMetadata)
		businesses.GET("/:ref/reviews", reviewHandler.GetBusinessReviews)
		businesses.POST("/:ref/reviews", writeLimit, reviewHandler.CreateReview)
	}

	// Admin routes
	admin := api.Group("/admin", middleware.AdminAuth(deps.AdminHash, log))
	{
		admin.GET("/dashboard", adminHandler.GetDashboard)
		admin.GET("/businesses", adminHandler.GetBusinesses)
		admin.PATCH("/businesses/status", adminHandler.UpdateStatus)
		admin.DELETE("/businesses/:id", adminHandler.DeleteBusiness)
		admin.POST("/ratings/recompute", adminHandler.RecomputeRatings)
	}

	log.Info("Routes initialized successfully")
	return nil
}
