package main

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ZanzyTHEbar/kratu/docs"
	"github.com/ZanzyTHEbar/kratu/internal/cache"
	apperrors "github.com/ZanzyTHEbar/kratu/internal/errors"
	"github.com/ZanzyTHEbar/kratu/internal/monitoring"
	"github.com/ZanzyTHEbar/kratu/internal/security"
)

// setupRouter registers middleware and routes
func setupRouter(s *server) *gin.Engine {
	r := gin.New()

	r.Use(s.compression.Handler())
	r.Use(apperrors.RecoveryHandler())
	r.Use(monitoring.MonitoringMiddleware(s.metrics, s.logger))
	r.Use(apperrors.ErrorHandler())
	r.Use(s.security.SecurityHeaders)
	r.Use(s.security.RequestTimeout)
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}))
	// Only the definition listing is stable enough to cache
	r.Use(cache.Middleware(s.store, s.metrics, "/signals"))

	r.GET("/health", s.handleHealth)
	r.GET("/stats", s.handleStats)
	r.GET("/signals", s.handleSignals)

	widgets := r.Group("/widgets")
	{
		widgets.GET("", s.handleListWidgets)
		widgets.POST("", s.security.ValidateContentType, s.security.LimitBody, s.handleCreateWidget)
		widgets.GET("/:id", s.handleGetWidget)
		widgets.DELETE("/:id", s.handleDestroyWidget)
		widgets.GET("/:id/ranking", s.handleRanking)
		widgets.GET("/:id/cells/:entity/:signal", s.handleCell)
		widgets.POST("/:id/headers/:signal/:event",
			s.limiter.EventRateLimitMiddleware(),
			s.security.ValidateContentType,
			s.security.LimitBody,
			s.handleHeaderEvent)
		widgets.POST("/:id/snapshots", s.handleSaveSnapshot)
	}

	r.GET("/snapshots", s.handleListSnapshots)
	r.GET("/snapshots/:id", s.handleGetSnapshot)
	r.DELETE("/snapshots/:id", s.handleDeleteSnapshot)

	r.GET("/ratelimit/status", s.limiter.HandleRateLimitStatus())
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if s.cfg.Admin.Secret != "" {
		admin := r.Group("/admin", security.RequireAdmin(s.cfg.Admin.Secret))
		{
			admin.DELETE("/ratelimit", s.limiter.HandleAdminInvalidateAll())
			admin.DELETE("/ratelimit/:ip", s.limiter.HandleAdminInvalidateIP())
			admin.DELETE("/cache", s.handleFlushCache)
		}
	}

	return r
}
