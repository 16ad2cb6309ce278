package ratelimit

import (
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ZanzyTHEbar/kratu/internal/errors"
)

// HandleRateLimitStatus returns the header event limit for the requesting client
func (rl *RateLimiter) HandleRateLimitStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		backend := BackendMemory
		if rl.conn.Enabled() {
			backend = BackendRedis
		}

		c.JSON(http.StatusOK, gin.H{
			"ip": c.ClientIP(),
			"limits": gin.H{
				"header_events": gin.H{
					"limit":  rl.config.EventsPerMinute,
					"burst":  rl.config.Burst,
					"period": "1 minute",
				},
			},
			"backend":   backend,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

// HandleAdminInvalidateIP clears the header event limit of one client
func (rl *RateLimiter) HandleAdminInvalidateIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.Param("ip")
		if net.ParseIP(ip) == nil {
			apperrors.Abort(c, apperrors.NewValidationError("invalid IP address", ip))
			return
		}
		if err := rl.InvalidateIP(c.Request.Context(), ip); err != nil {
			apperrors.Abort(c, apperrors.NewInternalError("failed to reset rate limits", err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"reset": ip})
	}
}

// HandleAdminInvalidateAll clears the header event limit of every client
func (rl *RateLimiter) HandleAdminInvalidateAll() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := rl.InvalidateAll(c.Request.Context()); err != nil {
			apperrors.Abort(c, apperrors.NewInternalError("failed to reset rate limits", err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"reset": "all"})
	}
}
