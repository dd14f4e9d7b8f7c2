package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/subnet-miner/internal/metrics"
	"github.com/ppiankov/subnet-miner/internal/worker"
)

// rateLimit rejects clients that exceed their per-IP token bucket
func rateLimit(limiter *worker.Limiter, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			if m != nil {
				m.Rejected("rate_limited")
			}
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "Rate limit exceeded",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// requestLogger logs each request at debug level, errors at warn
func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"client", c.ClientIP(),
			"duration", time.Since(start),
		}
		if status >= http.StatusBadRequest {
			log.Warn("request failed", attrs...)
			return
		}
		log.Debug("request", attrs...)
	}
}
