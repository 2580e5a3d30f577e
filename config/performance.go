package config

import (
	"time"

	"whatsapp-notifier/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const slowRequestThreshold = 200 * time.Millisecond

func PerformanceLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
		}

		if latency > slowRequestThreshold {
			logger.Warn("Slow request", fields...)
			return
		}
		logger.Debug("Request served", fields...)
	}
}
