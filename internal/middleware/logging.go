package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger returns middleware that logs every request with zap:
// method, path, status, latency, and client IP, leveled by status class.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		panic("RequestLogger requires a non-nil zap.Logger instance")
	}
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		logFields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status_code", statusCode),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		}
		if query != "" {
			logFields = append(logFields, zap.String("query", query))
		}
		if len(c.Errors) > 0 {
			logFields = append(logFields, zap.String("gin_errors", c.Errors.String()))
		}

		switch {
		case statusCode >= http.StatusInternalServerError:
			logger.Error("Incoming Request", logFields...)
		case statusCode >= http.StatusBadRequest:
			logger.Warn("Incoming Request", logFields...)
		default:
			logger.Info("Incoming Request", logFields...)
		}
	}
}
