package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"posdesk/pkg/logger"
)

// Logger middleware logs HTTP requests with timing and status.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"query", query,
			"status", status,
			"latency_ms", latency.Milliseconds(),
			"terminal_id", c.GetString("terminal_id"),
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			fields = append(fields, "error", errs)
		}

		// Polling endpoints would flood the log at info.
		if c.Request.Method == "GET" && status < 400 {
			log.WithContext(c.Request.Context()).Debugw("http request", fields...)
			return
		}
		log.WithContext(c.Request.Context()).Infow("http request", fields...)
	}
}
