package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger 访问日志中间件，超过 slowThreshold 的请求以 Warn 级别输出。
// request_id 与 trace_id 由 logging.TraceHandler 从 Context 注入。
func Logger(logger *slog.Logger, slowThreshold time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		cost := time.Since(start)
		level := slog.LevelInfo
		switch {
		case c.Writer.Status() >= 500:
			level = slog.LevelError
		case slowThreshold > 0 && cost > slowThreshold:
			level = slog.LevelWarn
		}

		logger.Log(c.Request.Context(), level, "http request",
			"status", c.Writer.Status(),
			"method", c.Request.Method,
			"path", path,
			"query", query,
			"ip", c.ClientIP(),
			"cost", cost,
			"size", c.Writer.Size(),
			"errors", c.Errors.ByType(gin.ErrorTypePrivate).String(),
		)
	}
}
