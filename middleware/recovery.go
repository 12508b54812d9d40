package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/quantrisk/contextx"
	"github.com/wyfcoding/quantrisk/response"
	"github.com/wyfcoding/quantrisk/tracing"
	"github.com/wyfcoding/quantrisk/xerrors"
)

// Recovery 捕获处理链中的 panic，返回 500 信封并把 panic 记录到日志和当前 Span。
// panic 内容只进日志，不回显给调用方。
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			ctx := c.Request.Context()
			err := xerrors.Internal("internal server error", fmt.Errorf("panic: %v", rec))
			tracing.SetError(ctx, err)

			logger.ErrorContext(ctx, "panic recovered",
				"panic", fmt.Sprint(rec),
				"request_id", contextx.GetRequestID(ctx),
				"method", c.Request.Method,
				"route", c.FullPath(),
				"path", c.Request.URL.Path,
				"stack", string(debug.Stack()),
			)

			c.Abort()
			response.Error(c, err)
		}()
		c.Next()
	}
}
