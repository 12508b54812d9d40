// Package middleware 提供 Gin 通用中间件：异常恢复、请求标识、访问日志、指标、限流、超时与请求体限制。
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wyfcoding/quantrisk/contextx"
)

const (
	HeaderXRequestID = "X-Request-ID"
)

// RequestID 透传或生成请求 ID，并将请求 ID、客户端 IP、UA 注入到请求 Context。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderXRequestID)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}

		ctx := contextx.WithRequestID(c.Request.Context(), requestID)
		ctx = contextx.WithIP(ctx, c.ClientIP())
		ctx = contextx.WithUserAgent(ctx, c.Request.UserAgent())
		c.Request = c.Request.WithContext(ctx)

		c.Header(HeaderXRequestID, requestID)

		c.Next()
	}
}
