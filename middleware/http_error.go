package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/quantrisk/response"
)

// HTTPErrorHandler 处理器通过 c.Error 登记错误且尚未写响应时，统一输出错误响应。
func HTTPErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}
		response.Error(c, c.Errors.Last().Err)
	}
}
