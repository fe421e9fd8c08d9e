// Package middleware 提供 HTTP 中间件
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"serial-story-api/pkg/logger"
)

// AccessLog 请求访问日志，生成类接口耗时较长，按耗时分级
func AccessLog(slowThreshold time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", duration.Milliseconds(),
			"ip", c.ClientIP(),
			"book_id", c.Param("id"),
			"body_size", c.Writer.Size(),
		}

		switch {
		case c.Writer.Status() >= 500:
			logger.Warn(c.Request.Context(), "api request failed", args...)
		case slowThreshold > 0 && duration > slowThreshold:
			logger.Info(c.Request.Context(), "slow api request", args...)
		default:
			logger.Debug(c.Request.Context(), "api request", args...)
		}
	}
}
