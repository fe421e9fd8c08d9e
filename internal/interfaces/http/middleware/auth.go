// Package middleware 提供 HTTP 中间件
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"serial-story-api/pkg/logger"
	"serial-story-api/pkg/utils"
)

const (
	ctxUserID   = "user_id"
	ctxNickname = "nickname"
)

// AuthConfig 认证配置
type AuthConfig struct {
	// Secret JWT 密钥
	Secret string
	// Issuer JWT 签发者
	Issuer string
}

// Auth 要求携带有效的 Bearer Token
func Auth(cfg AuthConfig) gin.HandlerFunc {
	jwtManager := utils.NewJWTManager(cfg.Secret, cfg.Issuer)

	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}
		if msg := authenticate(c, jwtManager); msg != "" {
			abortUnauthorized(c, msg)
			return
		}
		c.Next()
	}
}

// OptionalAuth 读接口使用：有 Token 时解析身份，无 Token 时匿名放行
// 携带了无效 Token 仍然拒绝
func OptionalAuth(cfg AuthConfig) gin.HandlerFunc {
	jwtManager := utils.NewJWTManager(cfg.Secret, cfg.Issuer)

	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		if msg := authenticate(c, jwtManager); msg != "" {
			abortUnauthorized(c, msg)
			return
		}
		c.Next()
	}
}

// RequireUser 在 OptionalAuth 之后使用，要求已登录
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserIDFromGin(c) == "" {
			abortUnauthorized(c, "authentication required")
			return
		}
		c.Next()
	}
}

// authenticate 解析 Bearer Token 并注入用户信息，失败时返回错误信息
func authenticate(c *gin.Context, jwtManager *utils.JWTManager) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "invalid authorization format"
	}

	claims, err := jwtManager.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		if errors.Is(err, utils.ErrExpiredToken) {
			return "token expired"
		}
		return "invalid token"
	}
	if claims.Type != utils.TokenTypeAccess {
		return "invalid token type"
	}

	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxNickname, claims.Nickname)
	ctx := logger.WithContext(c.Request.Context(), logger.UserIDKey, claims.UserID)
	c.Request = c.Request.WithContext(ctx)
	return ""
}

// GetUserIDFromGin 当前登录用户 ID，匿名时为空
func GetUserIDFromGin(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// abortUnauthorized 终止请求并返回 401
func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":     http.StatusUnauthorized,
		"message":  msg,
		"trace_id": c.GetString("trace_id"),
	})
}
