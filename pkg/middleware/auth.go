package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// 鉴权结果在 gin context 中的键
const (
	UserIDKey    = "user_id"
	SessionIDKey = "session_id"
)

// TokenVerifier 校验令牌并返回其归属的用户与会话
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (userID uint, sessionID string, err error)
}

// GinAuthMiddleware 要求 Authorization: Bearer 令牌且对应会话仍然有效
func GinAuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		userID, sessionID, err := verifier.VerifyToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
			return
		}

		c.Set(UserIDKey, userID)
		c.Set(SessionIDKey, sessionID)
		c.Next()
	}
}

// CurrentUserID 读取鉴权中间件写入的用户 ID
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// CurrentSessionID 读取鉴权中间件写入的会话 ID
func CurrentSessionID(c *gin.Context) (string, bool) {
	v, ok := c.Get(SessionIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
