package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"devfolio/internal/auth"
)

const (
	userIDKey             = "userID"
	mustChangePasswordKey = "mustChangePassword"
)

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"data": nil, "error": "unauthorized"})
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireAuth 校验访问令牌并将 userID 注入上下文，失败即 401。
func RequireAuth(authService *auth.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abortUnauthorized(c)
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil || claims.TokenType != "access" {
			abortUnauthorized(c)
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(mustChangePasswordKey, claims.MustChangePassword)
		c.Next()
	}
}

// OptionalAuth 尝试解析访问令牌；无令牌或令牌无效时继续以匿名身份处理。
// 列表与单条读取接口用它来决定可见性下限。
func OptionalAuth(authService *auth.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if claims, err := authService.ValidateToken(token); err == nil && claims.TokenType == "access" {
				c.Set(userIDKey, claims.UserID)
				c.Set(mustChangePasswordKey, claims.MustChangePassword)
			}
		}
		c.Next()
	}
}

// UserID 返回上下文中的用户 ID，匿名请求返回 ("", false)。
func UserID(c *gin.Context) (string, bool) {
	value, exists := c.Get(userIDKey)
	if !exists {
		return "", false
	}
	id, ok := value.(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
