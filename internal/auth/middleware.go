package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// BearerToken 从 Authorization 头中取出 Bearer 令牌
func BearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// BearerAuthMiddleware Bearer 令牌认证中间件
// validator 为 nil 时（认证关闭）直接放行
func BearerAuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if validator == nil {
			c.Next()
			return
		}

		token := BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			abortUnauthorized(c, authError("missing bearer token", nil))
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			abortUnauthorized(c, err)
			return
		}

		// 将用户信息存储到上下文
		c.Set("user_id", claims.Subject)
		c.Set("username", claims.PreferredUsername)
		c.Set("roles", claims.RealmAccess.Roles)
		c.Request = c.Request.WithContext(ContextWithClaims(c.Request.Context(), claims))

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, err error) {
	message := "unauthorized"
	if authErr, ok := err.(*AuthError); ok {
		message = authErr.Reason
	}
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":      http.StatusUnauthorized,
		"error":     "auth",
		"message":   message,
		"detail":    err.Error(),
		"retryable": true,
	})
}
