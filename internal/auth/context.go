package auth

import (
	"context"

	"github.com/gin-gonic/gin"
)

type claimsKey struct{}

// ContextWithClaims 将已校验的声明写入 context
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext 读取已校验的声明
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok && claims != nil
}

// UserIDFromContext 当前用户 ID，未认证时为空
func UserIDFromContext(ctx context.Context) string {
	if claims, ok := ClaimsFromContext(ctx); ok {
		return claims.Subject
	}
	return ""
}

// GetUserID 从 gin 上下文读取用户 ID
func GetUserID(c *gin.Context) string {
	return c.GetString("user_id")
}
