package api

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kgkhs001/BrighamWomensApp/internal/utils"
)

const (
	// RequestIDHeader 请求 ID 头
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey gin 上下文中的请求 ID 键
	RequestIDKey = "request_id"
)

// RequestIDMiddleware 生成或透传请求 ID，并写入请求元数据
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.New().String()
		}

		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(utils.WithRequestMeta(c.Request.Context(), utils.RequestMeta{
			RequestID: requestID,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}))

		c.Next()
	}
}
