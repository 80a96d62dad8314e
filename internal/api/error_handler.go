package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIError API 错误
type APIError struct {
	Code    int
	Kind    string
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	return e.Message
}

// BadRequest 请求格式错误（400），例如无法解析的 JSON
func BadRequest(message string, err error) *APIError {
	apiErr := &APIError{Code: http.StatusBadRequest, Kind: KindBadRequest, Message: message}
	if err != nil {
		apiErr.Detail = err.Error()
	}
	return apiErr
}

// ErrorHandlerMiddleware 错误处理中间件
// 处理器通过 c.Error 登记但尚未写出响应的错误在这里统一输出
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			RespondError(c, c.Errors.Last().Err)
		}
	}
}

// NotFoundHandler 未匹配路由返回 JSON 404
func NotFoundHandler(c *gin.Context) {
	Error(c, http.StatusNotFound, KindNotFound, "route not found", c.Request.Method+" "+c.Request.URL.Path)
}
