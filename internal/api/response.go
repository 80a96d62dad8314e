package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kgkhs001/BrighamWomensApp/internal/auth"
	"github.com/kgkhs001/BrighamWomensApp/internal/form"
	"github.com/kgkhs001/BrighamWomensApp/internal/service"
)

// 错误类型，写入 ErrorResponse.Error，客户端据此决定是否重试
const (
	KindBadRequest = "bad_request"
	KindValidation = "validation"
	KindNotFound   = "not_found"
	KindAuth       = "auth"
	KindStorage    = "storage"
	KindRateLimit  = "rate_limited"
	KindInternal   = "internal"
)

// Response 统一响应格式
type Response struct {
	Code    int         `json:"code"`    // 状态码: 0 表示成功,非 0 表示失败
	Message string      `json:"message"` // 响应消息
	Data    interface{} `json:"data"`    // 响应数据
}

// ErrorResponse 错误响应格式
type ErrorResponse struct {
	Code      int               `json:"code"`             // HTTP 状态码
	Error     string            `json:"error"`            // 错误类型
	Message   string            `json:"message"`          // 错误消息
	Detail    string            `json:"detail,omitempty"` // 错误详情(可选)
	Fields    []form.FieldError `json:"fields,omitempty"` // 字段校验错误
	Retryable bool              `json:"retryable"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, kind string, message string, detail string) {
	statusCode := http.StatusInternalServerError
	if code >= 400 && code < 600 {
		statusCode = code
	}

	c.AbortWithStatusJSON(statusCode, ErrorResponse{
		Code:      statusCode,
		Error:     kind,
		Message:   message,
		Detail:    detail,
		Retryable: kind == KindStorage || kind == KindAuth || kind == KindRateLimit,
	})
}

// RespondError 按错误分类写出响应
func RespondError(c *gin.Context, err error) {
	var validationErr *form.ValidationError
	var notFoundErr *service.NotFoundError
	var storageErr *service.StorageError
	var authErr *auth.AuthError
	var apiErr *APIError

	switch {
	case errors.As(err, &validationErr):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, ErrorResponse{
			Code:    http.StatusUnprocessableEntity,
			Error:   KindValidation,
			Message: "validation failed",
			Detail:  validationErr.Error(),
			Fields:  validationErr.Fields,
		})
	case errors.As(err, &notFoundErr):
		Error(c, http.StatusNotFound, KindNotFound, notFoundErr.Resource+" not found", notFoundErr.Error())
	case errors.As(err, &authErr):
		Error(c, http.StatusUnauthorized, KindAuth, authErr.Reason, authErr.Error())
	case errors.As(err, &storageErr):
		_ = c.Error(err)
		Error(c, http.StatusInternalServerError, KindStorage, "storage failure", storageErr.Op)
	case errors.As(err, &apiErr):
		Error(c, apiErr.Code, apiErr.Kind, apiErr.Message, apiErr.Detail)
	default:
		_ = c.Error(err)
		Error(c, http.StatusInternalServerError, KindInternal, "internal server error", "")
	}
}
