package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kgkhs001/BrighamWomensApp/internal/form"
	"github.com/kgkhs001/BrighamWomensApp/internal/service"
)

const (
	// IdempotencyKeyHeader 客户端提交会话的幂等键
	IdempotencyKeyHeader = "Idempotency-Key"
	// ServiceRequestIDHeader 新建（或幂等命中）的通用记录 ID
	ServiceRequestIDHeader = "X-Service-Request-ID"
	// ReplayedHeader 幂等命中时为 true
	ReplayedHeader = "Idempotent-Replayed"
	// TotalCountHeader 列表总数
	TotalCountHeader = "X-Total-Count"
)

// FormController 单一请求类型的表单控制器
type FormController[D any, F form.Form[D]] struct {
	pipeline *service.Pipeline[D, F]
}

// NewFormController 创建表单控制器
func NewFormController[D any, F form.Form[D]](pipeline *service.Pipeline[D, F]) *FormController[D, F] {
	return &FormController[D, F]{pipeline: pipeline}
}

// Create 提交表单
// 成功时响应体为空，记录 ID 通过 X-Service-Request-ID 头返回
func (c *FormController[D, F]) Create(ctx *gin.Context) {
	f := c.pipeline.NewForm()
	if err := ctx.ShouldBindJSON(f); err != nil {
		RespondError(ctx, BadRequest("invalid request body", err))
		return
	}

	idempotencyKey := ctx.GetHeader(IdempotencyKeyHeader)
	if len(idempotencyKey) > 128 {
		RespondError(ctx, form.Invalid(IdempotencyKeyHeader, "max", "must be at most 128 characters"))
		return
	}

	result, err := c.pipeline.Submit(ctx.Request.Context(), f, idempotencyKey)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	ctx.Header(ServiceRequestIDHeader, strconv.FormatUint(uint64(result.ID), 10))
	if result.Replayed {
		ctx.Header(ReplayedHeader, "true")
	}
	ctx.Status(http.StatusOK)
}

// List 列出该类型的全部明细（含通用记录）
func (c *FormController[D, F]) List(ctx *gin.Context) {
	filter, err := parseFilter(ctx)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	filter.Type = c.pipeline.RequestType()

	rows, total, err := c.pipeline.List(ctx.Request.Context(), filter)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	ctx.Header(TotalCountHeader, strconv.FormatInt(total, 10))
	ctx.JSON(http.StatusOK, rows)
}

// registerForm 注册单一请求类型的路由
func registerForm[D any, F form.Form[D]](group *gin.RouterGroup, pipeline *service.Pipeline[D, F]) {
	controller := NewFormController(pipeline)
	path := "/" + pipeline.RequestType().Route()
	group.POST(path, controller.Create)
	group.GET(path, controller.List)
}
