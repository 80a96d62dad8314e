package api

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kgkhs001/BrighamWomensApp/internal/form"
	"github.com/kgkhs001/BrighamWomensApp/internal/model"
	"github.com/kgkhs001/BrighamWomensApp/internal/repository"
	"github.com/kgkhs001/BrighamWomensApp/internal/service"
)

const (
	maxPageSize     = 500
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// RequestController 看板控制器（跨类型）
type RequestController struct {
	requestService service.RequestService
}

// NewRequestController 创建看板控制器
func NewRequestController(requestService service.RequestService) *RequestController {
	return &RequestController{requestService: requestService}
}

// List 列出全部通用记录（带位置全称）
func (c *RequestController) List(ctx *gin.Context) {
	filter, err := parseFilter(ctx)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	rows, total, err := c.requestService.List(ctx.Request.Context(), filter)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	ctx.Header(TotalCountHeader, strconv.FormatInt(total, 10))
	ctx.JSON(http.StatusOK, rows)
}

// Get 获取单条通用记录
func (c *RequestController) Get(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	req, err := c.requestService.Get(ctx.Request.Context(), id)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, req)
}

// UpdateStatus 更新状态，请求体 {"id": 1, "status": "Assigned"}
func (c *RequestController) UpdateStatus(ctx *gin.Context) {
	var req service.UpdateStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		RespondError(ctx, BadRequest("invalid request body", err))
		return
	}

	if err := c.requestService.UpdateStatus(ctx.Request.Context(), &req); err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, gin.H{"id": req.ID, "status": req.Status})
}

// Delete 删除通用记录及其明细
func (c *RequestController) Delete(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	if err := c.requestService.Delete(ctx.Request.Context(), id); err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, gin.H{"id": id})
}

// History 状态变更历史
func (c *RequestController) History(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	histories, err := c.requestService.History(ctx.Request.Context(), id)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, histories)
}

// Export 导出 xlsx
func (c *RequestController) Export(ctx *gin.Context) {
	filter, err := parseFilter(ctx)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	filter.Page, filter.PageSize = 0, 0

	var buf bytes.Buffer
	if err := c.requestService.Export(ctx.Request.Context(), &buf, filter); err != nil {
		RespondError(ctx, err)
		return
	}

	filename := "service-requests-" + time.Now().Format("20060102-150405") + ".xlsx"
	ctx.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	ctx.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// parseID 解析路径中的记录 ID，失败时写出 400
func parseID(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil || id == 0 {
		RespondError(ctx, BadRequest("invalid id", err))
		return 0, false
	}
	return uint(id), true
}

// parseFilter 解析列表过滤和分页参数
func parseFilter(ctx *gin.Context) (repository.RequestFilter, error) {
	var filter repository.RequestFilter

	if raw := ctx.Query("type"); raw != "" {
		t := model.RequestType(raw)
		if !t.Valid() {
			var ok bool
			if t, ok = model.RequestTypeFromRoute(raw); !ok {
				return filter, form.Invalid("type", "oneof", "is not a known request type")
			}
		}
		filter.Type = t
	}
	if raw := ctx.Query("status"); raw != "" {
		filter.Status = model.Status(raw)
		if !filter.Status.Valid() {
			return filter, form.Invalid("status", "status", "must be one of: Unassigned, Assigned, InProgress, Closed")
		}
	}
	if raw := ctx.Query("priority"); raw != "" {
		filter.Priority = model.Priority(raw)
		if !filter.Priority.Valid() {
			return filter, form.Invalid("priority", "priority", "must be one of: Low, Medium, High, Emergency")
		}
	}

	page, err := queryInt(ctx, "page")
	if err != nil {
		return filter, err
	}
	pageSize, err := queryInt(ctx, "page_size")
	if err != nil {
		return filter, err
	}
	if page > 0 && pageSize == 0 {
		pageSize = 50
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	filter.Page, filter.PageSize = page, pageSize
	return filter, nil
}

func queryInt(ctx *gin.Context, key string) (int, error) {
	raw := ctx.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, BadRequest("invalid "+key, err)
	}
	return v, nil
}
