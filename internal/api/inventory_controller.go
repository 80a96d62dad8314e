package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kgkhs001/BrighamWomensApp/internal/service"
)

// InventoryController 库存控制器
type InventoryController struct {
	inventoryService service.InventoryService
}

// NewInventoryController 创建库存控制器
func NewInventoryController(inventoryService service.InventoryService) *InventoryController {
	return &InventoryController{inventoryService: inventoryService}
}

// List 列出库存，可按 type 过滤
func (c *InventoryController) List(ctx *gin.Context) {
	items, err := c.inventoryService.List(ctx.Request.Context(), ctx.Query("type"))
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, items)
}

// GetNum 查询库存数量，响应 {"quant": 3, "lowStock": true, "threshold": 10}
func (c *InventoryController) GetNum(ctx *gin.Context) {
	level, err := c.inventoryService.CheckStock(ctx.Request.Context(), ctx.Query("name"))
	if err != nil {
		RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, level)
}
