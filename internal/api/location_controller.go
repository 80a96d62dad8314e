package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kgkhs001/BrighamWomensApp/internal/service"
)

// LocationController 位置目录控制器
type LocationController struct {
	locationService service.LocationService
}

// NewLocationController 创建位置目录控制器
func NewLocationController(locationService service.LocationService) *LocationController {
	return &LocationController{locationService: locationService}
}

// List 列出全部位置
func (c *LocationController) List(ctx *gin.Context) {
	locations, err := c.locationService.List(ctx.Request.Context())
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, locations)
}

// Resolve 按全称解析位置
func (c *LocationController) Resolve(ctx *gin.Context) {
	location, err := c.locationService.Resolve(ctx.Request.Context(), ctx.Query("name"))
	if err != nil {
		RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, location)
}
