package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kgkhs001/BrighamWomensApp/internal/auth"
	"github.com/kgkhs001/BrighamWomensApp/internal/config"
	"github.com/kgkhs001/BrighamWomensApp/internal/service"
	"github.com/kgkhs001/BrighamWomensApp/internal/websocket"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RouterDeps 路由依赖
type RouterDeps struct {
	Config    *config.Config
	Logger    *logrus.Logger
	DB        *gorm.DB
	Hub       *websocket.Hub
	Validator auth.TokenValidator // 为 nil 时不校验令牌（auth.disabled）

	Pipelines *service.Pipelines
	Requests  service.RequestService
	Locations service.LocationService
	Inventory service.InventoryService
}

// SetupRoutes 配置路由
func SetupRoutes(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	router := gin.New()

	// 中间件
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogMiddleware(logger))
	if cfg.Tracing.Endpoint != "" {
		router.Use(TracingMiddleware(cfg.Tracing.ServiceName))
	}
	router.Use(CORSMiddleware(cfg.CORS))
	router.Use(SecurityHeadersMiddleware(config.IsProduction(cfg)))
	router.Use(RateLimitMiddleware(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))
	if cfg.Server.RequestTimeout > 0 {
		router.Use(TimeoutMiddleware(time.Duration(cfg.Server.RequestTimeout) * time.Second))
	}
	router.Use(ErrorHandlerMiddleware())

	// 健康检查
	healthController := NewHealthController(deps.DB)
	router.GET("/health", healthController.Check)

	// Prometheus 指标端点
	router.GET("/metrics", MetricsHandler)

	// WebSocket 路由（列表失效通知）
	if deps.Hub != nil {
		router.GET("/ws/requests", websocket.WebSocketHandler(deps.Hub, deps.Validator))
	}

	apiGroup := router.Group("/api")
	apiGroup.Use(auth.BearerAuthMiddleware(deps.Validator))
	{
		// 各请求类型的提交与列表
		if p := deps.Pipelines; p != nil {
			registerForm(apiGroup, p.Medicine)
			registerForm(apiGroup, p.MedicalDevice)
			registerForm(apiGroup, p.LostAndFound)
			registerForm(apiGroup, p.Sanitation)
			registerForm(apiGroup, p.LangInterpreter)
			registerForm(apiGroup, p.Flower)
		}

		// 看板
		if deps.Requests != nil {
			requestController := NewRequestController(deps.Requests)
			fetchAll := apiGroup.Group("/fetchAll")
			{
				fetchAll.GET("", requestController.List)
				fetchAll.GET("/export", requestController.Export)
				fetchAll.GET("/:id", requestController.Get)
				fetchAll.GET("/:id/history", requestController.History)
				fetchAll.POST("/update", requestController.UpdateStatus)
				fetchAll.DELETE("/:id", requestController.Delete)
			}
		}

		// 位置目录
		if deps.Locations != nil {
			locationController := NewLocationController(deps.Locations)
			apiGroup.GET("/locations", locationController.List)
			apiGroup.GET("/locations/resolve", locationController.Resolve)
		}

		// 库存
		if deps.Inventory != nil {
			inventoryController := NewInventoryController(deps.Inventory)
			apiGroup.GET("/inventory", inventoryController.List)
			apiGroup.GET("/inventory/getNum", inventoryController.GetNum)
		}
	}

	router.NoRoute(NotFoundHandler)

	return router
}
