package container

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kgkhs001/BrighamWomensApp/internal/api"
	"github.com/kgkhs001/BrighamWomensApp/internal/auth"
	"github.com/kgkhs001/BrighamWomensApp/internal/config"
	"github.com/kgkhs001/BrighamWomensApp/internal/database"
	"github.com/kgkhs001/BrighamWomensApp/internal/metrics"
	"github.com/kgkhs001/BrighamWomensApp/internal/repository"
	"github.com/kgkhs001/BrighamWomensApp/internal/service"
	"github.com/kgkhs001/BrighamWomensApp/internal/websocket"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// metricsInterval 业务指标收集间隔
const metricsInterval = 30 * time.Second

// Container 依赖注入容器
// 管理所有应用依赖,包括数据库、服务、推送中心等
type Container struct {
	cfg       *config.Config
	logger    *logrus.Logger
	db        *gorm.DB
	hub       *websocket.Hub
	validator auth.TokenValidator
	collector *metrics.Collector
	watcher   *config.ConfigWatcher

	pipelines *service.Pipelines
	requests  service.RequestService
	locations service.LocationService
	inventory service.InventoryService

	cancel context.CancelFunc
}

// NewContainer 创建依赖注入容器
// 根据配置初始化所有依赖组件
func NewContainer(cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	service.SetLogger(logger)

	// 1. 初始化数据库（带重试机制）
	// 默认重试 3 次，初始间隔 1 秒，指数退避
	db, err := database.ConnectWithRetry(cfg.Database, logger, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// 执行数据库迁移
	if err := database.Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// 2. 初始化令牌校验器，auth.disabled 时为 nil
	validator, err := auth.NewValidator(cfg.Auth)
	if err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("failed to initialize token validator: %w", err)
	}
	if validator == nil {
		logger.Warn("authentication is disabled, api routes accept anonymous requests")
	}

	// 3. 初始化推送中心
	hub := websocket.NewHub()
	notifier := websocket.NewRequestNotifier(hub, logger)

	// 4. 初始化服务
	locations := service.NewLocationService(repository.NewLocationRepository(db))
	auditLogSvc := service.NewAuditLogService(repository.NewAuditLogRepository(db))
	pipelines := service.NewPipelines(service.Deps{
		DB:        db,
		Locations: locations,
		AuditLog:  auditLogSvc,
		Notifier:  notifier,
	})
	requests := service.NewRequestService(db, auditLogSvc, notifier, pipelines.DetailStores()...)
	inventory := service.NewInventoryService(repository.NewInventoryRepository(db), cfg.Inventory.LowStockThreshold)

	// 5. 初始化指标收集器
	collector := metrics.NewCollector(db, repository.NewServiceRequestRepository(db), metricsInterval)

	return &Container{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		hub:       hub,
		validator: validator,
		collector: collector,
		pipelines: pipelines,
		requests:  requests,
		locations: locations,
		inventory: inventory,
	}, nil
}

// Start 启动后台组件：推送中心和指标收集器
func (c *Container) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	go c.hub.Run(ctx)

	if err := c.collector.CollectOnce(ctx); err != nil {
		c.logger.WithError(err).Warn("initial metrics collection failed")
	}
	c.collector.Start()
}

// WatchConfig 监听配置文件，热更新日志级别和低库存阈值
func (c *Container) WatchConfig(configPath string) error {
	if configPath == "" {
		return nil
	}

	watcher := config.NewConfigWatcher(c.cfg, configPath)
	watcher.OnConfigChange(func(newCfg *config.Config) {
		api.SetLogLevel(c.logger, newCfg.Log.Level)
		c.inventory.SetLowStockThreshold(newCfg.Inventory.LowStockThreshold)
		c.logger.WithFields(logrus.Fields{
			"log_level":           newCfg.Log.Level,
			"low_stock_threshold": c.inventory.LowStockThreshold(),
		}).Info("configuration reloaded")
	})
	watcher.OnError(func(err error) {
		c.logger.WithError(err).Error("configuration reload rejected")
	})
	if err := watcher.Start(); err != nil {
		return err
	}
	c.watcher = watcher
	return nil
}

// Router 构建 HTTP 路由
func (c *Container) Router() *gin.Engine {
	return api.SetupRoutes(api.RouterDeps{
		Config:    c.cfg,
		Logger:    c.logger,
		DB:        c.db,
		Hub:       c.hub,
		Validator: c.validator,
		Pipelines: c.pipelines,
		Requests:  c.requests,
		Locations: c.locations,
		Inventory: c.inventory,
	})
}

// DB 获取数据库连接
func (c *Container) DB() *gorm.DB {
	return c.db
}

// Hub 获取推送中心
func (c *Container) Hub() *websocket.Hub {
	return c.hub
}

// Pipelines 获取提交流水线
func (c *Container) Pipelines() *service.Pipelines {
	return c.pipelines
}

// RequestService 获取看板服务
func (c *Container) RequestService() service.RequestService {
	return c.requests
}

// InventoryService 获取库存服务
func (c *Container) InventoryService() service.InventoryService {
	return c.inventory
}

// Close 关闭容器,清理资源
func (c *Container) Close() error {
	if c.watcher != nil {
		c.watcher.Stop()
	}
	if c.cancel != nil {
		c.cancel()
		c.collector.Stop()
	}
	return database.Close(c.db)
}
