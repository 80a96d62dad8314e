package metrics

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

var (
	// API 请求计数器
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	// API 请求响应时间
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 服务请求创建数
	serviceRequestsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "service_requests_created_total",
			Help: "Total number of service requests submitted",
		},
		[]string{"type"},
	)

	// 状态更新数
	statusUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "service_request_status_updates_total",
			Help: "Total number of service request status updates",
		},
		[]string{"status"},
	)

	// 删除数
	serviceRequestsDeletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "service_requests_deleted_total",
			Help: "Total number of service requests deleted",
		},
		[]string{"type"},
	)

	// 低库存告警数
	lowStockAlertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_low_stock_alerts_total",
			Help: "Total number of low stock checks that fell at or below the threshold",
		},
		[]string{"item"},
	)

	// 数据库连接数
	databaseConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_active",
			Help: "Number of active database connections",
		},
	)

	databaseConnectionsIdle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	databaseConnectionsMax = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_max",
			Help: "Maximum number of database connections",
		},
	)

	// 服务请求状态分布
	requestsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "service_requests_by_status",
			Help: "Number of service requests by status",
		},
		[]string{"status"},
	)
)

var (
	once sync.Once
)

func init() {
	// 注册指标
	prometheus.MustRegister(apiRequestsTotal)
	prometheus.MustRegister(apiRequestDuration)
	prometheus.MustRegister(serviceRequestsCreatedTotal)
	prometheus.MustRegister(statusUpdatesTotal)
	prometheus.MustRegister(serviceRequestsDeletedTotal)
	prometheus.MustRegister(lowStockAlertsTotal)
	prometheus.MustRegister(databaseConnectionsActive)
	prometheus.MustRegister(databaseConnectionsIdle)
	prometheus.MustRegister(databaseConnectionsMax)
	prometheus.MustRegister(requestsByStatus)

	// 注册 Go 运行时指标（只注册一次）
	once.Do(func() {
		_ = prometheus.Register(prometheus.NewGoCollector())
		_ = prometheus.Register(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	})
}

// Handler 返回 Prometheus 指标处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAPIRequest 记录 API 请求
func RecordAPIRequest(method, path string, status int, duration float64) {
	statusText := http.StatusText(status)
	if statusText == "" {
		statusText = fmt.Sprintf("%d", status)
	}
	apiRequestsTotal.WithLabelValues(method, path, statusText).Inc()
	apiRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordRequestCreated 记录服务请求创建
func RecordRequestCreated(requestType string) {
	serviceRequestsCreatedTotal.WithLabelValues(requestType).Inc()
}

// RecordStatusUpdate 记录状态更新
func RecordStatusUpdate(status string) {
	statusUpdatesTotal.WithLabelValues(status).Inc()
}

// RecordRequestDeleted 记录服务请求删除
func RecordRequestDeleted(requestType string) {
	serviceRequestsDeletedTotal.WithLabelValues(requestType).Inc()
}

// RecordLowStock 记录低库存告警
func RecordLowStock(item string) {
	lowStockAlertsTotal.WithLabelValues(item).Inc()
}

// UpdateDatabaseConnections 更新数据库连接数指标
func UpdateDatabaseConnections(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	stats := sqlDB.Stats()
	databaseConnectionsActive.Set(float64(stats.OpenConnections - stats.Idle))
	databaseConnectionsIdle.Set(float64(stats.Idle))
	databaseConnectionsMax.Set(float64(stats.MaxOpenConnections))

	return nil
}

// UpdateRequestsByStatus 更新服务请求状态分布指标
func UpdateRequestsByStatus(status string, count float64) {
	requestsByStatus.WithLabelValues(status).Set(count)
}
