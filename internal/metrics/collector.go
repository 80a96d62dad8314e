package metrics

import (
	"context"
	"time"

	"github.com/kgkhs001/BrighamWomensApp/internal/model"
	"gorm.io/gorm"
)

// StatusCounter 按状态统计服务请求数量
type StatusCounter interface {
	CountByStatus(ctx context.Context) (map[model.Status]int64, error)
}

// Collector 指标收集器
type Collector struct {
	db       *gorm.DB
	counter  StatusCounter
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewCollector 创建指标收集器，counter 可以为 nil
func NewCollector(db *gorm.DB, counter StatusCounter, interval time.Duration) *Collector {
	ctx, cancel := context.WithCancel(context.Background())
	return &Collector{
		db:       db,
		counter:  counter,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start 启动指标收集器
func (c *Collector) Start() {
	go c.collect()
}

// Stop 停止指标收集器
func (c *Collector) Stop() {
	c.cancel()
	<-c.done
}

// CollectOnce 立即收集一次
func (c *Collector) CollectOnce(ctx context.Context) error {
	if err := UpdateDatabaseConnections(c.db); err != nil {
		return err
	}
	if c.counter == nil {
		return nil
	}
	counts, err := c.counter.CountByStatus(ctx)
	if err != nil {
		return err
	}
	for status, count := range counts {
		UpdateRequestsByStatus(string(status), float64(count))
	}
	return nil
}

// collect 定期收集指标
func (c *Collector) collect() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			_ = c.CollectOnce(c.ctx)
		}
	}
}
