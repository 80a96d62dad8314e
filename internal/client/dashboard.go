package client

import (
	"context"
	"sync"

	"github.com/kgkhs001/BrighamWomensApp/internal/model"
	"github.com/kgkhs001/BrighamWomensApp/internal/repository"
	"github.com/sirupsen/logrus"
)

// DashboardAPI 看板使用的服务端接口，*Client 实现该接口
type DashboardAPI interface {
	FetchAll(ctx context.Context, filter repository.RequestFilter) ([]repository.RequestRow, error)
	UpdateStatus(ctx context.Context, id uint, status model.Status) error
	Delete(ctx context.Context, id uint) error
}

// Dashboard 待处理请求看板，按类型维护列表
// 变更只更新本地行，不重新加载整个看板
type Dashboard struct {
	api    DashboardAPI
	logger *logrus.Logger

	mu    sync.RWMutex
	lists map[model.RequestType][]repository.RequestRow
}

// NewDashboard 创建看板
func NewDashboard(api DashboardAPI, logger *logrus.Logger) *Dashboard {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Dashboard{
		api:    api,
		logger: logger,
		lists:  make(map[model.RequestType][]repository.RequestRow),
	}
}

// Load 加载全部列表
func (d *Dashboard) Load(ctx context.Context) error {
	rows, err := d.api.FetchAll(ctx, repository.RequestFilter{})
	if err != nil {
		return err
	}

	lists := make(map[model.RequestType][]repository.RequestRow)
	for _, row := range rows {
		lists[row.Type] = append(lists[row.Type], row)
	}

	d.mu.Lock()
	d.lists = lists
	d.mu.Unlock()
	return nil
}

// Rows 返回某类型列表的副本
func (d *Dashboard) Rows(requestType model.RequestType) []repository.RequestRow {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]repository.RequestRow(nil), d.lists[requestType]...)
}

// Invalidate 只重新获取该类型的列表
func (d *Dashboard) Invalidate(ctx context.Context, requestType model.RequestType) error {
	rows, err := d.api.FetchAll(ctx, repository.RequestFilter{Type: requestType})
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.lists[requestType] = rows
	d.mu.Unlock()
	return nil
}

// UpdateStatus 先更新本地行，服务端失败时回滚
func (d *Dashboard) UpdateStatus(ctx context.Context, id uint, status model.Status) error {
	requestType, previous, ok := d.setStatus(id, status)
	if !ok {
		return d.api.UpdateStatus(ctx, id, status)
	}

	if err := d.api.UpdateStatus(ctx, id, status); err != nil {
		d.setStatus(id, previous)
		d.logger.WithError(err).WithFields(logrus.Fields{
			"id":   id,
			"type": requestType,
		}).Warn("status update failed, rolled back")
		return err
	}
	return nil
}

// Delete 删除请求并移除本地行；服务端已不存在时同样移除
func (d *Dashboard) Delete(ctx context.Context, id uint) error {
	if err := d.api.Delete(ctx, id); err != nil && !IsNotFound(err) {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for requestType, rows := range d.lists {
		for i, row := range rows {
			if row.ID == id {
				d.lists[requestType] = append(rows[:i:i], rows[i+1:]...)
				return nil
			}
		}
	}
	return nil
}

// Follow 消费失效事件，直到 events 关闭或 ctx 取消
func (d *Dashboard) Follow(ctx context.Context, events <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if !event.RequestType.Valid() {
				continue
			}
			if err := d.Invalidate(ctx, event.RequestType); err != nil {
				d.logger.WithError(err).WithField("type", event.RequestType).Warn("failed to refresh list")
			}
		}
	}
}

// setStatus 修改本地行状态，返回原状态
func (d *Dashboard) setStatus(id uint, status model.Status) (model.RequestType, model.Status, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for requestType, rows := range d.lists {
		for i := range rows {
			if rows[i].ID == id {
				previous := rows[i].Status
				rows[i].Status = status
				return requestType, previous, true
			}
		}
	}
	return "", "", false
}
