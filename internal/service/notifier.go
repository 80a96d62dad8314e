package service

import "github.com/kgkhs001/BrighamWomensApp/internal/model"

// 请求事件类型
const (
	EventCreated       = "created"
	EventStatusChanged = "status_changed"
	EventDeleted       = "deleted"
)

// RequestEvent 列表失效通知，客户端据此只刷新受影响的列表
type RequestEvent struct {
	Event       string            `json:"event"`
	RequestType model.RequestType `json:"requestType"`
	ID          uint              `json:"id"`
	Status      model.Status      `json:"status,omitempty"`
}

// Notifier 事件推送
type Notifier interface {
	Notify(event RequestEvent)
}

// notify nil 安全的事件推送
func notify(n Notifier, event RequestEvent) {
	if n != nil {
		n.Notify(event)
	}
}
