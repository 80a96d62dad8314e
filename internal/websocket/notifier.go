package websocket

import (
	"github.com/goccy/go-json"
	"github.com/kgkhs001/BrighamWomensApp/internal/service"
	"github.com/sirupsen/logrus"
)

// RequestNotifier 将服务请求事件推送给订阅了该类型的看板连接
type RequestNotifier struct {
	hub    *Hub
	logger *logrus.Logger
}

// NewRequestNotifier 创建事件推送器
func NewRequestNotifier(hub *Hub, logger *logrus.Logger) *RequestNotifier {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RequestNotifier{hub: hub, logger: logger}
}

// Notify 推送事件，队列满时丢弃（客户端下次刷新时会拿到最新数据）
func (n *RequestNotifier) Notify(event service.RequestEvent) {
	message, err := json.Marshal(event)
	if err != nil {
		n.logger.WithError(err).Error("failed to encode request event")
		return
	}
	if !n.hub.Publish(event.RequestType, message) {
		n.logger.WithFields(logrus.Fields{
			"event": event.Event,
			"id":    event.ID,
		}).Warn("websocket broadcast queue full, dropping event")
	}
}

var _ service.Notifier = (*RequestNotifier)(nil)
