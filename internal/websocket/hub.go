package websocket

import (
	"context"
	"sync"

	"github.com/kgkhs001/BrighamWomensApp/internal/model"
)

const broadcastQueueSize = 256

// invalidation 一条已编码的列表失效事件
type invalidation struct {
	requestType model.RequestType
	payload     []byte
}

// Hub 管理看板连接，按请求类型分发失效事件
type Hub struct {
	subscribers map[*Subscriber]struct{}
	mu          sync.RWMutex

	broadcast chan invalidation
	joins     chan *Subscriber
	leaves    chan *Subscriber

	// Run 退出后关闭
	done chan struct{}
}

// NewHub 创建 Hub
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[*Subscriber]struct{}),
		broadcast:   make(chan invalidation, broadcastQueueSize),
		joins:       make(chan *Subscriber),
		leaves:      make(chan *Subscriber),
		done:        make(chan struct{}),
	}
}

// Run 运行 Hub，ctx 取消后关闭全部连接并返回
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for s := range h.subscribers {
				delete(h.subscribers, s)
				close(s.send)
			}
			h.mu.Unlock()
			return

		case s := <-h.joins:
			h.mu.Lock()
			h.subscribers[s] = struct{}{}
			h.mu.Unlock()

		case s := <-h.leaves:
			h.remove(s)

		case msg := <-h.broadcast:
			h.dispatch(msg)
		}
	}
}

// dispatch 只投递给订阅了该类型的连接，发送队列已满的慢连接被断开
func (h *Hub) dispatch(msg invalidation) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subscribers {
		if !s.Wants(msg.requestType) {
			continue
		}
		select {
		case s.send <- msg.payload:
		default:
			close(s.send)
			delete(h.subscribers, s)
		}
	}
}

// Publish 非阻塞发布某类型的失效事件，队列满时丢弃并返回 false
func (h *Hub) Publish(requestType model.RequestType, payload []byte) bool {
	select {
	case h.broadcast <- invalidation{requestType: requestType, payload: payload}:
		return true
	default:
		return false
	}
}

// join 注册连接，Hub 已停止时返回 false
func (h *Hub) join(s *Subscriber) bool {
	select {
	case h.joins <- s:
		return true
	case <-h.done:
		return false
	}
}

// leave 注销连接，Hub 已停止时直接返回
func (h *Hub) leave(s *Subscriber) {
	select {
	case h.leaves <- s:
	case <-h.done:
	}
}

func (h *Hub) remove(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subscribers[s]; ok {
		delete(h.subscribers, s)
		close(s.send)
	}
}

// HasSubscriber 检查连接是否存在
func (h *Hub) HasSubscriber(id string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subscribers {
		if s.ID == id {
			return true
		}
	}
	return false
}

// SubscriberCount 订阅某类型的连接数，不传类型时返回全部连接数
func (h *Hub) SubscriberCount(types ...model.RequestType) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(types) == 0 {
		return len(h.subscribers)
	}
	n := 0
	for s := range h.subscribers {
		for _, t := range types {
			if s.Wants(t) {
				n++
				break
			}
		}
	}
	return n
}
