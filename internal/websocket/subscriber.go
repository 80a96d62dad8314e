package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/kgkhs001/BrighamWomensApp/internal/model"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// 看板只发送控制帧
	maxInboundSize = 4 * 1024

	sendQueueSize = 64
)

// Subscriber 一个看板连接，接收所订阅类型的列表失效事件
type Subscriber struct {
	ID     string
	UserID string

	hub   *Hub
	conn  *websocket.Conn
	types map[model.RequestType]bool // 为空表示订阅全部类型
	send  chan []byte
}

// NewSubscriber 创建订阅者，types 为空时接收全部类型
func NewSubscriber(id, userID string, hub *Hub, conn *websocket.Conn, types ...model.RequestType) *Subscriber {
	s := &Subscriber{
		ID:     id,
		UserID: userID,
		hub:    hub,
		conn:   conn,
		types:  make(map[model.RequestType]bool, len(types)),
		send:   make(chan []byte, sendQueueSize),
	}
	for _, t := range types {
		s.types[t] = true
	}
	return s
}

// Wants 是否订阅了该类型
func (s *Subscriber) Wants(requestType model.RequestType) bool {
	return len(s.types) == 0 || s.types[requestType]
}

// readLoop 只处理 pong 和关闭帧，连接断开后从 Hub 注销
func (s *Subscriber) readLoop() {
	defer func() {
		s.hub.leave(s)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxInboundSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).WithField("subscriber_id", s.ID).Warn("dashboard connection dropped")
			}
			return
		}
	}
}

// writeLoop 每个失效事件写一个文本帧，空闲时发送 ping
func (s *Subscriber) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case event, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, event); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
