package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/kgkhs001/BrighamWomensApp/internal/model"
	"github.com/kgkhs001/BrighamWomensApp/internal/service"
)

// Event 列表失效事件
type Event = service.RequestEvent

// Events 订阅 /ws/requests，只接收 types 中的类型（为空时接收全部）
// 返回的通道在连接断开或 ctx 取消后关闭
func (c *Client) Events(ctx context.Context, types ...model.RequestType) (<-chan Event, error) {
	target, err := url.Parse(c.baseURL + "/ws/requests")
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	target.Scheme = strings.Replace(target.Scheme, "http", "ws", 1)

	query := target.Query()
	for _, t := range types {
		query.Add("type", t.Route())
	}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get token: %w", err)
		}
		query.Set("token", token)
	}
	target.RawQuery = query.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, target.String(), nil)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			return nil, decodeAPIError(resp)
		}
		return nil, fmt.Errorf("failed to connect to %s: %w", target.Path, err)
	}

	events := make(chan Event, 16)
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	go func() {
		defer close(events)
		defer conn.Close()
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var event Event
			if err := json.Unmarshal(message, &event); err != nil {
				c.logger.WithError(err).Warn("ignoring malformed request event")
				continue
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}
