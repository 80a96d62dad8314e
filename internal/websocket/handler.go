package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorillaWS "github.com/gorilla/websocket"
	"github.com/kgkhs001/BrighamWomensApp/internal/auth"
	"github.com/kgkhs001/BrighamWomensApp/internal/model"
)

var upgrader = gorillaWS.Upgrader{
	// 跨域由 CORS 配置控制，这里不再重复校验 Origin
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler 看板失效事件订阅
// 浏览器无法为 WebSocket 设置请求头，token 通过 query 参数传递；validator 为 nil 时不校验。
// type 参数可重复，取类型标签或路由名，省略时订阅全部类型
func WebSocketHandler(hub *Hub, validator auth.TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := ""
		if validator != nil {
			token := c.Query("token")
			if token == "" {
				token = auth.BearerToken(c.GetHeader("Authorization"))
			}
			if token == "" {
				c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "error": "auth", "message": "missing token", "retryable": true})
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "error": "auth", "message": "invalid token", "retryable": true})
				return
			}
			userID = claims.Subject
		}

		types, ok := parseTypes(c.QueryArray("type"))
		if !ok {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"code": http.StatusUnprocessableEntity, "error": "validation", "message": "unknown request type", "retryable": false})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade 已经写入了错误响应
			return
		}

		subscriber := NewSubscriber(uuid.New().String(), userID, hub, conn, types...)
		if !hub.join(subscriber) {
			conn.Close()
			return
		}

		go subscriber.readLoop()
		go subscriber.writeLoop()
	}
}

// parseTypes 解析订阅类型
func parseTypes(values []string) ([]model.RequestType, bool) {
	types := make([]model.RequestType, 0, len(values))
	for _, v := range values {
		if t := model.RequestType(v); t.Valid() {
			types = append(types, t)
			continue
		}
		t, ok := model.RequestTypeFromRoute(v)
		if !ok {
			return nil, false
		}
		types = append(types, t)
	}
	return types, true
}
