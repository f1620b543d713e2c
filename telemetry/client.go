package telemetry

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// client wraps one subscriber's websocket connection and its outgoing
// event buffer. Read/write pumps mirror the teacher's publishEleUpdates:
// a dedicated goroutine drives ws.ReadMessage so pong control frames are
// processed, while the write pump owns all writes to the connection
// (gorilla/websocket forbids concurrent writers).
type client struct {
	hub  *Hub
	ws   *websocket.Conn
	send chan Event

	closeOnce sync.Once
}

func newClient(hub *Hub, ws *websocket.Conn) *client {
	return &client{hub: hub, ws: ws, send: make(chan Event, clientSendBuffer)}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		if c.ws == nil {
			return
		}
		_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		_ = c.ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = c.ws.Close()
	})
}

// readPump discards incoming client messages but keeps ReadMessage
// running so pong frames update the connection's read deadline, exactly
// as gorilla/websocket requires for liveness detection.
func (c *client) readPump() {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			c.hub.unregister <- c
			return
		}
	}
}

// writePump serializes every write to the connection: published events as
// JSON text frames, and periodic pings on pingPeriod per the teacher's
// writeWait/pingPeriod constants.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case event, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteJSON(event); err != nil {
				c.hub.unregister <- c
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.unregister <- c
				return
			}
		}
	}
}
