package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"LiveChart/pkg/logger"
)

// inbound is a viewer message: {"type":"hover","time":...} or
// {"type":"resize","width":...}.
type inbound struct {
	Type  string  `json:"type"`
	Time  float64 `json:"time"`
	Width int     `json:"width"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// queued events share one frame, newline separated
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(msg)
			n := len(c.send)
			for i := 0; i < n; i++ {
				next, ok := <-c.send
				if !ok {
					break
				}
				_, _ = w.Write([]byte{'\n'})
				_, _ = w.Write(next)
			}
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) readPump() {
	defer func() {
		c.hub.remove(c)
		_ = c.conn.Close()
		c.hub.logger.Debug("ws viewer disconnected")
	}()

	c.conn.SetReadLimit(maxInboundSz)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("ws read failed", logger.Error(err))
			}
			return
		}

		var msg inbound
		if json.Unmarshal(raw, &msg) != nil {
			continue
		}
		switch msg.Type {
		case "hover":
			if msg.Time >= 0 {
				// the tooltip reaches every viewer as a tooltip event
				_, _ = c.hub.ctrl.Hover(msg.Time)
			}
		case "resize":
			if msg.Width > 0 {
				c.hub.ctrl.Resize(msg.Width)
			}
		}
	}
}
