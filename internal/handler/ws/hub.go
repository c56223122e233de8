// Package ws pushes chart events to websocket viewers and feeds their
// pointer and resize input back into the chart.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"LiveChart/internal/domain/models"
	"LiveChart/pkg/logger"
)

const (
	sendBuffer   = 256
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = 30 * time.Second
	maxInboundSz = 4096
)

// Controller is what the hub needs from the chart lifecycle controller.
type Controller interface {
	Subscribe(fn func(models.ChartEvent)) (unsubscribe func())
	Snapshot() models.ChartSnapshot
	Hover(t float64) (models.Tooltip, error)
	Resize(width int)
}

// Hub fans chart events out to every connected viewer. Slow viewers lose
// events rather than stall the chart.
type Hub struct {
	ctrl     Controller
	logger   *logger.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]bool
	closed  bool

	unsubscribe func()
}

func NewHub(ctrl Controller, log *logger.Logger) *Hub {
	h := &Hub{
		ctrl:   ctrl,
		logger: log,
		upgrader: websocket.Upgrader{
			CheckOrigin:       func(r *http.Request) bool { return true },
			EnableCompression: true,
		},
		clients: make(map[*client]bool),
	}
	h.unsubscribe = ctrl.Subscribe(h.onEvent)
	return h
}

func (h *Hub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/chart", h.Serve)
}

// Serve upgrades the request and starts the client pumps. The first message
// is always a full snapshot.
func (h *Hub) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", logger.Error(err))
		return nil
	}

	cl := &client{conn: conn, send: make(chan []byte, sendBuffer), hub: h}
	snap := h.ctrl.Snapshot()
	first, err := json.Marshal(models.ChartEvent{
		Kind:     models.EventSnapshot,
		Identity: snap.Identity,
		Snapshot: &snap,
		At:       time.Now().UTC(),
	})
	if err != nil {
		_ = conn.Close()
		return err
	}
	cl.send <- first

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	h.clients[cl] = true
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("ws viewer connected", logger.Int("viewers", count), logger.String("remote", c.RealIP()))

	go cl.writePump()
	go cl.readPump()
	return nil
}

func (h *Hub) onEvent(ev models.ChartEvent) {
	msg, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("ws encode event", logger.String("kind", ev.Kind), logger.Error(err))
		return
	}
	h.broadcast(msg)
}

func (h *Hub) broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for cl := range h.clients {
		select {
		case cl.send <- msg:
		default:
		}
	}
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
	}
	h.mu.Unlock()
}

// ClientCount returns the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close stops listening to the controller and disconnects every viewer.
func (h *Hub) Close() {
	h.unsubscribe()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for cl := range h.clients {
		delete(h.clients, cl)
		close(cl.send)
	}
}
