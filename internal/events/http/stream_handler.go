// Package http streams bus events to websocket clients.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/certkeep/certkeep/internal/events"
)

const (
	subscriberBuffer = 64
	writeTimeout     = 10 * time.Second
	pingInterval     = 30 * time.Second
)

// StreamHandler upgrades HTTP requests to websockets and forwards bus events.
type StreamHandler struct {
	bus      *events.Bus
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewStreamHandler creates a new event stream handler.
func NewStreamHandler(bus *events.Bus, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{
		bus: bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The API binds to loopback; cross-origin browsers are allowed.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// StreamHandler upgrades the connection and streams events until the client
// disconnects or the bus closes.
// GET /v1/events
func (h *StreamHandler) StreamHandler(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ch, cancel := h.bus.Subscribe(subscriberBuffer)
	defer cancel()

	// Drain client frames so close/pong handling works; the stream is
	// write-only from our side.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case evt, ok := <-ch:
			if !ok {
				deadline := time.Now().Add(writeTimeout)
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), deadline)
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
