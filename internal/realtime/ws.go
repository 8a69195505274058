package realtime

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"storefront_back_end/internal/logging"
)

const (
	PingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
)

// NewUpgrader accepts same-origin requests and the configured origins.
func NewUpgrader(origins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(origins, "*") || slices.Contains(origins, origin)
		},
	}
}

// Conn is the part of a websocket connection the pump writes to.
type Conn interface {
	WriteJSON(v any) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
}

// Render turns a pub/sub payload into the message sent to the client.
// Returning false skips the payload.
type Render func(ctx context.Context, payload string) (any, bool)

// Pump forwards rendered payloads to conn and pings it every interval.
// It returns nil when ctx ends or msgs closes, and the write error otherwise.
func Pump(ctx context.Context, conn Conn, msgs <-chan string, interval time.Duration, render Render) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case payload, ok := <-msgs:
			if !ok {
				return nil
			}
			v, send := render(ctx, payload)
			if !send {
				continue
			}
			if err := conn.WriteJSON(v); err != nil {
				return err
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		}
	}
}

// Serve upgrades the request, greets the client and pumps channel until either side goes away.
func (h *Hub) Serve(c *gin.Context, up *websocket.Upgrader, channel string, hello any, render Render) {
	conn, err := up.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.L().Warn("❌ WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	msgs, stop := h.Subscribe(ctx, channel)
	defer stop()

	// the client only sends control frames; a read error means it left
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if hello != nil {
		if err := conn.WriteJSON(hello); err != nil {
			return
		}
	}
	if err := Pump(ctx, conn, msgs, PingInterval, render); err != nil {
		logging.L().Debug("WebSocket closed", zap.String("channel", channel), zap.Error(err))
	}
}
