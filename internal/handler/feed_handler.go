package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/buildtalk/forum/internal/broker"
	"github.com/buildtalk/forum/internal/middleware"
	"github.com/buildtalk/forum/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second // Time allowed to write a message to the peer
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// FeedHandler streams forum events to websocket clients. The feed is
// read-only; anything a client sends besides control frames is ignored.
type FeedHandler struct {
	events   broker.EventBroker
	upgrader websocket.Upgrader
}

func NewFeedHandler(events broker.EventBroker, allowedOrigins []string) *FeedHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}

	return &FeedHandler{
		events: events,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

func (h *FeedHandler) Subscribe(c *gin.Context) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))
	defer cancel()

	events, err := h.events.Subscribe(ctx)
	if err != nil {
		logger.Log.Error("Failed to subscribe to events", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Live feed unavailable"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.Warn("Failed to upgrade connection", zap.Error(err))
		return
	}
	defer conn.Close()

	middleware.FeedSubscriberConnected()
	defer middleware.FeedSubscriberDisconnected()

	fields := []zap.Field{zap.String("ip", c.ClientIP())}
	if identity, ok := middleware.CurrentIdentity(c); ok {
		fields = append(fields, zap.String("user_id", identity.ID.String()))
	}
	logger.Log.Info("Feed subscriber connected", fields...)

	go h.readLoop(conn, cancel)
	h.writeLoop(ctx, conn, events)

	logger.Log.Info("Feed subscriber disconnected", fields...)
}

// readLoop drains the connection so pongs and close frames are processed.
func (h *FeedHandler) readLoop(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Log.Debug("Feed connection closed unexpectedly", zap.Error(err))
			}
			return
		}
	}
}

func (h *FeedHandler) writeLoop(ctx context.Context, conn *websocket.Conn, events <-chan broker.Event) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return

		case event, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed closed"),
					time.Now().Add(writeWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				logger.Log.Debug("Feed write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
