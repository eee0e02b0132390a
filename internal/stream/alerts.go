// Package stream pushes alerts to connected browsers over a WebSocket.
// Each connection subscribes to the caller's Redis channel, plus the
// admin channel for PMs and admins; notify.Dispatcher publishes to them.
package stream

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/nayeon729/humanmakehub/internal/middleware"
	"github.com/nayeon729/humanmakehub/internal/models"
	"github.com/nayeon729/humanmakehub/internal/notify"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

type Handler struct {
	client   *redis.Client
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHandler builds the alert feed. Browser handshakes from origins
// outside allowedOrigins are refused.
func NewHandler(client *redis.Client, allowedOrigins []string, logger *zap.Logger) *Handler {
	return &Handler{
		client: client,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
		logger: logger,
	}
}

// Channels returns the Redis channels a caller listens on.
func Channels(userID string, privileged bool) []string {
	channels := []string{notify.Channel(userID)}
	if privileged {
		channels = append(channels, notify.Channel(models.AdminChannel))
	}
	return channels
}

// Serve handles GET /v1/alerts/stream. It runs behind AuthMiddleware.
func (h *Handler) Serve(c *gin.Context) {
	userID := middleware.GetUserID(c)
	channels := Channels(userID, middleware.GetRole(c).Privileged())

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	defer conn.Close()

	// The request context ends with the handler; the subscription lives
	// until the socket goes away.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubsub := h.client.Subscribe(ctx, channels...)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		h.logger.Error("failed to subscribe alert channels", zap.String("user_id", userID), zap.Error(err))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscribe failed"),
			time.Now().Add(writeWait))
		return
	}

	h.logger.Debug("alert stream opened", zap.String("user_id", userID), zap.Strings("channels", channels))
	defer h.logger.Debug("alert stream closed", zap.String("user_id", userID))

	if err := h.write(conn, websocket.TextMessage, []byte(`{"type":"connected"}`)); err != nil {
		return
	}

	go h.readPump(conn, cancel)
	h.writePump(ctx, conn, pubsub.Channel())
}

// readPump only exists to answer pings and notice the client leaving.
func (h *Handler) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) writePump(ctx context.Context, conn *websocket.Conn, messages <-chan *redis.Message) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			if err := h.write(conn, websocket.TextMessage, []byte(msg.Payload)); err != nil {
				return
			}
		case <-ticker.C:
			if err := h.write(conn, websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) write(conn *websocket.Conn, messageType int, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(messageType, data)
}
