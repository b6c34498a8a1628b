package hub

import (
	"context"
	"encoding/json"
	"net/http"

	"shopflow/internal/models"
	"shopflow/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// HistoryLoader supplies the bounded, most-recent-first replay sent when a
// socket subscribes.
type HistoryLoader interface {
	RecentNotifications(ctx context.Context, userID int64) ([]models.Notification, error)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Handler upgrades client sockets and speaks the subscribe protocol.
type Handler struct {
	registry   *Registry
	history    HistoryLoader
	sendBuffer int
	logger     *zap.Logger
}

// NewHandler creates the websocket endpoint handler.
func NewHandler(registry *Registry, history HistoryLoader, sendBuffer int) *Handler {
	return &Handler{
		registry:   registry,
		history:    history,
		sendBuffer: sendBuffer,
		logger:     util.GetLogger(),
	}
}

// clientMessage is what clients send; only subscribe is recognized.
type clientMessage struct {
	Type   string `json:"type"`
	UserID int64  `json:"userId"`
}

// Serve handles GET /ws.
func (h *Handler) Serve(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	conn := newConn(ws, h.sendBuffer)
	go conn.writeLoop()

	util.WSConnectionsActive.Inc()
	h.logger.Info("Socket connected", zap.String("remote", ws.RemoteAddr().String()))

	h.readLoop(c.Request.Context(), conn)
}

// readLoop owns the socket's read side: it applies subscribe messages and, on
// any read error, unwinds the registration and releases the writer.
func (h *Handler) readLoop(ctx context.Context, conn *Conn) {
	var userID int64
	subscribed := false

	defer func() {
		if subscribed {
			h.registry.Remove(userID, conn)
		}
		conn.shutdown()
		util.WSConnectionsActive.Dec()
		h.logger.Info("Socket closed",
			zap.Int64("user_id", userID),
			zap.Bool("subscribed", subscribed))
	}()

	for {
		_, raw, err := conn.ws.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.logger.Warn("Ignoring invalid client frame", zap.Error(err))
			continue
		}

		switch msg.Type {
		case frameSubscribe:
			if msg.UserID == 0 {
				h.logger.Warn("Ignoring subscribe without user id")
				continue
			}
			if subscribed {
				h.logger.Warn("Ignoring duplicate subscribe",
					zap.Int64("user_id", userID),
					zap.Int64("requested", msg.UserID))
				continue
			}
			userID = msg.UserID
			subscribed = true
			h.registry.Add(userID, conn)
			h.sendHistory(ctx, conn, userID)

		default:
			h.logger.Debug("Ignoring unknown client frame", zap.String("type", msg.Type))
		}
	}
}

// sendHistory replays the user's recent notifications as a single frame. A
// load failure still produces the frame, with an empty list, so the client
// protocol stays one reply per subscribe.
func (h *Handler) sendHistory(ctx context.Context, conn *Conn, userID int64) {
	items, err := h.history.RecentNotifications(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to load notification history",
			zap.Int64("user_id", userID),
			zap.Error(err))
	}
	if items == nil {
		items = []models.Notification{}
	}
	conn.push(Frame{Type: frameNotifications, Data: items})
}
