package handler

import (
	"net/http"
	"time"

	"github.com/dukabook/ledger-api/internal/infrastructure/realtime"
	"github.com/dukabook/ledger-api/internal/presentation/http/dto/response"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 45 * time.Second
)

// RealtimeHandler upgrades authenticated requests to websockets and
// streams the hub's coalesced change notifications to them.
type RealtimeHandler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
	log      *logrus.Logger
}

// NewRealtimeHandler creates a new realtime handler
func NewRealtimeHandler(hub *realtime.Hub, log *logrus.Logger) *RealtimeHandler {
	return &RealtimeHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin is enforced by the CORS layer; the token already
			// authenticated the caller.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// Subscribe handles GET /realtime, upgrading the connection and pushing
// change notifications until the client disconnects.
func (h *RealtimeHandler) Subscribe(c *gin.Context) {
	sess := GetSession(c)
	if sess == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	messages, cancel := h.hub.Subscribe(sess.UserID)
	h.log.WithField("owner_id", sess.UserID).Debug("Realtime subscriber connected")

	go h.writeLoop(conn, messages, cancel)
	go h.readLoop(conn, cancel)
}

// writeLoop pushes hub messages and pings; it owns all writes to conn.
func (h *RealtimeHandler) writeLoop(conn *websocket.Conn, messages <-chan []byte, cancel func()) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-messages:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub dropped us (slow consumer) or we unsubscribed.
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop drains the connection so pongs and close frames are seen.
func (h *RealtimeHandler) readLoop(conn *websocket.Conn, cancel func()) {
	defer cancel()
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
