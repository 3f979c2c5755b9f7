package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tunehive/partyhub/internal/model"
	"github.com/tunehive/partyhub/internal/presence"
	"github.com/tunehive/partyhub/internal/services/playback"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period; must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound message size
	maxMessageSize = 1024
)

// ClientMessage is an inbound message from a connected client
type ClientMessage struct {
	Action   string        `json:"action"`
	PartyID  model.PartyID `json:"partyId,omitempty"`
	SongID   model.SongID  `json:"songId,omitempty"`
	Position float64       `json:"position,omitempty"`
}

// Client-invocable actions
const (
	ActionJoinPartyGroup  = "JoinPartyGroup"
	ActionLeavePartyGroup = "LeavePartyGroup"
	ActionPlaySong        = "PlaySong"
	ActionPauseSong       = "PauseSong"
	ActionSeekSong        = "SeekSong"
	ActionStopSong        = "StopSong"
)

// WSHandler upgrades HTTP requests to WebSocket connections and binds the
// connection lifecycle to the presence registry and broadcast channel:
// register on connect, tear both down on disconnect. A disconnect
// mid-operation never rolls back a committed mutation; only in-flight
// sends to that connection are abandoned.
type WSHandler struct {
	upgrader websocket.Upgrader
	registry *presence.Registry
	channel  *Channel
	relay    *playback.Relay
	logger   *slog.Logger
}

// NewWSHandler creates the WebSocket endpoint handler
func NewWSHandler(registry *presence.Registry, channel *Channel, relay *playback.Relay, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		registry: registry,
		channel:  channel,
		relay:    relay,
		logger:   logger.With(slog.String("component", "ws")),
	}
}

// ServeWS handles GET /ws. Identity comes from the X-User-ID header or a
// user_id query parameter; authentication itself happens upstream.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		http.Error(w, "missing or invalid user id", http.StatusBadRequest)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	connectionID := uuid.NewString()
	conn := NewConn(connectionID)

	h.channel.Register(conn)
	h.registry.AddUser(userID, connectionID)

	h.logger.Info("client connected",
		slog.Int64("user_id", int64(userID)),
		slog.String("connection_id", connectionID))

	h.channel.SendTo(connectionID, model.EventConnected, model.ConnectedPayload{
		ConnectionID: connectionID,
	})

	go h.writePump(ws, conn)
	h.readPump(ws, connectionID, userID)

	h.registry.RemoveByConnection(connectionID)
	h.channel.Unregister(connectionID)

	h.logger.Info("client disconnected",
		slog.Int64("user_id", int64(userID)),
		slog.String("connection_id", connectionID))
}

// readPump reads and dispatches inbound messages until the connection
// drops. Malformed or unknown messages are logged and skipped; they never
// terminate the connection.
func (h *WSHandler) readPump(ws *websocket.Conn, connectionID string, userID model.UserID) {
	defer func() { _ = ws.Close() }()

	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read error",
					slog.String("connection_id", connectionID),
					slog.Any("error", err))
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Warn("malformed client message",
				slog.String("connection_id", connectionID),
				slog.Any("error", err))
			continue
		}

		h.dispatch(connectionID, msg)
	}
}

func (h *WSHandler) dispatch(connectionID string, msg ClientMessage) {
	switch msg.Action {
	case ActionJoinPartyGroup:
		h.channel.JoinPartyGroup(connectionID, msg.PartyID)
	case ActionLeavePartyGroup:
		h.channel.LeavePartyGroup(connectionID)
	case ActionPlaySong:
		h.relay.Play(msg.PartyID, msg.SongID, msg.Position, connectionID)
	case ActionPauseSong:
		h.relay.Pause(msg.PartyID, msg.Position, connectionID)
	case ActionSeekSong:
		h.relay.Seek(msg.PartyID, msg.Position, connectionID)
	case ActionStopSong:
		h.relay.Stop(msg.PartyID, connectionID)
	default:
		h.logger.Warn("unknown client action",
			slog.String("connection_id", connectionID),
			slog.String("action", msg.Action))
	}
}

// writePump drains the connection's send channel to the socket and keeps
// the connection alive with pings
func (h *WSHandler) writePump(ws *websocket.Conn, conn *Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = ws.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send():
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed the connection
				_ = ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func userIDFromRequest(r *http.Request) (model.UserID, bool) {
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		raw = r.URL.Query().Get("user_id")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return model.UserID(id), true
}
