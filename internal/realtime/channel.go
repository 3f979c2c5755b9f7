package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/tunehive/partyhub/internal/model"
)

// Envelope is the wire format for every event delivered to clients
type Envelope struct {
	Event model.EventType `json:"event"`
	Data  any             `json:"data,omitempty"`
}

// Channel routes event messages to per-party subscriber groups and to the
// global set of connected clients.
//
// Group membership is independent of presence: a connection can be online
// without belonging to any party group, and belongs to at most one group
// at a time. Delivery is fire-and-forget and at-most-once per currently
// connected subscriber; a full client buffer drops the message for that
// client rather than blocking the caller.
type Channel struct {
	mu       sync.RWMutex
	conns    map[string]*Conn
	groups   map[model.PartyID]map[string]*Conn
	memberOf map[string]model.PartyID
	logger   *slog.Logger
}

// NewChannel creates a broadcast channel with no subscribers
func NewChannel(logger *slog.Logger) *Channel {
	return &Channel{
		conns:    make(map[string]*Conn),
		groups:   make(map[model.PartyID]map[string]*Conn),
		memberOf: make(map[string]model.PartyID),
		logger:   logger.With(slog.String("component", "broadcast")),
	}
}

// Register adds a connection to the global audience
func (c *Channel) Register(conn *Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conns[conn.id] = conn
	c.logger.Info("connection registered",
		slog.String("connection_id", conn.id),
		slog.Int("total_connections", len(c.conns)))
}

// Unregister removes a connection entirely: from its group, from the
// global audience, and closes its send channel
func (c *Channel) Unregister(connectionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, ok := c.conns[connectionID]
	if !ok {
		return
	}
	c.leaveGroupLocked(connectionID)
	delete(c.conns, connectionID)
	conn.close()
	c.logger.Info("connection unregistered",
		slog.String("connection_id", connectionID),
		slog.Int("total_connections", len(c.conns)))
}

// JoinPartyGroup subscribes a connection to a party's group. A connection
// already in another group is moved.
func (c *Channel) JoinPartyGroup(connectionID string, partyID model.PartyID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, ok := c.conns[connectionID]
	if !ok {
		c.logger.Warn("join group ignored: unknown connection",
			slog.String("connection_id", connectionID),
			slog.Int64("party_id", int64(partyID)))
		return
	}

	c.leaveGroupLocked(connectionID)

	group, ok := c.groups[partyID]
	if !ok {
		group = make(map[string]*Conn)
		c.groups[partyID] = group
	}
	group[connectionID] = conn
	c.memberOf[connectionID] = partyID
}

// LeavePartyGroup unsubscribes a connection from its current group, if any
func (c *Channel) LeavePartyGroup(connectionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leaveGroupLocked(connectionID)
}

// leaveGroupLocked removes the connection from whatever group it is in.
// Caller must hold the lock.
func (c *Channel) leaveGroupLocked(connectionID string) {
	partyID, ok := c.memberOf[connectionID]
	if !ok {
		return
	}
	delete(c.memberOf, connectionID)
	if group, ok := c.groups[partyID]; ok {
		delete(group, connectionID)
		if len(group) == 0 {
			delete(c.groups, partyID)
		}
	}
}

// GroupOf returns the party group a connection currently belongs to
func (c *Channel) GroupOf(connectionID string) (model.PartyID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	partyID, ok := c.memberOf[connectionID]
	return partyID, ok
}

// GroupSize returns the number of connections subscribed to a party group
func (c *Channel) GroupSize(partyID model.PartyID) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.groups[partyID])
}

// ConnCount returns the number of registered connections
func (c *Channel) ConnCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.conns)
}

// RemoveGroup drops a party's group without closing its connections; the
// connections stay registered in the global audience
func (c *Channel) RemoveGroup(partyID model.PartyID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	group, ok := c.groups[partyID]
	if !ok {
		return
	}
	for connectionID := range group {
		delete(c.memberOf, connectionID)
	}
	delete(c.groups, partyID)
	c.logger.Info("party group removed", slog.Int64("party_id", int64(partyID)))
}

// BroadcastToGroup delivers an event to every connection in a party's
// group. Broadcasting to an empty or missing group is a no-op.
func (c *Channel) BroadcastToGroup(partyID model.PartyID, event model.EventType, payload any) {
	msg, err := encodeEvent(event, payload)
	if err != nil {
		c.logger.Error("event encoding failed",
			slog.String("event", string(event)),
			slog.Any("error", err))
		return
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	c.deliverLocked(c.groups[partyID], event, msg)
}

// BroadcastToAll delivers an event to every registered connection
// regardless of group membership
func (c *Channel) BroadcastToAll(event model.EventType, payload any) {
	msg, err := encodeEvent(event, payload)
	if err != nil {
		c.logger.Error("event encoding failed",
			slog.String("event", string(event)),
			slog.Any("error", err))
		return
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	c.deliverLocked(c.conns, event, msg)
}

// SendTo delivers an event to a single connection
func (c *Channel) SendTo(connectionID string, event model.EventType, payload any) {
	msg, err := encodeEvent(event, payload)
	if err != nil {
		c.logger.Error("event encoding failed",
			slog.String("event", string(event)),
			slog.Any("error", err))
		return
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	conn, ok := c.conns[connectionID]
	if !ok {
		return
	}
	c.trySendLocked(conn, event, msg)
}

// deliverLocked attempts one non-blocking send per target. Slow or dead
// clients miss the event and resynchronize on reconnect; they never fail
// or delay the triggering operation.
//
// Caller must hold at least the read lock: Unregister closes send
// channels under the write lock, so a send here can never race a close.
func (c *Channel) deliverLocked(targets map[string]*Conn, event model.EventType, msg []byte) {
	dropped := 0
	for _, conn := range targets {
		if !c.trySendLocked(conn, event, msg) {
			dropped++
		}
	}
	if dropped > 0 {
		c.logger.Warn("broadcast partial delivery",
			slog.String("event", string(event)),
			slog.Int("sent", len(targets)-dropped),
			slog.Int("dropped", dropped))
	}
}

// trySendLocked performs one non-blocking send. Caller must hold the lock.
func (c *Channel) trySendLocked(conn *Conn, event model.EventType, msg []byte) bool {
	select {
	case conn.send <- msg:
		return true
	default:
		c.logger.Warn("event dropped: client buffer full",
			slog.String("connection_id", conn.id),
			slog.String("event", string(event)))
		return false
	}
}

func encodeEvent(event model.EventType, payload any) ([]byte, error) {
	return json.Marshal(Envelope{Event: event, Data: payload})
}
