package presence

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/tunehive/partyhub/internal/model"
)

// Registry is a thread-safe bidirectional map between user identity and
// active connection identity. It is in-memory only; nothing here is
// persisted, and a restart simply empties it.
//
// Invariant: for every (user, conn) in the forward map, (conn, user) exists
// in the reverse map and vice versa. No user maps to two connections and no
// connection maps to two users.
type Registry struct {
	mu     sync.RWMutex
	byUser map[model.UserID]string
	byConn map[string]model.UserID
	logger *slog.Logger
}

// NewRegistry creates an empty presence registry
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		byUser: make(map[model.UserID]string),
		byConn: make(map[string]model.UserID),
		logger: logger.With(slog.String("component", "presence")),
	}
}

// AddUser registers a connection for a user. If the user already has a
// connection, the old mapping is replaced: a reconnect supersedes the old
// session. Malformed input is logged and ignored; connection lifecycle
// callbacks must never fail the transport layer.
func (r *Registry) AddUser(userID model.UserID, connectionID string) {
	if userID <= 0 {
		r.logger.Warn("presence add rejected: invalid user id",
			slog.Int64("user_id", int64(userID)))
		return
	}
	if strings.TrimSpace(connectionID) == "" {
		r.logger.Warn("presence add rejected: blank connection id",
			slog.Int64("user_id", int64(userID)))
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Unregister any previous connection for this user, and any previous
	// user for this connection, before installing the new pair
	if old, ok := r.byUser[userID]; ok {
		delete(r.byConn, old)
	}
	if oldUser, ok := r.byConn[connectionID]; ok {
		delete(r.byUser, oldUser)
	}

	r.byUser[userID] = connectionID
	r.byConn[connectionID] = userID
}

// RemoveByConnection removes the mapping for a connection. Returns false
// if the connection id is blank or unknown.
func (r *Registry) RemoveByConnection(connectionID string) bool {
	if strings.TrimSpace(connectionID) == "" {
		r.logger.Warn("presence remove rejected: blank connection id")
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.byConn[connectionID]
	if !ok {
		return false
	}
	delete(r.byConn, connectionID)
	delete(r.byUser, userID)
	return true
}

// RemoveByUser removes the mapping for a user. Returns false if the user
// id is invalid or unknown.
func (r *Registry) RemoveByUser(userID model.UserID) bool {
	if userID <= 0 {
		r.logger.Warn("presence remove rejected: invalid user id",
			slog.Int64("user_id", int64(userID)))
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	connectionID, ok := r.byUser[userID]
	if !ok {
		return false
	}
	delete(r.byUser, userID)
	delete(r.byConn, connectionID)
	return true
}

// Count returns the number of connected users
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

// ActiveUserIDs returns a point-in-time snapshot of connected user ids,
// safe to iterate under concurrent mutation
func (r *Registry) ActiveUserIDs() []model.UserID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]model.UserID, 0, len(r.byUser))
	for id := range r.byUser {
		ids = append(ids, id)
	}
	return ids
}

// IsActive reports whether the user currently has a registered connection
func (r *Registry) IsActive(userID model.UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byUser[userID]
	return ok
}

// ConnectionOf returns the connection id for a user, if any
func (r *Registry) ConnectionOf(userID model.UserID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	connectionID, ok := r.byUser[userID]
	return connectionID, ok
}

// UserOf returns the user id for a connection, if any
func (r *Registry) UserOf(connectionID string) (model.UserID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userID, ok := r.byConn[connectionID]
	return userID, ok
}
