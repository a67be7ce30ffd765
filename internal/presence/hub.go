package presence

import (
	"sync"

	"github.com/mnbarber/bookden/pkg/logger"
)

// Conn is the write side of a live client connection. Satisfied by
// *websocket.Conn.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Hub fans events out to connected clients, one connection per userId.
// Every push is best-effort, at-most-once and non-durable: clients
// reconcile by re-fetching conversation history on reconnect.
//
// All writes go through the hub mutex. Gorilla conns allow only one
// concurrent writer, so every WriteJSON must share the lock.
type Hub struct {
	mu       sync.Mutex
	conns    map[string]Conn
	registry Registry
}

func NewHub(registry Registry) *Hub {
	return &Hub{
		conns:    make(map[string]Conn),
		registry: registry,
	}
}

// Connect registers a user's connection, announces them to all peers and
// sends them the current online snapshot. A previous connection for the
// same user is replaced.
func (h *Hub) Connect(userID string, conn Conn) {
	h.mu.Lock()
	if old, ok := h.conns[userID]; ok {
		_ = old.Close()
	}
	h.conns[userID] = conn
	h.mu.Unlock()

	h.registry.Add(userID)

	h.broadcast(userID, map[string]interface{}{
		"type":    "user-online",
		"user_id": userID,
	})
	h.push(userID, map[string]interface{}{
		"type":  "online-users",
		"users": h.registry.Online(),
	})

	logger.Log.WithField("user_id", userID).Info("Presence connected")
}

// Disconnect drops the user's connection and announces them offline.
func (h *Hub) Disconnect(userID string) {
	h.mu.Lock()
	if conn, ok := h.conns[userID]; ok {
		_ = conn.Close()
		delete(h.conns, userID)
	}
	h.mu.Unlock()

	h.registry.Remove(userID)

	h.broadcast(userID, map[string]interface{}{
		"type":    "user-offline",
		"user_id": userID,
	})

	logger.Log.WithField("user_id", userID).Info("Presence disconnected")
}

// IsOnline reports whether a user currently holds a connection.
func (h *Hub) IsOnline(userID string) bool {
	return h.registry.Contains(userID)
}

// RelayMessage pushes a receive-message event to the recipient if they are
// connected. Returns whether delivery was attempted successfully; an
// offline recipient is not an error, the durable copy lives in the store.
func (h *Hub) RelayMessage(recipientID string, payload interface{}) bool {
	return h.push(recipientID, map[string]interface{}{
		"type":    "receive-message",
		"message": payload,
	})
}

// RelayTyping forwards an ephemeral typing signal. Never persisted; the
// sender's client runs a short expiry timer so a lost stop signal cannot
// leave the indicator stuck.
func (h *Hub) RelayTyping(senderID, recipientID, conversationID string, typing bool) {
	event := "typing"
	if !typing {
		event = "stop-typing"
	}
	h.push(recipientID, map[string]interface{}{
		"type":            event,
		"sender_id":       senderID,
		"conversation_id": conversationID,
	})
}

// RelayReadReceipt tells the other participant their messages were read.
func (h *Hub) RelayReadReceipt(readerID, recipientID, conversationID string) {
	h.push(recipientID, map[string]interface{}{
		"type":            "messages-read",
		"reader_id":       readerID,
		"conversation_id": conversationID,
	})
}

// Send pushes one arbitrary event to one user, under the same write lock
// as all other hub traffic. Handlers must use this instead of writing to
// the connection directly.
func (h *Hub) Send(userID string, payload interface{}) bool {
	return h.push(userID, payload)
}

// push writes one event to one user. The lock is held across the write so
// concurrent pushes to the same connection serialize. Write failures are
// swallowed after logging; there is no retry and no resend.
func (h *Hub) push(userID string, payload interface{}) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[userID]
	if !ok {
		return false
	}

	if err := conn.WriteJSON(payload); err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Warn("Presence push failed")
		return false
	}
	return true
}

// broadcast writes one event to every connected user except the origin,
// holding the lock across all writes.
func (h *Hub) broadcast(exceptID string, payload interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, conn := range h.conns {
		if id == exceptID {
			continue
		}
		if err := conn.WriteJSON(payload); err != nil {
			logger.Log.WithError(err).WithField("user_id", id).Warn("Presence broadcast failed")
		}
	}
}
