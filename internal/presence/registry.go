// Package presence is the transient fan-out layer over live websocket
// connections: online/offline broadcast, typing signals and best-effort
// message push. Nothing here is durable; the message store is always the
// source of truth.
package presence

import "sync"

// Registry tracks which users currently hold a live connection. It is
// injected so a single-instance deployment can use the in-memory map and a
// multi-instance one can swap in a shared registry; with the in-memory
// implementation, presence correctness is per-instance.
type Registry interface {
	Add(userID string)
	Remove(userID string)
	Contains(userID string) bool
	Online() []string
}

// MemoryRegistry is the process-local Registry implementation.
type MemoryRegistry struct {
	mu    sync.RWMutex
	users map[string]struct{}
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{users: make(map[string]struct{})}
}

func (r *MemoryRegistry) Add(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[userID] = struct{}{}
}

func (r *MemoryRegistry) Remove(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, userID)
}

func (r *MemoryRegistry) Contains(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.users[userID]
	return ok
}

func (r *MemoryRegistry) Online() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	online := make([]string, 0, len(r.users))
	for id := range r.users {
		online = append(online, id)
	}
	return online
}
