package gateway

import (
	"sync"

	"github.com/mcdev12/timeshop/internal/models"
)

// Registry maps connection IDs to the latest presence snapshot each
// connection reported. Keyed by connection, not account: an account
// open in two tabs appears twice, on purpose. Entries live only as
// long as the connection; nothing here is persisted.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]models.Presence
	order   []string
}

// NewRegistry creates an empty presence registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]models.Presence)}
}

// Upsert replaces the snapshot for connID wholesale.
func (r *Registry) Upsert(connID string, p models.Presence) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[connID]; !exists {
		r.order = append(r.order, connID)
	}
	r.entries[connID] = p
}

// Remove drops the snapshot for connID. Returns whether an entry was
// actually removed, so callers can skip a rebroadcast for connections
// that never reported presence.
func (r *Registry) Remove(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[connID]; !exists {
		return false
	}
	delete(r.entries, connID)
	for i, id := range r.order {
		if id == connID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// SnapshotAll returns every current snapshot in report order.
func (r *Registry) SnapshotAll() []models.Presence {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Presence, 0, len(r.entries))
	for _, id := range r.order {
		out = append(out, r.entries[id])
	}
	return out
}

// Len returns the number of connections with a reported snapshot.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
