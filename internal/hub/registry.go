package hub

import (
	"sync"

	"shopflow/internal/models"
	"shopflow/internal/util"
)

// Registry maps user ids to their live sockets on this instance. An entry
// exists only while at least one socket is subscribed; cross-instance fan-out
// is the bridge's job, not the registry's.
type Registry struct {
	mu    sync.RWMutex
	conns map[int64][]*Conn
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[int64][]*Conn)}
}

// Add registers a socket under the user id. The first socket creates the
// entry, later ones append.
func (r *Registry) Add(userID int64, c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[userID] = append(r.conns[userID], c)
}

// Remove unregisters a socket and prunes the user's entry once it empties.
func (r *Registry) Remove(userID int64, c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns := r.conns[userID]
	for i, got := range conns {
		if got == c {
			conns = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(conns) == 0 {
		delete(r.conns, userID)
		return
	}
	r.conns[userID] = conns
}

// Broadcast pushes a notification to every live socket subscribed as userID
// and returns how many sockets accepted the frame. Sockets already closed are
// skipped; pruning happens on the close event, not here.
func (r *Registry) Broadcast(userID int64, n *models.Notification) int {
	frame := Frame{Type: frameNotification, Data: n}

	r.mu.RLock()
	defer r.mu.RUnlock()

	delivered := 0
	for _, c := range r.conns[userID] {
		if c.push(frame) {
			delivered++
		}
	}
	if delivered > 0 {
		util.WSPushesTotal.Add(float64(delivered))
	}
	return delivered
}

// Subscribers reports how many sockets are registered for a user.
func (r *Registry) Subscribers(userID int64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[userID])
}
