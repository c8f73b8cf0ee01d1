// Package realtime pushes notification-row changes to connected clients so
// the UI does not poll.
package realtime

import (
	"sync"

	"github.com/teamtaskhq/teamtask-api/internal/models"
)

const subscriberBuffer = 16

// Hub fans notification inserts out to per-user subscribers. Publish never
// blocks; a subscriber that stops draining its channel loses events rather
// than stalling the publisher.
type Hub struct {
	mu   sync.RWMutex
	subs map[uint64]map[uint64]chan models.Notification
	next uint64
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]map[uint64]chan models.Notification)}
}

// Subscribe registers for a user's notification feed. The returned cancel
// func closes the channel and releases the registration.
func (h *Hub) Subscribe(userID uint64) (<-chan models.Notification, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.next++
	id := h.next
	ch := make(chan models.Notification, subscriberBuffer)

	if h.subs[userID] == nil {
		h.subs[userID] = make(map[uint64]chan models.Notification)
	}
	h.subs[userID][id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[userID][id]; ok {
			delete(h.subs[userID], id)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			close(sub)
		}
	}

	return ch, cancel
}

// Publish delivers a notification to every subscriber of its user.
func (h *Hub) Publish(notification models.Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs[notification.UserID] {
		select {
		case ch <- notification:
		default:
			// Slow subscriber; drop rather than block the mutation path.
		}
	}
}
