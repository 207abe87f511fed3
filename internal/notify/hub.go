// Package notify fans newly created notifications out to open realtime
// streams of the same user.
package notify

import (
	"sync"

	"github.com/google/uuid"

	"propdesk-backend/internal/domain"
	"propdesk-backend/internal/metrics"
)

const subscriberBuffer = 16

type Hub struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]map[int]chan domain.Notification
	nextID int
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uuid.UUID]map[int]chan domain.Notification)}
}

// Subscribe registers a stream for userID. The returned cancel func closes
// the channel and is safe to call more than once.
func (h *Hub) Subscribe(userID uuid.UUID) (<-chan domain.Notification, func()) {
	ch := make(chan domain.Notification, subscriberBuffer)
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[int]chan domain.Notification)
	}
	h.subs[userID][id] = ch
	h.mu.Unlock()
	metrics.RealtimeSubscribers.Inc()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[userID], id)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			h.mu.Unlock()
			close(ch)
			metrics.RealtimeSubscribers.Dec()
		})
	}
}

// Publish delivers n to every stream of n.UserID. Slow streams drop it.
func (h *Hub) Publish(n domain.Notification) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for _, ch := range h.subs[n.UserID] {
		select {
		case ch <- n:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribers returns the number of open streams for userID.
func (h *Hub) Subscribers(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}
