package stream

import (
	"sync"

	"notifyrelay/internal/model"
)

// Hub fans notifications out to every registered Subscription. Publish is
// synchronous and never blocks on a slow subscriber: each subscription owns an
// unbounded queue drained by its own goroutine.
type Hub struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

// NewHub returns a hub with no subscriptions.
func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers a live subscription that starts delivering immediately.
func (h *Hub) Subscribe() *Subscription {
	s := h.Hold()
	s.Replay(nil)
	return s
}

// Hold registers a subscription that queues published notifications but does
// not deliver them until Replay is called.
func (h *Hub) Hold() *Subscription {
	s := newSubscription(h)
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Publish queues notification on every registered subscription.
func (h *Hub) Publish(notification model.Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		s.push(notification)
	}
}

// Len reports the number of registered subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, s)
}
