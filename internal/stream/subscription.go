package stream

import (
	"sync"

	"notifyrelay/internal/model"
)

type Subscription struct {
	hub *Hub

	mu      sync.Mutex
	queue   []model.Notification
	started bool

	wake      chan struct{}
	done      chan struct{}
	out       chan model.Notification
	closeOnce sync.Once
}

func newSubscription(h *Hub) *Subscription {
	return &Subscription{
		hub:  h,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		out:  make(chan model.Notification),
	}
}

// C delivers notifications in order. It is closed after Close.
func (s *Subscription) C() <-chan model.Notification {
	return s.out
}

// Done is closed once the subscription has been closed.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close stops delivery to this subscriber. It is safe to call more than once.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.hub.remove(s)
		close(s.done)
		s.mu.Lock()
		started := s.started
		s.started = true
		s.queue = nil
		s.mu.Unlock()
		if !started {
			close(s.out)
		}
	})
}

// Replay puts history ahead of everything queued since Hold and starts
// delivery. Queued notifications whose ID already appears in history are
// dropped so the seam between the two is delivered exactly once. Only the
// first call has an effect.
func (s *Subscription) Replay(history []model.Notification) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	if len(history) > 0 {
		seen := make(map[string]struct{}, len(history))
		for _, n := range history {
			if n.ID != "" {
				seen[n.ID] = struct{}{}
			}
		}
		merged := make([]model.Notification, 0, len(history)+len(s.queue))
		merged = append(merged, history...)
		for _, n := range s.queue {
			if _, dup := seen[n.ID]; dup && n.ID != "" {
				continue
			}
			merged = append(merged, n)
		}
		s.queue = merged
	}
	s.mu.Unlock()

	go s.pump()
}

func (s *Subscription) push(notification model.Notification) {
	s.mu.Lock()
	s.queue = append(s.queue, notification)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription) pump() {
	defer close(s.out)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 {
			s.mu.Unlock()
			select {
			case <-s.done:
				return
			case <-s.wake:
			}
			s.mu.Lock()
		}
		next := s.queue[0]
		s.queue[0] = model.Notification{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case <-s.done:
			return
		case s.out <- next:
		}
	}
}
