package relay

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"notifyrelay/internal/history"
	"notifyrelay/internal/listener"
	"notifyrelay/internal/metrics"
	"notifyrelay/internal/model"
	"notifyrelay/internal/stream"
)

// Relay bridges a notification source into subscribable streams. Each raw
// notification is stamped, queued for persistence and published live.
type Relay struct {
	resolver *listener.Resolver
	history  *history.Service
	hub      *stream.Hub
	log      *zap.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	mu        sync.Mutex
	listening bool

	// emitMu keeps history order and live order identical.
	emitMu sync.Mutex
}

// New builds a relay that is not yet listening.
func New(resolver *listener.Resolver, hist *history.Service, hub *stream.Hub, logger *zap.Logger, m *metrics.Metrics) *Relay {
	return &Relay{
		resolver: resolver,
		history:  hist,
		hub:      hub,
		log:      logger,
		metrics:  m,
		now:      time.Now,
	}
}

// WithClock replaces the timestamp source.
func (r *Relay) WithClock(now func() time.Time) *Relay {
	r.now = now
	return r
}

// StartListening registers with the notification source. The registration
// lives as long as ctx. Calling it again once listening is a no-op.
func (r *Relay) StartListening(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listening {
		return nil
	}

	source := r.resolver.Resolve()
	if err := source.Listen(ctx, r.receive, r.onListenerError); err != nil {
		r.log.Error("notification listener registration failed", zap.Error(err))
		return err
	}
	r.listening = true
	r.log.Info("notification listener registered")
	return nil
}

// Listening reports whether a source registration has succeeded.
func (r *Relay) Listening() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listening
}

// Live subscribes to notifications received from now on.
func (r *Relay) Live() *stream.Subscription {
	return r.hub.Subscribe()
}

// Combined subscribes to the persisted history followed by every live
// notification, with nothing lost or repeated at the seam.
func (r *Relay) Combined(ctx context.Context) (*stream.Subscription, error) {
	sub := r.hub.Hold()
	past, err := r.history.Load(ctx)
	if err != nil {
		sub.Close()
		return nil, err
	}
	sub.Replay(past)
	return sub, nil
}

// History returns the persisted notifications in arrival order.
func (r *Relay) History(ctx context.Context) ([]model.Notification, error) {
	return r.history.Load(ctx)
}

func (r *Relay) receive(raw model.SystemNotification) {
	n := model.Notification{
		ID:                 uuid.NewString(),
		SystemNotification: raw,
		Date:               r.now(),
	}
	r.metrics.NotificationsReceived.Inc()

	r.emitMu.Lock()
	defer r.emitMu.Unlock()
	if err := r.history.Append(n); err != nil {
		r.metrics.PersistFailures.Inc()
		r.log.Error("queue history append failed", zap.String("id", n.ID), zap.Error(err))
	}
	r.hub.Publish(n)
}

func (r *Relay) onListenerError(err error) {
	r.metrics.ListenerErrors.Inc()
	r.log.Error("notification listener error", zap.Error(err))
}
