package listener

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"notifyrelay/internal/config"
	"notifyrelay/internal/domain"
	"notifyrelay/internal/model"
	"notifyrelay/internal/queue/rabbitmq"
)

// Listener is a source of system notifications. Listen registers the
// callbacks; the registration lives until ctx is done. Failures that happen
// after registration are reported through onError.
type Listener interface {
	Listen(ctx context.Context, onNotification func(model.SystemNotification), onError func(error)) error
}

// Native is the listener configured for this process, or nil when none is.
type Native Listener

// NewNative picks the native source from configuration.
func NewNative(cfg *config.Config, push *Push, logger *zap.Logger) Native {
	switch cfg.ListenerKind() {
	case domain.ListenerAMQP:
		if cfg.RabbitMQURL == "" {
			logger.Warn("amqp listener selected without RABBITMQ_URL, falling back to mock")
			return nil
		}
		return rabbitmq.NewConsumer(cfg, logger)
	case domain.ListenerPush:
		return push
	default:
		return nil
	}
}

// Resolver hands out the notification source. Without a native source it
// installs a Mock the first time it is asked and reuses it afterwards.
type Resolver struct {
	native Listener
	log    *zap.Logger

	once sync.Once
	mock Listener
}

func NewResolver(native Native, logger *zap.Logger) *Resolver {
	return &Resolver{native: native, log: logger}
}

func (r *Resolver) Resolve() Listener {
	if r.native != nil {
		return r.native
	}
	r.once.Do(func() {
		r.log.Info("no native notification listener, installing mock")
		r.mock = NewMock()
	})
	return r.mock
}
