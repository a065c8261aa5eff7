package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"notifyrelay/internal/config"
	"notifyrelay/internal/metrics"
	"notifyrelay/internal/model"
	"notifyrelay/internal/repository"
)

const (
	drainTimeout = 5 * time.Second
	defaultRetry = 100 * time.Millisecond
)

var (
	// ErrStopped is returned once Run has exited.
	ErrStopped = errors.New("history service stopped")

	errCorruptHistory = errors.New("corrupt history value")
)

type loadResult struct {
	history []model.Notification
	err     error
}

type request struct {
	notification *model.Notification
	reply        chan loadResult
}

// Service owns the persisted history. Every read-modify-write of the history
// key runs on the Run goroutine, in the order requests were queued. The
// pending queue is unbounded so a slow store never blocks callers.
type Service struct {
	store     repository.KeyValueStore
	key       string
	max       int
	retryBase time.Duration
	retryMax  time.Duration
	log       *zap.Logger
	metrics   *metrics.Metrics

	mu      sync.Mutex
	pending []request
	stopped bool
	wake    chan struct{}
}

func NewService(store repository.KeyValueStore, cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) *Service {
	base := cfg.StoreRetryBase
	if base <= 0 {
		base = defaultRetry
	}
	return &Service{
		store:     store,
		key:       cfg.HistoryKey,
		max:       cfg.HistoryMax,
		retryBase: base,
		retryMax:  cfg.StoreRetryMax,
		log:       logger,
		metrics:   m,
		wake:      make(chan struct{}, 1),
	}
}

// Run processes queued requests until ctx is done, then flushes pending
// appends.
func (s *Service) Run(ctx context.Context) {
	for {
		req, ok := s.next()
		if !ok {
			select {
			case <-ctx.Done():
				s.drain()
				return
			case <-s.wake:
			}
			continue
		}
		if ctx.Err() != nil {
			s.requeue(req)
			s.drain()
			return
		}
		s.handle(ctx, req)
	}
}

func (s *Service) enqueue(req request) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	s.pending = append(s.pending, req)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

func (s *Service) next() (request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return request{}, false
	}
	req := s.pending[0]
	s.pending[0] = request{}
	s.pending = s.pending[1:]
	return req, true
}

func (s *Service) requeue(req request) {
	s.mu.Lock()
	s.pending = append([]request{req}, s.pending...)
	s.mu.Unlock()
}

// drain persists appends still queued at shutdown and refuses new ones.
func (s *Service) drain() {
	s.mu.Lock()
	s.stopped = true
	remaining := s.pending
	s.pending = nil
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for _, req := range remaining {
		if req.reply != nil {
			req.reply <- loadResult{err: context.Canceled}
			continue
		}
		s.handle(ctx, req)
	}
}

func (s *Service) handle(ctx context.Context, req request) {
	if req.reply != nil {
		history, err := s.read(ctx)
		if errors.Is(err, errCorruptHistory) {
			s.log.Warn("history value unreadable, treating as empty", zap.String("key", s.key), zap.Error(err))
			err = nil
		}
		if err != nil {
			s.metrics.HistoryLoadFailures.Inc()
			s.log.Error("history load failed", zap.String("key", s.key), zap.Error(err))
		}
		req.reply <- loadResult{history: history, err: err}
		return
	}
	if err := s.appendOne(ctx, *req.notification); err != nil {
		s.metrics.PersistFailures.Inc()
		s.log.Error("history append failed",
			zap.String("key", s.key),
			zap.String("id", req.notification.ID),
			zap.String("package", req.notification.Package),
			zap.Error(err),
		)
	}
}

// Append queues notification for persistence and returns without waiting for
// the write. It fails only after Run has stopped.
func (s *Service) Append(notification model.Notification) error {
	return s.enqueue(request{notification: &notification})
}

// Load returns the persisted history in arrival order, including every append
// queued before the call. A missing value yields an empty slice.
func (s *Service) Load(ctx context.Context) ([]model.Notification, error) {
	reply := make(chan loadResult, 1)
	if err := s.enqueue(request{reply: reply}); err != nil {
		return nil, err
	}
	select {
	case res := <-reply:
		return res.history, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Service) appendOne(ctx context.Context, notification model.Notification) error {
	history, err := s.read(ctx)
	if errors.Is(err, errCorruptHistory) {
		s.log.Error("history value unreadable, starting a new list", zap.String("key", s.key), zap.Error(err))
		history, err = []model.Notification{}, nil
	}
	if err != nil {
		return err
	}

	history = append(history, notification)
	if s.max > 0 && len(history) > s.max {
		history = history[len(history)-s.max:]
	}

	payload, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := s.retry(ctx, func() error {
		return s.store.Set(ctx, s.key, payload)
	}); err != nil {
		return fmt.Errorf("set history: %w", err)
	}
	return nil
}

func (s *Service) read(ctx context.Context) ([]model.Notification, error) {
	var (
		raw []byte
		ok  bool
	)
	if err := s.retry(ctx, func() error {
		var err error
		raw, ok, err = s.store.Get(ctx, s.key)
		return err
	}); err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}

	history := []model.Notification{}
	if !ok || len(raw) == 0 {
		return history, nil
	}
	if err := json.Unmarshal(raw, &history); err != nil {
		return []model.Notification{}, fmt.Errorf("%w: %v", errCorruptHistory, err)
	}
	if history == nil {
		history = []model.Notification{}
	}
	return history, nil
}

func (s *Service) retry(ctx context.Context, op func() error) error {
	if s.retryMax <= 0 {
		return op()
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.retryBase
	b.MaxElapsedTime = s.retryMax
	return backoff.Retry(op, backoff.WithContext(b, ctx))
}
