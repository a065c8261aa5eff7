package memory

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Store keeps values in process memory. Nothing survives a restart.
type Store struct {
	mu     sync.Mutex
	values map[string][]byte
	log    *zap.Logger
}

func New(logger *zap.Logger) *Store {
	return &Store{values: make(map[string][]byte), log: logger}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), value...)
	s.log.Debug("memory store set", zap.String("key", key), zap.Int("bytes", len(value)))
	return nil
}

func (s *Store) Close() error {
	return nil
}
