package mysql

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"
	"notifyrelay/internal/db"
)

type Store struct {
	conn    *sql.DB
	queries *db.Queries
	log     *zap.Logger
}

func New(conn *sql.DB, logger *zap.Logger) *Store {
	return &Store{conn: conn, queries: db.New(conn), log: logger}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.queries.GetValue(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		s.log.Error("sql get value failed", zap.String("key", key), zap.Error(err))
		return nil, false, err
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.queries.SetValue(ctx, db.SetValueParams{K: key, V: value}); err != nil {
		s.log.Error("sql set value failed", zap.String("key", key), zap.Int("bytes", len(value)), zap.Error(err))
		return err
	}
	return nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}
