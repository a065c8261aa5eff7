package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"notifyrelay/internal/config"
	"notifyrelay/internal/domain"
	"notifyrelay/internal/metrics"
	"notifyrelay/internal/model"
	"notifyrelay/internal/store/memory"
)

type kvMock struct {
	mock.Mock
}

func (m *kvMock) Get(ctx context.Context, key string) ([]byte, bool, error) {
	args := m.Called(ctx, key)
	value, _ := args.Get(0).([]byte)
	return value, args.Bool(1), args.Error(2)
}

func (m *kvMock) Set(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *kvMock) Close() error {
	return nil
}

// stalledStore blocks every Get until release is closed.
type stalledStore struct {
	*memory.Store
	release chan struct{}
}

func (s *stalledStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	select {
	case <-s.release:
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
	return s.Store.Get(ctx, key)
}

func testConfig() *config.Config {
	return &config.Config{
		HistoryKey:     domain.HistoryKey,
		StoreRetryBase: time.Millisecond,
		StoreRetryMax:  50 * time.Millisecond,
	}
}

func notification(id string) model.Notification {
	return model.Notification{
		ID:                 id,
		SystemNotification: model.SystemNotification{Title: "title-" + id, Package: "com.example"},
		Date:               time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func ids(history []model.Notification) []string {
	out := make([]string, 0, len(history))
	for _, n := range history {
		out = append(out, n.ID)
	}
	return out
}

func startService(t *testing.T, svc *Service) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestServiceLoad(t *testing.T) {
	t.Run("missing value is empty", func(t *testing.T) {
		svc := NewService(memory.New(zap.NewNop()), testConfig(), zap.NewNop(), metrics.New(nil))
		startService(t, svc)

		got, err := svc.Load(context.Background())
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Empty(t, got)
	})

	t.Run("stored null is empty", func(t *testing.T) {
		store := memory.New(zap.NewNop())
		require.NoError(t, store.Set(context.Background(), domain.HistoryKey, []byte("null")))
		svc := NewService(store, testConfig(), zap.NewNop(), metrics.New(nil))
		startService(t, svc)

		got, err := svc.Load(context.Background())
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Empty(t, got)
	})

	t.Run("corrupt value is empty", func(t *testing.T) {
		store := memory.New(zap.NewNop())
		require.NoError(t, store.Set(context.Background(), domain.HistoryKey, []byte("{not json")))
		svc := NewService(store, testConfig(), zap.NewNop(), metrics.New(nil))
		startService(t, svc)

		got, err := svc.Load(context.Background())
		require.NoError(t, err)
		require.Empty(t, got)
	})

	t.Run("store error after retries", func(t *testing.T) {
		storeErr := errors.New("get failed")
		kv := &kvMock{}
		kv.On("Get", mock.Anything, domain.HistoryKey).Return(nil, false, storeErr)
		m := metrics.New(nil)
		svc := NewService(kv, testConfig(), zap.NewNop(), m)
		startService(t, svc)

		_, err := svc.Load(context.Background())
		require.ErrorIs(t, err, storeErr)
		require.Equal(t, float64(1), testutil.ToFloat64(m.HistoryLoadFailures))
		require.Greater(t, len(kv.Calls), 1, "expected retries")
	})

	t.Run("context cancelled while not running", func(t *testing.T) {
		svc := NewService(memory.New(zap.NewNop()), testConfig(), zap.NewNop(), metrics.New(nil))
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := svc.Load(ctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("stopped service", func(t *testing.T) {
		svc := NewService(memory.New(zap.NewNop()), testConfig(), zap.NewNop(), metrics.New(nil))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		svc.Run(ctx)

		_, err := svc.Load(context.Background())
		require.ErrorIs(t, err, ErrStopped)
		require.ErrorIs(t, svc.Append(notification("a")), ErrStopped)
	})
}

func TestServiceAppend(t *testing.T) {
	t.Run("keeps arrival order", func(t *testing.T) {
		store := memory.New(zap.NewNop())
		svc := NewService(store, testConfig(), zap.NewNop(), metrics.New(nil))
		startService(t, svc)

		for _, id := range []string{"a", "b", "c"} {
			require.NoError(t, svc.Append(notification(id)))
		}
		got, err := svc.Load(context.Background())
		require.NoError(t, err)
		require.Equal(t, []string{"a", "b", "c"}, ids(got))
		require.Equal(t, "title-a", got[0].Title)

		raw, ok, err := store.Get(context.Background(), domain.HistoryKey)
		require.NoError(t, err)
		require.True(t, ok)
		var stored []map[string]any
		require.NoError(t, json.Unmarshal(raw, &stored))
		require.Len(t, stored, 3)
		require.Equal(t, "com.example", stored[0]["package"])
		require.Contains(t, stored[0], "date")
		require.Contains(t, stored[0], "textLines")
	})

	t.Run("concurrent appends are not lost", func(t *testing.T) {
		svc := NewService(memory.New(zap.NewNop()), testConfig(), zap.NewNop(), metrics.New(nil))
		startService(t, svc)

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				require.NoError(t, svc.Append(notification(fmt.Sprint(i))))
			}(i)
		}
		wg.Wait()

		got, err := svc.Load(context.Background())
		require.NoError(t, err)
		require.Len(t, got, 50)
	})

	t.Run("does not block on a stalled store", func(t *testing.T) {
		store := &stalledStore{Store: memory.New(zap.NewNop()), release: make(chan struct{})}
		svc := NewService(store, testConfig(), zap.NewNop(), metrics.New(nil))
		startService(t, svc)

		const total = 300
		done := make(chan struct{})
		go func() {
			defer close(done)
			for i := 0; i < total; i++ {
				require.NoError(t, svc.Append(notification(fmt.Sprint(i))))
			}
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("append blocked while the store stalls")
		}

		close(store.release)
		got, err := svc.Load(context.Background())
		require.NoError(t, err)
		require.Len(t, got, total)
		require.Equal(t, "0", got[0].ID)
		require.Equal(t, fmt.Sprint(total-1), got[total-1].ID)
	})

	t.Run("rolls over at max", func(t *testing.T) {
		cfg := testConfig()
		cfg.HistoryMax = 2
		svc := NewService(memory.New(zap.NewNop()), cfg, zap.NewNop(), metrics.New(nil))
		startService(t, svc)

		for _, id := range []string{"a", "b", "c"} {
			require.NoError(t, svc.Append(notification(id)))
		}
		got, err := svc.Load(context.Background())
		require.NoError(t, err)
		require.Equal(t, []string{"b", "c"}, ids(got))
	})

	t.Run("retries transient set failure", func(t *testing.T) {
		kv := &kvMock{}
		kv.On("Get", mock.Anything, domain.HistoryKey).Return(nil, false, nil)
		kv.On("Set", mock.Anything, domain.HistoryKey, mock.Anything).Return(errors.New("busy")).Once()
		kv.On("Set", mock.Anything, domain.HistoryKey, mock.Anything).Return(nil).Once()
		m := metrics.New(nil)
		svc := NewService(kv, testConfig(), zap.NewNop(), m)
		startService(t, svc)

		require.NoError(t, svc.Append(notification("a")))
		_, err := svc.Load(context.Background())
		require.NoError(t, err)

		kv.AssertNumberOfCalls(t, "Set", 2)
		require.Equal(t, float64(0), testutil.ToFloat64(m.PersistFailures))
	})

	t.Run("persistent set failure is counted", func(t *testing.T) {
		kv := &kvMock{}
		kv.On("Get", mock.Anything, domain.HistoryKey).Return(nil, false, nil)
		kv.On("Set", mock.Anything, domain.HistoryKey, mock.Anything).Return(errors.New("disk full"))
		m := metrics.New(nil)
		svc := NewService(kv, testConfig(), zap.NewNop(), m)
		startService(t, svc)

		require.NoError(t, svc.Append(notification("a")))
		_, err := svc.Load(context.Background())
		require.NoError(t, err)
		require.Equal(t, float64(1), testutil.ToFloat64(m.PersistFailures))
	})

	t.Run("corrupt value is replaced", func(t *testing.T) {
		store := memory.New(zap.NewNop())
		require.NoError(t, store.Set(context.Background(), domain.HistoryKey, []byte("garbage")))
		svc := NewService(store, testConfig(), zap.NewNop(), metrics.New(nil))
		startService(t, svc)

		require.NoError(t, svc.Append(notification("a")))
		got, err := svc.Load(context.Background())
		require.NoError(t, err)
		require.Equal(t, []string{"a"}, ids(got))
	})

	t.Run("queued appends are flushed on shutdown", func(t *testing.T) {
		store := memory.New(zap.NewNop())
		svc := NewService(store, testConfig(), zap.NewNop(), metrics.New(nil))
		require.NoError(t, svc.Append(notification("a")))
		require.NoError(t, svc.Append(notification("b")))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		svc.Run(ctx)

		raw, ok, err := store.Get(context.Background(), domain.HistoryKey)
		require.NoError(t, err)
		require.True(t, ok)
		var stored []model.Notification
		require.NoError(t, json.Unmarshal(raw, &stored))
		require.Equal(t, []string{"a", "b"}, ids(stored))
	})
}
