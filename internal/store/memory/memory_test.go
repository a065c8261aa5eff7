package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	store := New(zap.NewNop())

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	value := []byte(`[{"title":"a"}]`)
	require.NoError(t, store.Set(ctx, "history", value))
	value[0] = 'x'

	got, ok, err := store.Get(ctx, "history")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `[{"title":"a"}]`, string(got))

	got[0] = 'y'
	again, _, err := store.Get(ctx, "history")
	require.NoError(t, err)
	require.Equal(t, `[{"title":"a"}]`, string(again))

	require.NoError(t, store.Set(ctx, "history", []byte(`[]`)))
	got, _, err = store.Get(ctx, "history")
	require.NoError(t, err)
	require.Equal(t, `[]`, string(got))
	require.NoError(t, store.Close())
}

func TestStoreLogsWrites(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	store := New(zap.New(core))

	require.NoError(t, store.Set(context.Background(), "history", []byte(`[]`)))

	entries := logs.FilterMessage("memory store set").All()
	require.Len(t, entries, 1)
	require.Equal(t, "history", entries[0].ContextMap()["key"])
	require.Equal(t, int64(2), entries[0].ContextMap()["bytes"])
}
