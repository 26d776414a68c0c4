package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreIdleExpiry(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.now = func() time.Time { return clock }

	require.NoError(t, store.Save(ctx, "a", Data{AccessToken: "tok"}, time.Hour))

	clock = clock.Add(50 * time.Minute)
	require.NoError(t, store.Touch(ctx, "a", time.Hour))

	clock = clock.Add(50 * time.Minute)
	data, found, err := store.Load(ctx, "a")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "tok", data.AccessToken)

	clock = clock.Add(time.Hour)
	_, found, err = store.Load(ctx, "a")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStoreCleanup(t *testing.T) {
	ctx := context.Background()
	clock := time.Now()
	store := NewMemoryStore()
	store.now = func() time.Time { return clock }

	require.NoError(t, store.Save(ctx, "short", Data{}, time.Minute))
	require.NoError(t, store.Save(ctx, "long", Data{}, time.Hour))

	clock = clock.Add(2 * time.Minute)
	assert.Equal(t, 1, store.Cleanup())
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStoreTouchUnknownIsNoop(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Touch(context.Background(), "missing", time.Hour))
	assert.Equal(t, 0, store.Len())
}
