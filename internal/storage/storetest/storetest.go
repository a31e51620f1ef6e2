// Package storetest holds the behaviour every storage engine must share.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/gitpeek/internal/storage"
)

// Clock is a manually advanced time source
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock stopped at start
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current fake time
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Factory opens a fresh, empty store driven by the given clock
type Factory func(t *testing.T, opts ...storage.Option) storage.Store

// Run exercises the Store contract against stores produced by newStore
func Run(t *testing.T, newStore Factory) {
	ctx := context.Background()
	start := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("get missing key", func(t *testing.T) {
		store := newStore(t, storage.WithClock(NewClock(start).Now))

		value, found, err := store.Get(ctx, "missing")

		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, value)
	})

	t.Run("set then get", func(t *testing.T) {
		store := newStore(t, storage.WithClock(NewClock(start).Now))

		require.NoError(t, store.Set(ctx, "user_activity:octocat:week:public", []byte(`{"a":1}`), time.Minute))
		value, found, err := store.Get(ctx, "user_activity:octocat:week:public")

		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, `{"a":1}`, string(value))
	})

	t.Run("set replaces value and expiry", func(t *testing.T) {
		clock := NewClock(start)
		store := newStore(t, storage.WithClock(clock.Now))

		require.NoError(t, store.Set(ctx, "k", []byte("old"), time.Minute))
		require.NoError(t, store.Set(ctx, "k", []byte("new"), time.Hour))
		clock.Advance(2 * time.Minute)

		value, found, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "new", string(value))
	})

	t.Run("expired entries are hidden", func(t *testing.T) {
		clock := NewClock(start)
		store := newStore(t, storage.WithClock(clock.Now))

		require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))
		clock.Advance(time.Minute)

		_, found, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, found, "an entry is expired at exactly its expiry instant")
	})

	t.Run("zero ttl never expires", func(t *testing.T) {
		clock := NewClock(start)
		store := newStore(t, storage.WithClock(clock.Now))

		require.NoError(t, store.Set(ctx, "k", []byte("v"), 0))
		clock.Advance(24 * 365 * time.Hour)

		_, found, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, found)

		removed, err := store.ClearExpired(ctx)
		require.NoError(t, err)
		assert.Zero(t, removed)
	})

	t.Run("delete", func(t *testing.T) {
		store := newStore(t, storage.WithClock(NewClock(start).Now))

		require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))
		require.NoError(t, store.Delete(ctx, "k"))
		require.NoError(t, store.Delete(ctx, "never-existed"))

		_, found, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("clear expired removes only expired entries", func(t *testing.T) {
		clock := NewClock(start)
		store := newStore(t, storage.WithClock(clock.Now))

		require.NoError(t, store.Set(ctx, "short-1", []byte("v"), time.Minute))
		require.NoError(t, store.Set(ctx, "short-2", []byte("v"), time.Minute))
		require.NoError(t, store.Set(ctx, "long", []byte("v"), time.Hour))
		clock.Advance(5 * time.Minute)

		removed, err := store.ClearExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), removed)

		_, found, err := store.Get(ctx, "long")
		require.NoError(t, err)
		assert.True(t, found)
	})
}
