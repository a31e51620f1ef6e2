package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/gitpeek/internal/config"
)

func TestOpenAll_SQLiteSharesOneFile(t *testing.T) {
	cfg := &config.Config{StorageType: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "gitpeek.db")}

	stores, err := OpenAll(cfg)
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()
	require.NoError(t, stores.Cache.Set(ctx, "k", []byte("cache"), time.Minute))
	require.NoError(t, stores.Sessions.Set(ctx, "k", []byte("session"), time.Minute))

	cached, _, err := stores.Cache.Get(ctx, "k")
	require.NoError(t, err)
	session, _, err := stores.Sessions.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "cache", string(cached))
	assert.Equal(t, "session", string(session))
}

func TestOpen_Memory(t *testing.T) {
	store, err := Open(&config.Config{StorageType: "memory"}, "cached_responses")
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

func TestOpen_UnknownEngine(t *testing.T) {
	_, err := Open(&config.Config{StorageType: "redis"}, "cached_responses")
	assert.ErrorContains(t, err, "unknown storage type")
}

func TestOpen_UnknownTable(t *testing.T) {
	cfg := &config.Config{StorageType: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "gitpeek.db")}
	_, err := Open(cfg, "users; DROP TABLE users")
	assert.Error(t, err)
}
