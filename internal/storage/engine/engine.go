// Package engine selects the storage engine named by the configuration.
package engine

import (
	"fmt"

	"github.com/kurihiro0119/gitpeek/internal/config"
	"github.com/kurihiro0119/gitpeek/internal/storage"
	"github.com/kurihiro0119/gitpeek/internal/storage/memory"
	"github.com/kurihiro0119/gitpeek/internal/storage/postgres"
	"github.com/kurihiro0119/gitpeek/internal/storage/sqlite"
)

// Open returns the store for table on the configured engine
func Open(cfg *config.Config, table string, opts ...storage.Option) (storage.Store, error) {
	switch cfg.StorageType {
	case "memory":
		return memory.NewMemoryStore(opts...), nil
	case "postgres":
		store, err := postgres.NewPostgresStore(cfg.PostgresURL, table, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL storage: %w", err)
		}
		return store, nil
	case "sqlite", "":
		store, err := sqlite.NewSQLiteStore(cfg.SQLitePath, table, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite storage: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.StorageType)
	}
}

// Stores is the pair of stores the service runs on
type Stores struct {
	Cache    storage.Store
	Sessions storage.Store
}

// OpenAll opens the cache and session stores
func OpenAll(cfg *config.Config, opts ...storage.Option) (*Stores, error) {
	cache, err := Open(cfg, storage.CacheTable, opts...)
	if err != nil {
		return nil, err
	}
	sessions, err := Open(cfg, storage.SessionTable, opts...)
	if err != nil {
		cache.Close()
		return nil, err
	}
	return &Stores{Cache: cache, Sessions: sessions}, nil
}

// Close closes both stores
func (s *Stores) Close() error {
	cacheErr := s.Cache.Close()
	if err := s.Sessions.Close(); err != nil {
		return err
	}
	return cacheErr
}
