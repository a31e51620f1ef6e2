package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "")
	t.Setenv("CACHE_TTL", "")
	t.Setenv("FETCH_CONCURRENCY", "")
	t.Setenv("CORS_ORIGINS", "")
	t.Setenv("GITHUB_MIN_DELAY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.StorageType)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 5, cfg.FetchConcurrency)
	assert.Equal(t, 100*time.Millisecond, cfg.MinDelay)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.CORSOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "memory")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("FETCH_CONCURRENCY", "2")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("GITHUB_MIN_DELAY", "250ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.StorageType)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, 2, cfg.FetchConcurrency)
	assert.Equal(t, 250*time.Millisecond, cfg.MinDelay)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			StorageType:      "memory",
			PageSize:         100,
			FetchConcurrency: 5,
			CacheTTL:         time.Minute,
			SessionTTL:       time.Hour,
			CleanupInterval:  time.Hour,
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("postgres requires url", func(t *testing.T) {
		cfg := base()
		cfg.StorageType = "postgres"
		err := cfg.Validate()
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "POSTGRES_URL", cfgErr.Field)
	})

	t.Run("page size bounded", func(t *testing.T) {
		cfg := base()
		cfg.PageSize = 101
		assert.Error(t, cfg.Validate())
	})

	t.Run("concurrency at least one", func(t *testing.T) {
		cfg := base()
		cfg.FetchConcurrency = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("cleanup interval positive", func(t *testing.T) {
		cfg := base()
		cfg.CleanupInterval = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown storage", func(t *testing.T) {
		cfg := base()
		cfg.StorageType = "redis"
		assert.Error(t, cfg.Validate())
	})
}
