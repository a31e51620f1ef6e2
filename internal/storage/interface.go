package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Table names for the two stores the service keeps
const (
	CacheTable   = "cached_responses"
	SessionTable = "user_sessions"
)

// Store is the abstract key-value interface shared by the response cache and
// the session store. Entries past their expiry are never returned.
type Store interface {
	// Get returns the value stored under key; found is false for missing or expired entries
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set stores value under key, replacing any existing entry. A ttl <= 0 never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error

	// ClearExpired removes expired entries and reports how many were removed
	ClearExpired(ctx context.Context) (int64, error)

	// Connection management
	Close() error
}

// ValidateTable rejects table names other than the known ones. Table names
// are interpolated into SQL, so only constants are accepted.
func ValidateTable(table string) error {
	switch table {
	case CacheTable, SessionTable:
		return nil
	default:
		return fmt.Errorf("unknown table %q", table)
	}
}

// Options holds settings shared by every engine
type Options struct {
	Now func() time.Time
}

// Option configures an engine
type Option func(*Options)

// WithClock overrides the clock used to compute and check expiry
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		o.Now = now
	}
}

// ApplyOptions resolves opts over the defaults
func ApplyOptions(opts ...Option) Options {
	o := Options{Now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ExpiresAt converts a ttl to the stored expiry in unix milliseconds. Zero
// means no expiry.
func ExpiresAt(now time.Time, ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return now.Add(ttl).UnixMilli()
}

// GetJSON reads key and decodes it into v
func GetJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	data, found, err := s.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key
func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.Set(ctx, key, data, ttl)
}
