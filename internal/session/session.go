// Package session keeps OAuth sessions in a storage.Store keyed by random ids.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kurihiro0119/gitpeek/internal/domain"
	"github.com/kurihiro0119/gitpeek/internal/storage"
)

// DefaultTTL is how long a session stays valid after creation
const DefaultTTL = 7 * 24 * time.Hour

// record is the persisted form of a session; unlike domain.Session it carries the token
type record struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	Login     string    `json:"login"`
	AvatarURL string    `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Manager creates and resolves sessions
type Manager struct {
	store  storage.Store
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewManager creates a session manager on store
func NewManager(store storage.Store, ttl time.Duration, now func() time.Time, logger *slog.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, ttl: ttl, now: now, logger: logger}
}

// Create stores a new session for token and returns it
func (m *Manager) Create(ctx context.Context, token, login, avatarURL string) (*domain.Session, error) {
	now := m.now().UTC()
	rec := record{
		ID:        uuid.New().String(),
		Token:     token,
		Login:     login,
		AvatarURL: avatarURL,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	if err := storage.SetJSON(ctx, m.store, rec.ID, rec, m.ttl); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	m.logger.Info("Session created", "login", login, "expires_at", rec.ExpiresAt)
	return rec.toSession(), nil
}

// Get returns the live session with id, or nil when it is unknown or expired
func (m *Manager) Get(ctx context.Context, id string) (*domain.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	var rec record
	found, err := storage.GetJSON(ctx, m.store, id, &rec)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if !found {
		return nil, nil
	}

	session := rec.toSession()
	if session.Expired(m.now()) {
		return nil, nil
	}
	return session, nil
}

// Delete removes the session with id
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// ClearExpired removes expired sessions from the store
func (m *Manager) ClearExpired(ctx context.Context) (int64, error) {
	return m.store.ClearExpired(ctx)
}

func (r record) toSession() *domain.Session {
	return &domain.Session{
		ID:        r.ID,
		Token:     r.Token,
		Login:     r.Login,
		AvatarURL: r.AvatarURL,
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
	}
}
