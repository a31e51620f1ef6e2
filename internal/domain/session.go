package domain

import "time"

// Session binds an opaque session id to a GitHub credential
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"-"`
	Login     string    `json:"login"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is no longer usable at now
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Credential is the resolved identity handed to the activity service.
// An empty Token means the public scope.
type Credential struct {
	Token string
	Login string
}

// Authenticated reports whether the credential carries a token
func (c Credential) Authenticated() bool {
	return c.Token != ""
}
