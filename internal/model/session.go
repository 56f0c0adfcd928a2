package model

import "time"

// Session binds an opaque token to one user until ExpiresAt.
type Session struct {
	Token     string    `json:"token"`
	UserID    int       `json:"user_id"`
	IPAddress *string   `json:"ip_address,omitempty"`
	UserAgent *string   `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// ClientMeta carries request details recorded alongside a new session.
type ClientMeta struct {
	IPAddress string
	UserAgent string
}
