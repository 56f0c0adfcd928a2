package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/biswajit-debnath/control-room/internal/model"
	"github.com/biswajit-debnath/control-room/internal/repository"

	"github.com/google/uuid"
)

// DefaultSessionTTL is how long a login stays valid.
const DefaultSessionTTL = 7 * 24 * time.Hour

// SessionStore maps opaque tokens to users
type SessionStore interface {
	Create(ctx context.Context, userID int, meta model.ClientMeta) (*model.Session, error)
	// Resolve returns the session's user, or ErrUnauthenticated when the token
	// is unknown, expired, or cannot be looked up.
	Resolve(ctx context.Context, token string) (*model.User, error)
	Destroy(ctx context.Context, token string) error
	PurgeExpired(ctx context.Context) (int64, error)
}

type sessionStore struct {
	sessions repository.SessionRepository
	users    repository.UserRepository
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates a new SessionStore. A non-positive ttl falls back to DefaultSessionTTL.
func NewSessionStore(sessions repository.SessionRepository, users repository.UserRepository, ttl time.Duration) SessionStore {
	return newSessionStore(sessions, users, ttl)
}

func newSessionStore(sessions repository.SessionRepository, users repository.UserRepository, ttl time.Duration) *sessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &sessionStore{sessions: sessions, users: users, ttl: ttl, now: time.Now}
}

func (s *sessionStore) Create(ctx context.Context, userID int, meta model.ClientMeta) (*model.Session, error) {
	token, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	now := s.now()
	session := &model.Session{
		Token:     token.String(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if meta.IPAddress != "" {
		session.IPAddress = &meta.IPAddress
	}
	if meta.UserAgent != "" {
		session.UserAgent = &meta.UserAgent
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	return session, nil
}

func (s *sessionStore) Resolve(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	session, err := s.sessions.FindByToken(ctx, token)
	if err != nil {
		log.Printf("Error resolving session, treating as unauthenticated: %v", err)
		return nil, ErrUnauthenticated
	}
	if session == nil {
		return nil, ErrUnauthenticated
	}

	if session.Expired(s.now()) {
		if err := s.sessions.Delete(ctx, token); err != nil {
			log.Printf("Error deleting expired session: %v", err)
		}
		return nil, ErrUnauthenticated
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		log.Printf("Error loading session user %d, treating as unauthenticated: %v", session.UserID, err)
		return nil, ErrUnauthenticated
	}
	if user == nil {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

func (s *sessionStore) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Delete(ctx, token)
}

func (s *sessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.now())
}
