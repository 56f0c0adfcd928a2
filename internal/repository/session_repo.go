package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/biswajit-debnath/control-room/internal/model"

	"github.com/jackc/pgx/v5"
)

// SessionRepository defines operations for session rows
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	FindByToken(ctx context.Context, token string) (*model.Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type sessionRepository struct {
	db DBTX
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db DBTX) SessionRepository {
	return &sessionRepository{db: db}
}

// Create inserts a new session. The token column is the primary key, so a
// duplicate token fails instead of silently sharing a row.
func (r *sessionRepository) Create(ctx context.Context, s *model.Session) error {
	sql := `INSERT INTO sessions (token, user_id, ip_address, user_agent, created_at, expires_at)
            VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.Exec(ctx, sql, s.Token, s.UserID, s.IPAddress, s.UserAgent, s.CreatedAt, s.ExpiresAt); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindByToken retrieves a session by token, expired or not
func (r *sessionRepository) FindByToken(ctx context.Context, token string) (*model.Session, error) {
	s := &model.Session{}
	sql := `SELECT token, user_id, ip_address, user_agent, created_at, expires_at FROM sessions WHERE token = $1`
	err := r.db.QueryRow(ctx, sql, token).Scan(&s.Token, &s.UserID, &s.IPAddress, &s.UserAgent, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return s, nil
}

// Delete removes a session. Deleting a missing token is not an error.
func (r *sessionRepository) Delete(ctx context.Context, token string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes every session whose expiry is at or before now
func (r *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}
