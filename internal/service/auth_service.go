package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/biswajit-debnath/control-room/internal/authz"
	"github.com/biswajit-debnath/control-room/internal/model"
	"github.com/biswajit-debnath/control-room/internal/repository"
	"github.com/biswajit-debnath/control-room/internal/utils"

	"github.com/golang-jwt/jwt/v5"
)

// LoginResult is what a successful login hands back to the client
type LoginResult struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

// AuthService provides authentication and user directory services
type AuthService interface {
	Login(ctx context.Context, phone, password string, meta model.ClientMeta) (*LoginResult, error)
	Logout(ctx context.Context, token string) error
	// Authenticate resolves a client token to its user. Any failure is ErrUnauthenticated.
	Authenticate(ctx context.Context, token string) (*model.User, error)
	ListUsers(ctx context.Context, actor *model.User) ([]model.User, error)
	ListEODUsers(ctx context.Context) ([]model.EODUser, error)
	SeedUsers(ctx context.Context, users []model.SeedUser) error
}

type authService struct {
	userRepo     repository.UserRepository
	activityRepo repository.ActivityRepository
	sessions     SessionStore
	jwtUtil      *utils.JWTUtil
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repository.UserRepository, activityRepo repository.ActivityRepository, sessions SessionStore, jwtUtil *utils.JWTUtil) AuthService {
	return &authService{
		userRepo:     userRepo,
		activityRepo: activityRepo,
		sessions:     sessions,
		jwtUtil:      jwtUtil,
	}
}

// Login checks phone and password and opens a new session
func (s *authService) Login(ctx context.Context, phone, password string, meta model.ClientMeta) (*LoginResult, error) {
	user, err := s.userRepo.FindByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("error finding user by phone: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	session, err := s.sessions.Create(ctx, user.ID, meta)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	token, err := s.jwtUtil.GenerateToken(session.Token, user.ID, string(user.Role), session.CreatedAt, session.ExpiresAt)
	if err != nil {
		if derr := s.sessions.Destroy(ctx, session.Token); derr != nil {
			log.Printf("Error removing orphaned session for user %d: %v", user.ID, derr)
		}
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &LoginResult{User: user, Token: token, ExpiresAt: session.ExpiresAt}, nil
}

// Logout deletes the session behind token. Unknown or malformed tokens are ignored.
func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	sid, err := s.jwtUtil.SessionIDFromToken(token)
	if err != nil {
		return nil
	}
	if err := s.sessions.Destroy(ctx, sid); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := s.jwtUtil.ValidateToken(token)
	if errors.Is(err, jwt.ErrTokenExpired) {
		// The session row decides: Resolve drops it once it has lapsed.
		claims, err = s.jwtUtil.ClaimsIgnoringExpiry(token)
	}
	if err != nil {
		return nil, ErrUnauthenticated
	}
	user, err := s.sessions.Resolve(ctx, claims.SessionID)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	if user.ID != claims.UserID {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

// ListUsers returns the staff directory and records that actor viewed it
func (s *authService) ListUsers(ctx context.Context, actor *model.User) ([]model.User, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if !authz.Allow(actor.Role, authz.ActionViewUsers) {
		return nil, ErrForbidden
	}

	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	activity := &model.Activity{
		UserID:    actor.ID,
		Action:    model.ActivityView,
		Module:    model.ModuleUsers,
		Details:   fmt.Sprintf("Viewed %d users", len(users)),
		CreatedAt: time.Now(),
	}
	if err := s.activityRepo.Create(ctx, activity); err != nil {
		return nil, fmt.Errorf("failed to record user listing: %w", err)
	}
	return users, nil
}

func (s *authService) ListEODUsers(ctx context.Context) ([]model.EODUser, error) {
	users, err := s.userRepo.FindByRole(ctx, model.RoleEOD)
	if err != nil {
		return nil, fmt.Errorf("failed to list EOD users: %w", err)
	}
	return users, nil
}

// SeedUsers creates or refreshes the given accounts, keyed by phone number
func (s *authService) SeedUsers(ctx context.Context, users []model.SeedUser) error {
	for i, su := range users {
		if su.Phone == "" || su.Name == "" {
			return fmt.Errorf("%w: seed user %d needs a phone and a name", ErrValidation, i)
		}
		if len(su.Password) < 6 {
			return fmt.Errorf("%w: seed user %s has a password shorter than 6 characters", ErrValidation, su.Phone)
		}
		if !su.Role.Valid() {
			return fmt.Errorf("%w: seed user %s has unknown role %q", ErrValidation, su.Phone, su.Role)
		}
	}

	for _, su := range users {
		hash, err := utils.HashPassword(su.Password)
		if err != nil {
			return fmt.Errorf("failed to hash password for %s: %w", su.Phone, err)
		}
		user := &model.User{
			Phone:        su.Phone,
			PasswordHash: hash,
			Name:         su.Name,
			Role:         su.Role,
			CreatedAt:    time.Now(),
		}
		if err := s.userRepo.Upsert(ctx, user); err != nil {
			return fmt.Errorf("failed to seed user %s: %w", su.Phone, err)
		}
		log.Printf("Seeded user %s (%s, %s)", user.Name, user.Phone, user.Role)
	}
	return nil
}
