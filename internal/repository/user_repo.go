package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/biswajit-debnath/control-room/internal/model"

	"github.com/jackc/pgx/v5"
)

// UserRepository defines operations for user data
type UserRepository interface {
	Upsert(ctx context.Context, user *model.User) error
	FindByPhone(ctx context.Context, phone string) (*model.User, error)
	FindByID(ctx context.Context, id int) (*model.User, error)
	FindAll(ctx context.Context) ([]model.User, error)
	FindByRole(ctx context.Context, role model.Role) ([]model.EODUser, error)
}

type userRepository struct {
	db DBTX
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, phone, password_hash, name, role, created_at, updated_at`

func scanUser(row pgx.Row, user *model.User) error {
	var role string
	if err := row.Scan(&user.ID, &user.Phone, &user.PasswordHash, &user.Name, &role, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return err
	}
	user.Role = model.Role(role)
	return nil
}

// Upsert inserts a user or, if the phone number is taken, refreshes its name,
// role and password hash
func (r *userRepository) Upsert(ctx context.Context, user *model.User) error {
	sql := `INSERT INTO users (phone, password_hash, name, role, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $5)
            ON CONFLICT (phone) DO UPDATE
            SET password_hash = EXCLUDED.password_hash, name = EXCLUDED.name, role = EXCLUDED.role, updated_at = NOW()
            RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, sql, user.Phone, user.PasswordHash, user.Name, string(user.Role), user.CreatedAt).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// FindByPhone retrieves a user by their phone number
func (r *userRepository) FindByPhone(ctx context.Context, phone string) (*model.User, error) {
	user := &model.User{}
	sql := `SELECT ` + userColumns + ` FROM users WHERE phone = $1`
	if err := scanUser(r.db.QueryRow(ctx, sql, phone), user); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found, service layer decides what that means
		}
		return nil, fmt.Errorf("failed to find user by phone: %w", err)
	}
	return user, nil
}

// FindByID retrieves a user by their ID
func (r *userRepository) FindByID(ctx context.Context, id int) (*model.User, error) {
	user := &model.User{}
	sql := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if err := scanUser(r.db.QueryRow(ctx, sql, id), user); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindAll lists every user, newest first
func (r *userRepository) FindAll(ctx context.Context) ([]model.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

// FindByRole lists users holding role, ordered by name
func (r *userRepository) FindByRole(ctx context.Context, role model.Role) ([]model.EODUser, error) {
	sql := `SELECT id, name, phone FROM users WHERE role = $1 ORDER BY name ASC`
	rows, err := r.db.Query(ctx, sql, string(role))
	if err != nil {
		return nil, fmt.Errorf("failed to query users by role: %w", err)
	}
	defer rows.Close()

	users := []model.EODUser{}
	for rows.Next() {
		var u model.EODUser
		if err := rows.Scan(&u.ID, &u.Name, &u.Phone); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}
