package repository

import (
	"context"
	"fmt"

	"github.com/biswajit-debnath/control-room/internal/model"
)

// ActivityRepository appends audit log entries. There is no update or delete.
type ActivityRepository interface {
	Create(ctx context.Context, activity *model.Activity) error
}

type activityRepository struct {
	db DBTX
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db DBTX) ActivityRepository {
	return &activityRepository{db: db}
}

const insertActivitySQL = `INSERT INTO activities (user_id, action, module, details, created_at)
            VALUES ($1, $2, $3, $4, $5) RETURNING id`

// Create appends an activity
func (r *activityRepository) Create(ctx context.Context, a *model.Activity) error {
	err := r.db.QueryRow(ctx, insertActivitySQL, a.UserID, a.Action, a.Module, a.Details, a.CreatedAt).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}
