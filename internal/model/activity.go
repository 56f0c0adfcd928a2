package model

import "time"

const (
	ActivityCreate          = "CREATE"
	ActivityView            = "VIEW"
	ActivityUpdateSignature = "UPDATE_SIGNATURE"

	ModuleDGOperations = "DG_OPERATIONS"
	ModuleUsers        = "USERS"
)

// Activity is one append-only audit log entry
type Activity struct {
	ID        int64     `json:"id"`
	UserID    int       `json:"user_id"`
	Action    string    `json:"action"`
	Module    string    `json:"module"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}
