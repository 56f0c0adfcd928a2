package model

import "time"

// Role is the closed set of staff roles known to the control room.
type Role string

const (
	RoleTA  Role = "TA"  // Technical Assistant
	RoleEOD Role = "EOD" // End of Day staff
	RoleAE  Role = "AE"  // Admin Executive
	RoleSEA Role = "SEA" // Senior Executive Assistant
	RoleEA  Role = "EA"  // Executive Assistant
)

// Roles lists every declared role in display order.
var Roles = []Role{RoleTA, RoleEOD, RoleAE, RoleSEA, RoleEA}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	switch r {
	case RoleTA, RoleEOD, RoleAE, RoleSEA, RoleEA:
		return true
	}
	return false
}

// Label returns the long form shown on the user directory.
func (r Role) Label() string {
	switch r {
	case RoleTA:
		return "Technical Assistant"
	case RoleEOD:
		return "End of Day Staff"
	case RoleAE:
		return "Admin Executive"
	case RoleSEA:
		return "Senior Executive Assistant"
	case RoleEA:
		return "Executive Assistant"
	}
	return string(r)
}

// User represents a member of staff
type User struct {
	ID           int       `json:"id"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"` // Do not expose password hash in JSON responses
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// EODUser is the slim projection used to fill the "EOD in shift" dropdown.
type EODUser struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Phone    string `json:"phone" binding:"required,number,min=10"`
	Password string `json:"password" binding:"required,min=6"`
}

// SeedUser is one entry of the seed file consumed by cmd/seed.
type SeedUser struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
}
