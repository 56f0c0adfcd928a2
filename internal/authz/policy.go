// Package authz decides which staff roles may perform which actions.
// It is the only place signing rights are defined; middleware, services and
// the can_sign flag sent to clients all ask it.
package authz

import "github.com/biswajit-debnath/control-room/internal/model"

// Action is something a signed-in user may attempt.
type Action string

const (
	ActionSign            Action = "sign"
	ActionCreateOperation Action = "create_operation"
	ActionViewOperations  Action = "view_operations"
	ActionViewUsers       Action = "view_users"
)

// Allow reports whether role may perform action. Unknown roles and unknown
// actions are denied.
func Allow(role model.Role, action Action) bool {
	switch role {
	case model.RoleEOD, model.RoleAE:
		switch action {
		case ActionSign, ActionCreateOperation, ActionViewOperations, ActionViewUsers:
			return true
		}
	case model.RoleTA, model.RoleSEA, model.RoleEA:
		switch action {
		case ActionCreateOperation, ActionViewOperations, ActionViewUsers:
			return true
		}
	}
	return false
}

// CanSign reports whether role may countersign an operation record.
func CanSign(role model.Role) bool {
	return Allow(role, ActionSign)
}
