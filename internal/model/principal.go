package model

import "github.com/google/uuid"

// Principal is the authenticated caller extracted from the access token.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Name   string
	Role   Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) IsSupervisor() bool {
	return p.Role == RoleSupervisor || p.Role == RoleAdmin
}

func (p Principal) Can(action Action) bool {
	return Can(p.Role, action)
}
