package domain

import (
	"github.com/google/uuid"
)

type UserRole string

const (
	Admin   UserRole = "admin"
	Editor  UserRole = "editor"
	Viewer  UserRole = "viewer"
	Pending UserRole = "pending"
)

func (r UserRole) Valid() bool {
	return r == Admin || r == Editor || r == Viewer || r == Pending
}

type TokenPayload struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Role   UserRole
}

type Permissions struct {
	CanView        bool `json:"canView"`
	CanCreate      bool `json:"canCreate"`
	CanEdit        bool `json:"canEdit"`
	CanDelete      bool `json:"canDelete"`
	CanManageUsers bool `json:"canManageUsers"`
	CanExport      bool `json:"canExport"`
}

// PermissionsFor resolves a role to its permission set. Unknown roles get nothing.
func PermissionsFor(role UserRole) Permissions {
	switch role {
	case Admin:
		return Permissions{CanView: true, CanCreate: true, CanEdit: true, CanDelete: true, CanManageUsers: true, CanExport: true}
	case Editor:
		return Permissions{CanView: true, CanCreate: true, CanEdit: true, CanDelete: true, CanExport: true}
	case Viewer:
		return Permissions{CanView: true}
	default:
		return Permissions{}
	}
}

func (p *TokenPayload) Permissions() Permissions {
	if p == nil {
		return Permissions{}
	}
	return PermissionsFor(p.Role)
}
