package domain

import (
	"slices"
	"time"
)

// Role names a permission role attached to a user.
type Role string

// RoleSuperAdmin bypasses project membership checks everywhere.
const RoleSuperAdmin Role = "super_admin"

// User is a person working on projects.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	ChatID       *string
	Roles        []Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasRole reports whether the user carries role.
func (u *User) HasRole(role Role) bool {
	if u == nil {
		return false
	}
	return slices.Contains(u.Roles, role)
}

// IsSuperAdmin is shorthand for HasRole(RoleSuperAdmin).
func (u *User) IsSuperAdmin() bool {
	return u.HasRole(RoleSuperAdmin)
}
