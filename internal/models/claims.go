package models

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Roles supplied by the external identity provider.
const (
	RoleStudent    = "student"
	RoleGroupAdmin = "group_admin"
	RoleAdmin      = "admin"
)

// UserClaims is the identity the external auth provider attaches to each
// call: who is acting, with which role, on behalf of which group.
type UserClaims struct {
	jwt.RegisteredClaims
	UserID  uuid.UUID  `json:"user_id"`
	Role    string     `json:"role"`
	GroupID *uuid.UUID `json:"group_id,omitempty"`
}

// IsAdmin reports whether the claims allow platform-admin operations.
func (c *UserClaims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// ManagesGroup reports whether the claims allow group-admin operations on
// the given group.
func (c *UserClaims) ManagesGroup(groupID uuid.UUID) bool {
	if c.Role == RoleAdmin {
		return true
	}
	return c.Role == RoleGroupAdmin && c.GroupID != nil && *c.GroupID == groupID
}
