package types

import (
	"fmt"
	"strings"
)

// Role is the global authorization role of a user.
type Role string

const (
	RoleBuyer Role = "buyer"
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

// ParseRole converts user input into a Role. An empty value yields RoleBuyer.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case "", RoleBuyer:
		return RoleBuyer, nil
	case RoleAgent:
		return RoleAgent, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

// Principal is the authenticated identity attached to a request.
// A nil *Principal stands for an anonymous visitor.
type Principal struct {
	UserID int  `json:"user_id"`
	Role   Role `json:"role"`
}

// IsAdmin reports whether p is an authenticated administrator.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}
