package enums

import (
	"fmt"
	"strings"
)

// RolePrefix is the mandatory prefix every persisted role carries. The
// authorization evaluator treats its absence as data corruption, not as a
// distinct role.
const RolePrefix = "ROLE_"

// Role represents the single authority tag attached to a user.
type Role string

const (
	RoleUser    Role = "ROLE_USER"
	RoleManager Role = "ROLE_MANAGER"
	RoleAdmin   Role = "ROLE_ADMIN"
)

var validRoles = []Role{
	RoleUser,
	RoleManager,
	RoleAdmin,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// Name returns the role without the ROLE_ prefix (ADMIN, MANAGER, USER).
func (r Role) Name() string {
	return strings.TrimPrefix(string(r), RolePrefix)
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
