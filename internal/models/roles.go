package models

import (
	"fmt"
	"strings"
)

// Role is the coarse access tier of a user.
type Role string

// Roles ordered from least to most privileged.
const (
	RoleExternal   Role = "EXT"
	RoleGatekeeper Role = "KEEP"
	RoleManager    Role = "MGR"
	RoleAdmin      Role = "ADMIN"
)

// AllRoles lists every role, least privileged first.
var AllRoles = []Role{RoleExternal, RoleGatekeeper, RoleManager, RoleAdmin}

// StaffRoles can see every resident.
var StaffRoles = []Role{RoleGatekeeper, RoleManager, RoleAdmin}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// IsStaff reports whether r belongs to the gatekeeper tier or above.
func (r Role) IsStaff() bool {
	for _, staff := range StaffRoles {
		if r == staff {
			return true
		}
	}
	return false
}

// ParseRole accepts a role name in any case.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}
