// Package authz describes console roles and the data-driven policy that maps
// them to landing routes and privilege tiers.
package authz

import (
	"fmt"
	"strings"
)

// Role is the role attached to a user profile by the server.
type Role string

const (
	RoleAdmin   Role = "ADMIN"   // Full control including user and agent management
	RoleManager Role = "MANAGER" // Administrative tier without role-restricted pages
	RoleAnalyst Role = "ANALYST" // Works on assets, scans and vulnerabilities
	RoleViewer  Role = "VIEWER"  // Read-only dashboards
	RoleUser    Role = "USER"    // End user, lands on the vulnerability list
)

// Roles lists every known role in descending privilege.
var Roles = []Role{RoleAdmin, RoleManager, RoleAnalyst, RoleViewer, RoleUser}

// ParseRole accepts any casing and rejects unknown roles.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Known() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Known reports whether r is one of Roles.
func (r Role) Known() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// Label returns a display name.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Administrator"
	case RoleManager:
		return "Manager"
	case RoleAnalyst:
		return "Security analyst"
	case RoleViewer:
		return "Viewer"
	case RoleUser:
		return "User"
	}
	return string(r)
}

// UserStatus is the account status of a user profile.
type UserStatus string

const (
	StatusActive   UserStatus = "ACTIVE"
	StatusInactive UserStatus = "INACTIVE"
	StatusLocked   UserStatus = "LOCKED"
)

// ParseUserStatus accepts any casing and rejects unknown values.
func ParseUserStatus(s string) (UserStatus, error) {
	st := UserStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusActive, StatusInactive, StatusLocked:
		return st, nil
	}
	return "", fmt.Errorf("unknown user status %q", s)
}

// UserProfile is the authenticated user's profile as returned by the API.
type UserProfile struct {
	ID         int64      `json:"id" yaml:"id"`
	Username   string     `json:"username" yaml:"username"`
	Email      string     `json:"email" yaml:"email"`
	FullName   string     `json:"fullName,omitempty" yaml:"fullName,omitempty"`
	Role       Role       `json:"role" yaml:"role"`
	Status     UserStatus `json:"status" yaml:"status"`
	Department string     `json:"department,omitempty" yaml:"department,omitempty"`
	Position   string     `json:"position,omitempty" yaml:"position,omitempty"`
	Phone      string     `json:"phone,omitempty" yaml:"phone,omitempty"`
}

// DisplayName prefers the full name.
func (u UserProfile) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
