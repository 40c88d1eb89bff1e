package session

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of the portal session.
type Status int

const (
	// StatusUnknown is the state before the saved token has been looked at.
	StatusUnknown Status = iota
	// StatusVerifying means a saved token is being checked or a login is in flight.
	StatusVerifying
	StatusAuthenticated
	StatusUnauthenticated
)

func (s Status) String() string {
	switch s {
	case StatusVerifying:
		return "verifying"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Role of an authenticated user. The zero value means "no role".
type Role int

const (
	RoleNone Role = iota
	RoleAdmin
	RoleClient
)

// ParseRole maps a wire value to a Role. "cliente" is what older backends
// send for client accounts.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin, nil
	case "client", "cliente":
		return RoleClient, nil
	default:
		return RoleNone, fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleClient:
		return "client"
	default:
		return ""
	}
}

// RootPath is the landing route of the role's portal.
func (r Role) RootPath() string {
	switch r {
	case RoleAdmin:
		return "/admin"
	case RoleClient:
		return "/client"
	default:
		return "/"
	}
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	role, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// User is the identity returned by the backend on login and verify.
type User struct {
	ID    int64  `json:"id"`
	Type  Role   `json:"type"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u *User) valid() bool {
	return u != nil && u.Type != RoleNone
}

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	Status  Status `json:"status"`
	User    *User  `json:"user,omitempty"`
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

// IsAuthenticated holds only when a user is present.
func (s Snapshot) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated && s.User != nil
}

// Role of the current user, RoleNone when there is none.
func (s Snapshot) Role() Role {
	if s.User == nil {
		return RoleNone
	}
	return s.User.Type
}
