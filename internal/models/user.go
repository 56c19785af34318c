// internal/models/user.go
package models

import (
	"time"
)

// User roles. Supervisors author scenarios and review responses.
const (
	RoleStudent    = "student"
	RoleSupervisor = "supervisor"
)

// User is the local profile for an authenticated account. Identity
// itself comes from the auth token; this record carries the role and
// display attributes.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	FullName  string    `json:"full_name,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsSupervisor reports whether the user holds the supervisor role.
func (u *User) IsSupervisor() bool {
	return u.Role == RoleSupervisor
}
