package domain

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRolePatron        UserRole = "patron"
	UserRoleEditor        UserRole = "editor"
	UserRoleAdministrator UserRole = "administrator"
)

// Valid reports whether r is one of the three known roles.
func (r UserRole) Valid() bool {
	switch r {
	case UserRolePatron, UserRoleEditor, UserRoleAdministrator:
		return true
	}
	return false
}

// IsStaff reports whether the role may process loans and edit the catalog.
func (r UserRole) IsStaff() bool {
	return r == UserRoleEditor || r == UserRoleAdministrator
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone,omitempty"`
	Role         UserRole  `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserSummary is the slice of a user embedded in loan views.
type UserSummary struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email,omitempty"`
	Phone    string    `json:"phone,omitempty"`
}

func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, FullName: u.FullName, Email: u.Email, Phone: u.Phone}
}

// UserStats counts accounts by role and active flag.
type UserStats struct {
	Total          int `json:"total"`
	Active         int `json:"active"`
	Inactive       int `json:"inactive"`
	Patrons        int `json:"patrons"`
	Editors        int `json:"editors"`
	Administrators int `json:"administrators"`
}
