package models

import (
	"fmt"
	"strings"
)

// Roles the backend assigns.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the account snapshot returned by the backend and cached locally as JSON.
type User struct {
	ID          string `json:"_id"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	FullName    string `json:"fullName,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	CoverImage  string `json:"coverImage,omitempty"`
	Role        string `json:"role,omitempty"`
	Description string `json:"description,omitempty"`
	IsVerified  bool   `json:"isVerified,omitempty"`
}

// Validate reports whether u identifies an account.
func (u *User) Validate() error {
	if u == nil {
		return fmt.Errorf("user is nil")
	}
	if strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("user id is required")
	}
	return nil
}

// DisplayName prefers the full name, then the username, then the email.
func (u *User) DisplayName() string {
	switch {
	case u == nil:
		return ""
	case u.FullName != "":
		return u.FullName
	case u.Username != "":
		return u.Username
	default:
		return u.Email
	}
}

// IsAdmin reports whether u carries the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
