package models

import (
	"errors"
	"fmt"
)

// Role is a user's console role.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// FolderPermission is the access level granted on an assigned folder.
type FolderPermission string

const (
	PermRead  FolderPermission = "read"
	PermWrite FolderPermission = "write"
	PermFull  FolderPermission = "full"
)

// Valid reports whether p is a known permission level.
func (p FolderPermission) Valid() bool {
	switch p {
	case PermRead, PermWrite, PermFull:
		return true
	}
	return false
}

// FolderAssignment grants a user access to a folder path.
type FolderAssignment struct {
	ID         string           `json:"id,omitempty"`
	FolderPath string           `json:"folder_path"`
	Permission FolderPermission `json:"permission"`
	IsActive   bool             `json:"is_active,omitempty"`
	CreatedAt  Timestamp        `json:"created_at"`
}

// User is an account of the transfer service.
type User struct {
	ID                string             `json:"id"`
	Username          string             `json:"username"`
	Email             string             `json:"email"`
	Role              Role               `json:"role"`
	IsActive          bool               `json:"is_active"`
	EnableSFTP        bool               `json:"enable_sftp"`
	LastLogin         Timestamp          `json:"last_login"`
	CreatedAt         Timestamp          `json:"created_at"`
	UpdatedAt         Timestamp          `json:"updated_at"`
	FolderAssignments []FolderAssignment `json:"folder_assignments,omitempty"`
}

// IsAdmin reports whether the user has the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Validate checks the fields every user payload must carry.
func (u User) Validate() error {
	if u.ID == "" {
		return errors.New("user: missing id")
	}
	if u.Username == "" {
		return errors.New("user: missing username")
	}
	switch u.Role {
	case RoleAdmin, RoleUser:
	default:
		return fmt.Errorf("user %s: unknown role %q", u.Username, u.Role)
	}
	return nil
}
