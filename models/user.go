package models

import "time"

// UserRole controls what a user may administer. Ordinary chat features
// only require "user".
type UserRole string

const (
	UserRoleUser   UserRole = "user"
	UserRoleEditor UserRole = "editor"
	UserRoleAdmin  UserRole = "admin"
)

// Preferences are per-user UI and model defaults.
type Preferences struct {
	Theme        string `json:"theme,omitempty"`
	Language     string `json:"language,omitempty"`
	DefaultModel string `json:"defaultModel,omitempty"`
}

// User is an account record. PasswordHash is never serialized.
type User struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Photo        string      `json:"photo,omitempty"`
	Role         UserRole    `json:"role"`
	PasswordHash string      `json:"-"`
	Active       bool        `json:"-"`
	Preferences  Preferences `json:"preferences"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}
