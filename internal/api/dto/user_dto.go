package dto

import "github.com/spec-kit/restaurant-backoffice/internal/domain"

// LoginRequest payload for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	Email    string      `json:"email,omitempty"`
	Role     domain.Role `json:"role,omitempty"`
}

// ChangePasswordRequest payload for password changes.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// AuthResponse is the data of a successful login.
type AuthResponse struct {
	Token string         `json:"token"`
	User  domain.Profile `json:"user"`
}

// UserRequest creates or updates an account.
type UserRequest struct {
	Username string      `json:"username,omitempty"`
	Password string      `json:"password,omitempty"`
	Email    string      `json:"email,omitempty"`
	Role     domain.Role `json:"role,omitempty"`
	Enabled  *bool       `json:"enabled,omitempty"`
}
