package dto

import "github.com/mememage/mememage/internal/model"

// SignupRequest represents the request body for creating an account.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the request body for logging in.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	Token string         `json:"token"`
	User  model.UserInfo `json:"user"`
}
