package dto

import "time"

// LoginRequest represents admin login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"exchange@example.edu"`
	Password string `json:"password" binding:"required,min=1"`
}

// SessionInfo identifies the signed-in administrator
type SessionInfo struct {
	Email     string    `json:"email" example:"exchange@example.edu"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// SessionResponse answers login and verify calls
type SessionResponse struct {
	Authenticated bool        `json:"authenticated" example:"true"`
	Session       SessionInfo `json:"session"`
}
