package models

import (
	"time"
)

type User struct {
	ID           int        `json:"-"`
	Email        string     `json:"email"`
	Username     string     `json:"username,omitempty"`
	PasswordHash string     `json:"-"`
	IsVerified   bool       `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login"`
}

type OTP struct {
	ID        int       `json:"-"`
	Email     string    `json:"email"`
	Code      string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	IsUsed    bool      `json:"-"`
}

type BlacklistedToken struct {
	ID        int       `json:"-"`
	Token     string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
