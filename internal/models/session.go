package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is a server-side record of an admin login. The token is a signed JWT.
type Session struct {
	Token      string    `json:"-" db:"token"`
	UserID     uuid.UUID `json:"userId" db:"user_id"`
	ExpiresAt  time.Time `json:"expiresAt" db:"expires_at"`
	IPAddress  *string   `json:"ipAddress,omitempty" db:"ip_address"`
	DeviceType *string   `json:"deviceType,omitempty" db:"device_type"`
	Browser    *string   `json:"browser,omitempty" db:"browser"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// IsExpired reports whether the session has passed its expiry at now
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// LoginRequest represents admin credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is returned after a successful login
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *User     `json:"user"`
}
