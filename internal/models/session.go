package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is a DB-backed login session. The token travels as a cookie for
// browser clients or a bearer header for API clients.
type Session struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	User      User      `json:"-"`
	Token     string    `json:"token" gorm:"size:64;uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewSessionToken returns an opaque session token.
func NewSessionToken() string {
	return uuid.NewString()
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}
