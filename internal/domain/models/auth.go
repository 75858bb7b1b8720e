package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SupabaseClaims represents the JWT claims structure from Supabase Auth.
// See: https://supabase.com/docs/guides/auth/jwts
type SupabaseClaims struct {
	jwt.RegisteredClaims
	Email       string `json:"email"`
	Role        string `json:"role"` // "authenticated" or "anon"
	SessionID   string `json:"session_id"`
	IsAnonymous bool   `json:"is_anonymous"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *SupabaseClaims) GetUserID() string {
	return c.Subject
}

// Session is the signed-in identity the workspace is scoped to.
type Session struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// AuthEventType distinguishes sign-in from sign-out transitions.
type AuthEventType string

const (
	AuthEventSignedIn  AuthEventType = "signed_in"
	AuthEventSignedOut AuthEventType = "signed_out"
)

// AuthEvent is one transition on the identity stream. Session is nil for
// sign-out events.
type AuthEvent struct {
	Type    AuthEventType
	Session *Session
}
