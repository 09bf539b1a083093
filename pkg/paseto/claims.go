package pasetotoken

import (
	"time"

	"github.com/google/uuid"
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Subject identifies who a token is issued to.
type Subject struct {
	UserID    uuid.UUID
	SessionID uuid.UUID
	Role      string
}

// Claims is the app-facing token payload. Role is informational: request
// handling reloads the profile and trusts the database, not the token.
type Claims struct {
	Type TokenType

	UserID    uuid.UUID
	SessionID uuid.UUID
	Role      string

	Issuer   string
	Audience string

	IssuedAt  time.Time
	NotBefore time.Time
	ExpiresAt time.Time
	TokenID   string // jti
}

func (c *Claims) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}
