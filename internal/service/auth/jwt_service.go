// Package auth issues and validates session JWTs and hashes passwords.
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JWTService defines operations for managing JWT session tokens.
type JWTService interface {
	// GenerateToken creates a signed JWT bound to the auth ticket the login
	// created. The session ends when either the JWT or the ticket expires.
	GenerateToken(ctx context.Context, userID uuid.UUID, ticketID string) (string, error)

	// ValidateToken validates the provided token string and extracts the claims.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the validated content of a session JWT.
type Claims struct {
	// UserID is the unique identifier of the user the token was issued for.
	UserID uuid.UUID `json:"uid,omitempty"`

	// TicketID is the auth ticket backing the session.
	TicketID string `json:"tid,omitempty"`

	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
