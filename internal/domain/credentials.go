package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TokenPrefix marks developer tokens so they can be told apart from JWTs.
const TokenPrefix = "6879-"

// AuthTicket is a login session record.
type AuthTicket struct {
	ID      string    `json:"id"`
	UserID  uuid.UUID `json:"user_id"`
	Expires time.Time `json:"expires"`
}

// Token is a long-lived developer API token.
type Token struct {
	ID      uuid.UUID `json:"id"`
	UserID  uuid.UUID `json:"user_id"`
	Value   string    `json:"value"`
	Expires time.Time `json:"expires"`
}

// NewAuthTicket creates a ticket that expires after lifetime.
func NewAuthTicket(userID uuid.UUID, lifetime time.Duration) (*AuthTicket, error) {
	if lifetime <= 0 {
		return nil, ErrInvalidExpiration
	}
	id, err := randomHex(24)
	if err != nil {
		return nil, err
	}
	return &AuthTicket{
		ID:      id,
		UserID:  userID,
		Expires: time.Now().UTC().Add(lifetime),
	}, nil
}

// NewToken creates a developer token that expires after lifetime.
func NewToken(userID uuid.UUID, lifetime time.Duration) (*Token, error) {
	if lifetime <= 0 {
		return nil, ErrInvalidExpiration
	}
	value, err := randomHex(32)
	if err != nil {
		return nil, err
	}
	return &Token{
		ID:      uuid.New(),
		UserID:  userID,
		Value:   TokenPrefix + value,
		Expires: time.Now().UTC().Add(lifetime),
	}, nil
}

// Expired reports whether the ticket is past its expiry at now.
func (t *AuthTicket) Expired(now time.Time) bool {
	return !now.Before(t.Expires)
}

// Expired reports whether the token is past its expiry at now.
func (t *Token) Expired(now time.Time) bool {
	return !now.Before(t.Expires)
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
