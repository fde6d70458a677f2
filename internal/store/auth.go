package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/phrazzld/marginalia/internal/domain"
)

// AuthStore persists login tickets and developer tokens.
type AuthStore interface {
	CreateAuthTicket(ctx context.Context, ticket *domain.AuthTicket) error

	// GetAuthTicket returns ErrAuthTicketNotFound for unknown or expired tickets.
	GetAuthTicket(ctx context.Context, id string) (*domain.AuthTicket, error)

	// DeleteExpiredAuthTickets removes tickets that expired before now and
	// returns how many were deleted.
	DeleteExpiredAuthTickets(ctx context.Context, now time.Time) (int64, error)

	CreateToken(ctx context.Context, token *domain.Token) error

	// GetTokenByValue returns ErrTokenNotFound for unknown or expired tokens.
	GetTokenByValue(ctx context.Context, value string) (*domain.Token, error)

	// DeleteExpiredTokens removes tokens that expired before now and returns
	// how many were deleted.
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)

	WithTx(tx *sql.Tx) AuthStore
}
