package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/marginalia/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create saves a new user.
	// Returns ErrUsernameExists or ErrEmailExists on conflicts within the authority.
	Create(ctx context.Context, user *domain.User) error

	// GetByID returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByUsername looks a user up by username within an authority.
	// Usernames compare case-insensitively.
	GetByUsername(ctx context.Context, username, authority string) (*domain.User, error)

	// SetSubscriptions records whether the user has a reply subscription.
	SetSubscriptions(ctx context.Context, id uuid.UUID, subscribed bool) error

	// SetNIPSA flags or unflags the user.
	SetNIPSA(ctx context.Context, id uuid.UUID, nipsa bool) error

	// Rename changes the username. Returns ErrUsernameExists on conflict.
	Rename(ctx context.Context, id uuid.UUID, username string) error

	WithTx(tx *sql.Tx) UserStore
}
