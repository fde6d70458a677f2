package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/marginalia/internal/domain"
)

// GroupStore defines the interface for group and membership persistence.
type GroupStore interface {
	Create(ctx context.Context, group *domain.Group) error

	// GetByPubID returns ErrGroupNotFound if no group has the public id.
	GetByPubID(ctx context.Context, pubid string) (*domain.Group, error)

	// ListForUser returns the groups the user is a member of.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Group, error)

	// ListOpen returns the open groups of an authority.
	ListOpen(ctx context.Context, authority string) ([]*domain.Group, error)

	AddMember(ctx context.Context, groupID, userID uuid.UUID) error

	// RemoveMember is a no-op when the user is not a member.
	RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error

	WithTx(tx *sql.Tx) GroupStore
}
