package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/marginalia/internal/domain"
)

// AnnotationStore defines the interface for annotation persistence.
type AnnotationStore interface {
	Create(ctx context.Context, annotation *domain.Annotation) error

	// GetByID returns ErrAnnotationNotFound if the annotation does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Annotation, error)

	// Delete returns ErrAnnotationNotFound if the annotation does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListIDsByUser returns the ids of every annotation written by userid.
	ListIDsByUser(ctx context.Context, userid string) ([]uuid.UUID, error)

	// ReassignUser rewrites the author of every annotation from oldUserID to
	// newUserID and returns the affected ids.
	ReassignUser(ctx context.Context, oldUserID, newUserID string) ([]uuid.UUID, error)

	WithTx(tx *sql.Tx) AnnotationStore
}
