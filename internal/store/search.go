package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/marginalia/internal/domain"
)

// SearchQuery describes a full-text search over the index.
type SearchQuery struct {
	// Text is matched against annotation text and tags. Empty matches everything.
	Text string
	// Principals are the caller's read principals; only annotations they may
	// read are returned.
	Principals []string
	// UserID is the caller. Their own annotations are returned even if they
	// are NIPSA'd.
	UserID string
	Limit  int
	Offset int
}

// SearchIndex maintains the full-text index over annotations.
type SearchIndex interface {
	// Index inserts or replaces the annotation's index row.
	Index(ctx context.Context, annotation *domain.Annotation, nipsa bool) error

	// Remove deletes the annotation's index row. Missing rows are ignored.
	Remove(ctx context.Context, id uuid.UUID) error

	// SetNIPSA flips the nipsa flag on every row by userid and returns the
	// number of rows changed.
	SetNIPSA(ctx context.Context, userid string, nipsa bool) (int64, error)

	// Search returns matching annotations ordered by relevance then recency.
	Search(ctx context.Context, q SearchQuery) ([]*domain.Annotation, error)

	WithTx(tx *sql.Tx) SearchIndex
}
