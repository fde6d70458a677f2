package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/marginalia/internal/domain"
)

// SubscriptionStore persists notification subscriptions.
type SubscriptionStore interface {
	// Create inserts the subscription and sets its ID.
	Create(ctx context.Context, sub *domain.Subscription) error

	// GetByID returns ErrSubscriptionNotFound if the subscription does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Subscription, error)

	// GetActiveForTemplate returns every active subscription for template.
	GetActiveForTemplate(ctx context.Context, template domain.SubscriptionTemplate) ([]*domain.Subscription, error)

	// GetForURIAndTemplate returns the subscriptions of uri for template,
	// active or not.
	GetForURIAndTemplate(ctx context.Context, uri string, template domain.SubscriptionTemplate) ([]*domain.Subscription, error)

	// ListForURI returns all subscriptions of uri ordered by id.
	ListForURI(ctx context.Context, uri string) ([]*domain.Subscription, error)

	// SetActive returns ErrSubscriptionNotFound if the subscription does not exist.
	SetActive(ctx context.Context, id int64, active bool) error

	WithTx(tx *sql.Tx) SubscriptionStore
}
