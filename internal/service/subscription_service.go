package service

import (
	"context"
	"log/slog"

	"github.com/phrazzld/marginalia/internal/domain"
	"github.com/phrazzld/marginalia/internal/platform/logger"
	"github.com/phrazzld/marginalia/internal/store"
)

// SubscriptionService manages a user's notification preferences.
type SubscriptionService struct {
	subscriptions store.SubscriptionStore
	logger        *slog.Logger
}

// NewSubscriptionService creates a SubscriptionService.
func NewSubscriptionService(subscriptions store.SubscriptionStore, logger *slog.Logger) *SubscriptionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubscriptionService{
		subscriptions: subscriptions,
		logger:        logger.With("component", "subscription_service"),
	}
}

// List returns the user's subscriptions.
func (s *SubscriptionService) List(ctx context.Context, user *domain.User) ([]*domain.Subscription, error) {
	subs, err := s.subscriptions.ListForURI(ctx, user.UserID())
	if err != nil {
		return nil, NewServiceError("subscription", "list", err)
	}
	return subs, nil
}

// SetActive toggles one of the user's subscriptions.
func (s *SubscriptionService) SetActive(ctx context.Context, user *domain.User, id int64, active bool) (*domain.Subscription, error) {
	sub, err := s.subscriptions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.URI != user.UserID() {
		return nil, ErrNotOwned
	}
	if err := s.subscriptions.SetActive(ctx, id, active); err != nil {
		return nil, err
	}
	sub.Active = active
	return sub, nil
}

// Unsubscribe deactivates a subscription from an emailed link. The link
// carries no credentials, so an anonymous holder may unsubscribe. A signed-in
// user may only unsubscribe their own subscriptions.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, user *domain.User, id int64) error {
	if user != nil {
		sub, err := s.subscriptions.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if sub.URI != user.UserID() {
			logger.FromContextOrDefault(ctx, s.logger).Warn("unsubscribe link used by another user",
				"subscription_id", id, "userid", user.UserID())
			return ErrNotOwned
		}
	}
	if err := s.subscriptions.SetActive(ctx, id, false); err != nil {
		return err
	}
	logger.FromContextOrDefault(ctx, s.logger).Info("unsubscribed", "subscription_id", id)
	return nil
}
