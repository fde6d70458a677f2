package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/phrazzld/marginalia/internal/api/shared"
	"github.com/phrazzld/marginalia/internal/domain"
	"github.com/phrazzld/marginalia/internal/platform/logger"
)

// formUnsubscribe is the __formid__ value of emailed unsubscribe links.
const formUnsubscribe = "unsubscribe"

// SubscriptionManager reads and changes notification subscriptions.
type SubscriptionManager interface {
	List(ctx context.Context, user *domain.User) ([]*domain.Subscription, error)
	SetActive(ctx context.Context, user *domain.User, id int64, active bool) (*domain.Subscription, error)
	Unsubscribe(ctx context.Context, user *domain.User, id int64) error
}

// NotificationHandler serves notification preferences and the emailed
// unsubscribe link.
type NotificationHandler struct {
	subscriptions SubscriptionManager
	logger        *slog.Logger
}

// NewNotificationHandler creates a NotificationHandler.
func NewNotificationHandler(subscriptions SubscriptionManager, logger *slog.Logger) *NotificationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationHandler{subscriptions: subscriptions, logger: logger.With("component", "notification_handler")}
}

// List handles GET /api/profile/notifications.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	subs, err := h.subscriptions.List(r.Context(), user)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list notifications")
		return
	}
	out := make([]SubscriptionResponse, 0, len(subs))
	for _, s := range subs {
		out = append(out, subscriptionToResponse(s))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}

// Toggle handles PUT /api/profile/notifications/{id}.
func (h *NotificationHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := getPathInt64(r, "id")
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid subscription ID", err)
		return
	}
	var req ToggleSubscriptionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	sub, err := h.subscriptions.SetActive(r.Context(), user, id, *req.Active)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update notification")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, subscriptionToResponse(sub))
}

// Form handles GET /app. The only form it knows is the unsubscribe link
// embedded in notification emails, which carries no credentials. When the
// caller is signed in the subscription must be theirs.
func (h *NotificationHandler) Form(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("__formid__") != formUnsubscribe {
		shared.RespondWithError(w, r, http.StatusNotFound, "Unknown form")
		return
	}
	id, err := strconv.ParseInt(q.Get("subscription_id"), 10, 64)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid subscription ID", err)
		return
	}

	if err := h.subscriptions.Unsubscribe(r.Context(), shared.UserFromContext(r.Context()), id); err != nil {
		HandleAPIError(w, r, err, "Failed to unsubscribe")
		return
	}
	logger.FromContextOrDefault(r.Context(), h.logger).Debug("unsubscribed from link", "subscription_id", id)
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]any{"subscription_id": id, "active": false})
}
