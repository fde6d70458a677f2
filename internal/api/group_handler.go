package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/marginalia/internal/api/shared"
	"github.com/phrazzld/marginalia/internal/domain"
	"github.com/phrazzld/marginalia/internal/feature"
)

// GroupLister lists the groups a user may post to.
type GroupLister interface {
	AllGroups(ctx context.Context, user *domain.User, authority, documentURI string) ([]*domain.Group, error)
	RequestGroups(ctx context.Context, user *domain.User, authority, documentURI string) ([]*domain.Group, error)
}

// GroupFinder looks groups up by public id.
type GroupFinder interface {
	GetByPubID(ctx context.Context, pubid string) (*domain.Group, error)
}

// GroupMembership changes group membership.
type GroupMembership interface {
	MemberLeave(ctx context.Context, group *domain.Group, userid string) error
}

// GroupHandler serves the groups endpoints.
type GroupHandler struct {
	lister           GroupLister
	finder           GroupFinder
	members          GroupMembership
	links            LinksBuilder
	features         feature.Checker
	defaultAuthority string
	logger           *slog.Logger
}

// NewGroupHandler creates a GroupHandler. defaultAuthority is the authority
// of this service, used when a request does not name one.
func NewGroupHandler(
	lister GroupLister,
	finder GroupFinder,
	members GroupMembership,
	links LinksBuilder,
	features feature.Checker,
	defaultAuthority string,
	logger *slog.Logger,
) *GroupHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GroupHandler{
		lister:           lister,
		finder:           finder,
		members:          members,
		links:            links,
		features:         features,
		defaultAuthority: defaultAuthority,
		logger:           logger.With("component", "group_handler"),
	}
}

// List handles GET /api/groups.
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := shared.UserFromContext(ctx)
	authority := r.URL.Query().Get("authority")
	documentURI := r.URL.Query().Get("document_uri")

	var (
		groups []*domain.Group
		err    error
	)
	if h.features.EnabledOrFalse(ctx, feature.FilterGroupsByScope) {
		if authority == "" {
			authority = h.defaultAuthority
		}
		if user != nil {
			authority = user.Authority
		}
		groups, err = h.lister.RequestGroups(ctx, user, authority, documentURI)
	} else {
		groups, err = h.lister.AllGroups(ctx, user, authority, documentURI)
	}
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list groups")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewGroupsJSONPresenter(groups, h.links).AsDicts())
}

// RemoveMember handles DELETE /api/groups/{pubid}/members/{user}. Only
// "me" is accepted as the user.
func (h *GroupHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	if chi.URLParam(r, "user") != "me" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Only the 'me' user value is currently supported")
		return
	}

	group, err := h.finder.GetByPubID(r.Context(), chi.URLParam(r, "pubid"))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to leave group")
		return
	}
	if err := h.members.MemberLeave(r.Context(), group, user.UserID()); err != nil {
		HandleAPIError(w, r, err, "Failed to leave group")
		return
	}
	shared.RespondNoContent(w)
}
