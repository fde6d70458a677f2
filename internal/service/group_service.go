package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/marginalia/internal/domain"
	"github.com/phrazzld/marginalia/internal/platform/logger"
	"github.com/phrazzld/marginalia/internal/store"
)

// ListGroupsService answers "which groups can this user post to here?".
type ListGroupsService struct {
	groups           store.GroupStore
	defaultAuthority string
}

// NewListGroupsService creates a ListGroupsService. An empty authority
// argument falls back to defaultAuthority.
func NewListGroupsService(groups store.GroupStore, defaultAuthority string) *ListGroupsService {
	return &ListGroupsService{groups: groups, defaultAuthority: defaultAuthority}
}

// AllGroups returns the open groups of the authority followed by the
// user's own groups. documentURI is ignored.
func (s *ListGroupsService) AllGroups(
	ctx context.Context,
	user *domain.User,
	authority, documentURI string,
) ([]*domain.Group, error) {
	return s.list(ctx, user, authority, func(*domain.Group) bool { return true })
}

// RequestGroups is AllGroups with scoped open groups limited to documents
// under one of their scopes. Without a documentURI scoped groups are left out.
func (s *ListGroupsService) RequestGroups(
	ctx context.Context,
	user *domain.User,
	authority, documentURI string,
) ([]*domain.Group, error) {
	return s.list(ctx, user, authority, func(g *domain.Group) bool {
		if !g.IsScoped() {
			return true
		}
		return documentURI != "" && g.InScope(documentURI)
	})
}

func (s *ListGroupsService) list(
	ctx context.Context,
	user *domain.User,
	authority string,
	keepOpen func(*domain.Group) bool,
) ([]*domain.Group, error) {
	if authority == "" {
		authority = s.defaultAuthority
	}

	open, err := s.groups.ListOpen(ctx, authority)
	if err != nil {
		return nil, NewServiceError("list_groups", "list_open", err)
	}

	seen := make(map[string]bool)
	result := make([]*domain.Group, 0, len(open))
	for _, g := range open {
		if keepOpen(g) {
			result = append(result, g)
			seen[g.PubID] = true
		}
	}

	if user == nil {
		return result, nil
	}
	mine, err := s.groups.ListForUser(ctx, user.ID)
	if err != nil {
		return nil, NewServiceError("list_groups", "list_for_user", err)
	}
	for _, g := range mine {
		if !seen[g.PubID] {
			result = append(result, g)
			seen[g.PubID] = true
		}
	}
	return result, nil
}

// GroupService manages group membership.
type GroupService struct {
	groups store.GroupStore
	users  store.UserStore
	logger *slog.Logger
}

// NewGroupService creates a GroupService.
func NewGroupService(groups store.GroupStore, users store.UserStore, logger *slog.Logger) *GroupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GroupService{groups: groups, users: users, logger: logger.With("component", "group_service")}
}

// MemberLeave removes the user identified by userid from group. Leaving a
// group one is not in is a no-op.
func (s *GroupService) MemberLeave(ctx context.Context, group *domain.Group, userid string) error {
	parsed, err := domain.ParseUserID(userid)
	if err != nil {
		return err
	}
	user, err := s.users.GetByUsername(ctx, parsed.Username, parsed.Authority)
	if err != nil {
		return fmt.Errorf("member leave: %w", err)
	}
	if err := s.groups.RemoveMember(ctx, group.ID, user.ID); err != nil {
		return NewServiceError("group", "member_leave", err)
	}
	logger.FromContextOrDefault(ctx, s.logger).Info("member left group",
		"group", group.PubID,
		"userid", userid)
	return nil
}

// GroupLinksService builds the links shown next to a group.
type GroupLinksService struct {
	baseURL string
}

// NewGroupLinksService creates a GroupLinksService for the public base URL.
func NewGroupLinksService(baseURL string) (*GroupLinksService, error) {
	if baseURL == "" {
		return nil, errors.New("group links: base url cannot be empty")
	}
	return &GroupLinksService{baseURL: baseURL}, nil
}

// Links returns the group's links keyed by kind.
func (s *GroupLinksService) Links(group *domain.Group) map[string]string {
	return map[string]string{
		"html": fmt.Sprintf("%s/groups/%s/%s", s.baseURL, group.PubID, group.Slug()),
	}
}
