package api

import "github.com/phrazzld/marginalia/internal/domain"

// LinksBuilder produces the links attached to a group.
type LinksBuilder interface {
	Links(group *domain.Group) map[string]string
}

// GroupsJSONPresenter formats a list of groups for the API.
type GroupsJSONPresenter struct {
	groups []*domain.Group
	links  LinksBuilder
}

// NewGroupsJSONPresenter wraps groups for presentation.
func NewGroupsJSONPresenter(groups []*domain.Group, links LinksBuilder) *GroupsJSONPresenter {
	return &GroupsJSONPresenter{groups: groups, links: links}
}

// AsDicts returns the groups in listing order.
func (p *GroupsJSONPresenter) AsDicts() []GroupResponse {
	out := make([]GroupResponse, 0, len(p.groups))
	for _, g := range p.groups {
		out = append(out, GroupResponse{
			ID:     g.PubID,
			Name:   g.Name,
			Type:   g.Type,
			Public: g.IsPublic(),
			Scoped: g.IsScoped(),
			Links:  p.links.Links(g),
		})
	}
	return out
}
