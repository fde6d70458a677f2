package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GroupType controls who can read and join a group.
type GroupType string

const (
	// GroupTypeOpen groups are readable by everyone and listed publicly.
	GroupTypeOpen GroupType = "open"
	// GroupTypePrivate groups are visible to members only.
	GroupTypePrivate GroupType = "private"
)

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Group is a set of users who share annotations.
type Group struct {
	ID        uuid.UUID `json:"-"`
	PubID     string    `json:"id"`
	Name      string    `json:"name"`
	Authority string    `json:"authority"`
	Type      GroupType `json:"type"`
	// Scopes restricts open groups to documents under these origins.
	Scopes    []string  `json:"scopes,omitempty"`
	Creator   string    `json:"creator,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewGroup creates a validated group with a random public id.
func NewGroup(name, authority string, groupType GroupType, creator string) (*Group, error) {
	g := &Group{
		ID:        uuid.New(),
		PubID:     strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
		Name:      strings.TrimSpace(name),
		Authority: authority,
		Type:      groupType,
		Creator:   creator,
		CreatedAt: time.Now().UTC(),
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate checks the group's invariants.
func (g *Group) Validate() error {
	if g.Name == "" {
		return ErrEmptyGroupName
	}
	if g.Authority == "" {
		return ErrEmptyAuthority
	}
	if g.Type != GroupTypeOpen && g.Type != GroupTypePrivate {
		return ErrInvalidGroupType
	}
	return nil
}

// Slug is a URL-friendly version of the name.
func (g *Group) Slug() string {
	s := slugStrip.ReplaceAllString(strings.ToLower(g.Name), "-")
	return strings.Trim(s, "-")
}

// IsPublic reports whether the group is open.
func (g *Group) IsPublic() bool {
	return g.Type == GroupTypeOpen
}

// IsScoped reports whether the group only applies to some documents.
func (g *Group) IsScoped() bool {
	return len(g.Scopes) > 0
}

// InScope reports whether documentURI falls under one of the group's scopes.
// Unscoped groups match every document.
func (g *Group) InScope(documentURI string) bool {
	if !g.IsScoped() {
		return true
	}
	for _, scope := range g.Scopes {
		if strings.HasPrefix(documentURI, scope) {
			return true
		}
	}
	return false
}
