package domain

import (
	"time"

	"github.com/google/uuid"
)

// Principals used in read permissions.
const (
	// PrincipalEveryone is the principal every request carries, authenticated or not.
	PrincipalEveryone = "group:__world__"
	// WorldGroupPubID is the public id of the group everyone belongs to.
	WorldGroupPubID = "__world__"
)

// AnnotationAction is the kind of change an AnnotationEvent reports.
type AnnotationAction string

const (
	ActionCreate AnnotationAction = "create"
	ActionUpdate AnnotationAction = "update"
	ActionDelete AnnotationAction = "delete"
)

// Document holds metadata about the annotated page.
type Document struct {
	Title string `json:"title,omitempty"`
}

// Annotation is a note attached to a document, optionally in reply to
// another annotation.
type Annotation struct {
	ID         uuid.UUID `json:"id"`
	UserID     string    `json:"user"`
	GroupPubID string    `json:"group"`
	TargetURI  string    `json:"uri"`
	Text       string    `json:"text"`
	Tags       []string  `json:"tags"`
	// References lists the ancestors of a reply, root first.
	References []uuid.UUID `json:"references,omitempty"`
	Document   *Document   `json:"document,omitempty"`
	// Shared annotations are readable by the whole group; unshared ones
	// only by their author.
	Shared  bool      `json:"shared"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// NewAnnotation creates a validated annotation with fresh timestamps.
func NewAnnotation(userid, groupPubID, targetURI, text string) (*Annotation, error) {
	if _, err := ParseUserID(userid); err != nil {
		return nil, err
	}
	if targetURI == "" {
		return nil, ErrEmptyTargetURI
	}
	if groupPubID == "" {
		groupPubID = WorldGroupPubID
	}
	now := time.Now().UTC()
	return &Annotation{
		ID:         uuid.New(),
		UserID:     userid,
		GroupPubID: groupPubID,
		TargetURI:  targetURI,
		Text:       text,
		Tags:       []string{},
		Created:    now,
		Updated:    now,
	}, nil
}

// IsReply reports whether the annotation replies to another one.
func (a *Annotation) IsReply() bool {
	return len(a.References) > 0
}

// ParentID is the id of the annotation this one directly replies to.
func (a *Annotation) ParentID() (uuid.UUID, bool) {
	if !a.IsReply() {
		return uuid.Nil, false
	}
	return a.References[len(a.References)-1], true
}

// DocumentTitle returns the document title or "".
func (a *Annotation) DocumentTitle() string {
	if a.Document == nil {
		return ""
	}
	return a.Document.Title
}

// ReadPrincipals returns the principals allowed to read the annotation.
func (a *Annotation) ReadPrincipals() []string {
	if !a.Shared {
		return []string{a.UserID}
	}
	if a.GroupPubID == WorldGroupPubID {
		return []string{PrincipalEveryone}
	}
	return []string{"group:" + a.GroupPubID}
}

// IsPublic reports whether everyone may read the annotation.
func (a *Annotation) IsPublic() bool {
	for _, p := range a.ReadPrincipals() {
		if p == PrincipalEveryone {
			return true
		}
	}
	return false
}

// CanRead reports whether a holder of principals may read the annotation.
func (a *Annotation) CanRead(principals []string) bool {
	allowed := a.ReadPrincipals()
	for _, want := range allowed {
		if want == PrincipalEveryone {
			return true
		}
		for _, have := range principals {
			if have == want {
				return true
			}
		}
	}
	return false
}
