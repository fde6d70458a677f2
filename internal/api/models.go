package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/marginalia/internal/domain"
)

// RegisterRequest is the body of POST /api/register.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserResponse describes an account.
type UserResponse struct {
	UserID   string `json:"userid"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// LoginResponse carries the session token.
type LoginResponse struct {
	UserID    string    `json:"userid"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DeveloperTokenResponse carries a new API token.
type DeveloperTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DocumentRequest is the document metadata sent with an annotation.
type DocumentRequest struct {
	Title string `json:"title" validate:"max=1024"`
}

// CreateAnnotationRequest is the body of POST /api/annotations.
type CreateAnnotationRequest struct {
	Group      string           `json:"group"`
	URI        string           `json:"uri"        validate:"required,max=4096"`
	Text       string           `json:"text"       validate:"max=100000"`
	Tags       []string         `json:"tags"       validate:"max=100,dive,max=255"`
	References []uuid.UUID      `json:"references"`
	Document   *DocumentRequest `json:"document"`
	// Shared defaults to true.
	Shared *bool `json:"shared"`
}

// PermissionsResponse lists who may act on an annotation.
type PermissionsResponse struct {
	Read []string `json:"read"`
}

// AnnotationResponse is the public form of an annotation.
type AnnotationResponse struct {
	ID          uuid.UUID           `json:"id"`
	User        string              `json:"user"`
	Group       string              `json:"group"`
	URI         string              `json:"uri"`
	Text        string              `json:"text"`
	Tags        []string            `json:"tags"`
	References  []uuid.UUID         `json:"references,omitempty"`
	Document    *domain.Document    `json:"document,omitempty"`
	Permissions PermissionsResponse `json:"permissions"`
	Created     time.Time           `json:"created"`
	Updated     time.Time           `json:"updated"`
}

// SearchResponse is the result of GET /api/search.
type SearchResponse struct {
	Total int                  `json:"total"`
	Rows  []AnnotationResponse `json:"rows"`
}

// GroupResponse is one entry of the groups listing.
type GroupResponse struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Type   domain.GroupType  `json:"type"`
	Public bool              `json:"public"`
	Scoped bool              `json:"scoped"`
	Links  map[string]string `json:"links"`
}

// SubscriptionResponse describes a notification subscription.
type SubscriptionResponse struct {
	ID          int64                       `json:"id"`
	Type        domain.SubscriptionTemplate `json:"type"`
	Description string                      `json:"description"`
	Active      bool                        `json:"active"`
}

// ToggleSubscriptionRequest is the body of PUT /api/profile/notifications/{id}.
type ToggleSubscriptionRequest struct {
	Active *bool `json:"active" validate:"required"`
}

func annotationToResponse(a *domain.Annotation) AnnotationResponse {
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	return AnnotationResponse{
		ID:          a.ID,
		User:        a.UserID,
		Group:       a.GroupPubID,
		URI:         a.TargetURI,
		Text:        a.Text,
		Tags:        tags,
		References:  a.References,
		Document:    a.Document,
		Permissions: PermissionsResponse{Read: a.ReadPrincipals()},
		Created:     a.Created,
		Updated:     a.Updated,
	}
}

func subscriptionToResponse(s *domain.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:          s.ID,
		Type:        s.Template,
		Description: s.Description,
		Active:      s.Active,
	}
}
