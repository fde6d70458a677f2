package domain

import (
	"encoding/json"
)

// SubscriptionTemplate identifies which notification a subscription enables.
type SubscriptionTemplate string

// TemplateReply is the reply-notification template.
const TemplateReply SubscriptionTemplate = "reply"

// Subscription is a user's opt-in to a notification template.
type Subscription struct {
	ID          int64                `json:"id"`
	URI         string               `json:"uri"`
	Template    SubscriptionTemplate `json:"type"`
	Description string               `json:"description"`
	Active      bool                 `json:"active"`
	Parameters  json.RawMessage      `json:"parameters,omitempty"`
	Query       json.RawMessage      `json:"query,omitempty"`
}

// NewSubscription creates a validated subscription. The id is assigned by the store.
func NewSubscription(uri string, template SubscriptionTemplate, description string, active bool) (*Subscription, error) {
	s := &Subscription{
		URI:         uri,
		Template:    template,
		Description: description,
		Active:      active,
		Parameters:  json.RawMessage(`{}`),
		Query:       json.RawMessage(`{}`),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the subscription's invariants.
func (s *Subscription) Validate() error {
	if s.URI == "" {
		return ErrEmptyURI
	}
	if s.Template != TemplateReply {
		return ErrInvalidTemplate
	}
	return nil
}
