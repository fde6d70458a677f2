package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/marginalia/internal/domain"
)

// Event names used as subscription keys.
const (
	NameAnnotation   = "annotation"
	NameLogin        = "login"
	NameRegistration = "registration"
)

// Event is anything that can be published through an Emitter.
type Event interface {
	// EventName returns the key handlers subscribe to.
	EventName() string
}

// AnnotationEvent reports a create, update or delete of an annotation.
type AnnotationEvent struct {
	ID         uuid.UUID
	Action     domain.AnnotationAction
	Annotation *domain.Annotation
	OccurredAt time.Time
}

// NewAnnotationEvent creates an AnnotationEvent stamped with the current time.
func NewAnnotationEvent(action domain.AnnotationAction, annotation *domain.Annotation) AnnotationEvent {
	return AnnotationEvent{
		ID:         uuid.New(),
		Action:     action,
		Annotation: annotation,
		OccurredAt: time.Now().UTC(),
	}
}

// EventName implements Event.
func (AnnotationEvent) EventName() string { return NameAnnotation }

// LoginEvent is published after a user successfully authenticates.
type LoginEvent struct {
	ID         uuid.UUID
	User       *domain.User
	OccurredAt time.Time
}

// NewLoginEvent creates a LoginEvent for user.
func NewLoginEvent(user *domain.User) LoginEvent {
	return LoginEvent{ID: uuid.New(), User: user, OccurredAt: time.Now().UTC()}
}

// EventName implements Event.
func (LoginEvent) EventName() string { return NameLogin }

// RegistrationEvent is published after a new account is created.
type RegistrationEvent struct {
	ID         uuid.UUID
	User       *domain.User
	OccurredAt time.Time
}

// NewRegistrationEvent creates a RegistrationEvent for user.
func NewRegistrationEvent(user *domain.User) RegistrationEvent {
	return RegistrationEvent{ID: uuid.New(), User: user, OccurredAt: time.Now().UTC()}
}

// EventName implements Event.
func (RegistrationEvent) EventName() string { return NameRegistration }

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function to EventHandler.
type HandlerFunc func(ctx context.Context, event Event) error

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event Event) error
}

// OnAnnotation wraps a typed annotation handler.
func OnAnnotation(fn func(ctx context.Context, event AnnotationEvent) error) EventHandler {
	return HandlerFunc(func(ctx context.Context, event Event) error {
		e, ok := event.(AnnotationEvent)
		if !ok {
			return unexpected(NameAnnotation, event)
		}
		return fn(ctx, e)
	})
}

// OnLogin wraps a typed login handler.
func OnLogin(fn func(ctx context.Context, event LoginEvent) error) EventHandler {
	return HandlerFunc(func(ctx context.Context, event Event) error {
		e, ok := event.(LoginEvent)
		if !ok {
			return unexpected(NameLogin, event)
		}
		return fn(ctx, e)
	})
}

// OnRegistration wraps a typed registration handler.
func OnRegistration(fn func(ctx context.Context, event RegistrationEvent) error) EventHandler {
	return HandlerFunc(func(ctx context.Context, event Event) error {
		e, ok := event.(RegistrationEvent)
		if !ok {
			return unexpected(NameRegistration, event)
		}
		return fn(ctx, e)
	})
}

func unexpected(want string, got Event) error {
	return fmt.Errorf("%w: handler for %q received %T", ErrUnexpectedEvent, want, got)
}
