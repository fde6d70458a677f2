package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/marginalia/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnnotationEvent(t *testing.T) {
	ann := &domain.Annotation{ID: uuid.New()}
	event := NewAnnotationEvent(domain.ActionCreate, ann)

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, domain.ActionCreate, event.Action)
	assert.Same(t, ann, event.Annotation)
	assert.WithinDuration(t, time.Now(), event.OccurredAt, 2*time.Second)
	assert.Equal(t, NameAnnotation, event.EventName())
}

func TestEventNames(t *testing.T) {
	user := &domain.User{}
	assert.Equal(t, NameLogin, NewLoginEvent(user).EventName())
	assert.Equal(t, NameRegistration, NewRegistrationEvent(user).EventName())
}

func TestTypedHandlers(t *testing.T) {
	ctx := context.Background()
	user := &domain.User{Username: "alice"}

	t.Run("matching type is delivered", func(t *testing.T) {
		var got LoginEvent
		h := OnLogin(func(_ context.Context, e LoginEvent) error {
			got = e
			return nil
		})
		event := NewLoginEvent(user)
		require.NoError(t, h.HandleEvent(ctx, event))
		assert.Equal(t, event.ID, got.ID)
	})

	t.Run("mismatched type is rejected", func(t *testing.T) {
		called := false
		h := OnAnnotation(func(context.Context, AnnotationEvent) error {
			called = true
			return nil
		})
		err := h.HandleEvent(ctx, NewRegistrationEvent(user))
		assert.True(t, errors.Is(err, ErrUnexpectedEvent))
		assert.False(t, called)
	})

	t.Run("registration handler propagates errors", func(t *testing.T) {
		want := errors.New("boom")
		h := OnRegistration(func(context.Context, RegistrationEvent) error { return want })
		assert.ErrorIs(t, h.HandleEvent(ctx, NewRegistrationEvent(user)), want)
	})
}
