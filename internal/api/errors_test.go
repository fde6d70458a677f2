package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/marginalia/internal/domain"
	"github.com/phrazzld/marginalia/internal/service"
	"github.com/phrazzld/marginalia/internal/service/auth"
	"github.com/phrazzld/marginalia/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: http.StatusInternalServerError},
		{name: "invalid token", err: auth.ErrInvalidToken, want: http.StatusUnauthorized},
		{name: "wrapped expired token", err: fmt.Errorf("authenticate: %w", auth.ErrExpiredToken), want: http.StatusUnauthorized},
		{name: "bad credentials", err: service.ErrInvalidCredentials, want: http.StatusUnauthorized},
		{name: "not owner", err: service.ErrNotOwned, want: http.StatusForbidden},
		{name: "private group", err: service.ErrGroupWriteDenied, want: http.StatusForbidden},
		{name: "missing parent", err: fmt.Errorf("%w: %w", service.ErrParentNotFound, store.ErrAnnotationNotFound), want: http.StatusUnprocessableEntity},
		{name: "annotation not found", err: store.ErrAnnotationNotFound, want: http.StatusNotFound},
		{name: "subscription not found", err: fmt.Errorf("get: %w", store.ErrSubscriptionNotFound), want: http.StatusNotFound},
		{name: "username taken", err: store.ErrUsernameExists, want: http.StatusConflict},
		{name: "invalid username", err: domain.ErrInvalidUsername, want: http.StatusBadRequest},
		{name: "invalid entity", err: store.ErrInvalidEntity, want: http.StatusBadRequest},
		{name: "unknown", err: errors.New("boom"), want: http.StatusInternalServerError},
		{name: "service error", err: service.NewServiceError("user", "login", errors.New("boom")), want: http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: "An unexpected error occurred"},
		{name: "expired", err: auth.ErrExpiredToken, want: "Token expired"},
		{name: "credentials", err: service.ErrInvalidCredentials, want: "Invalid username or password"},
		{name: "annotation", err: fmt.Errorf("get: %w", store.ErrAnnotationNotFound), want: "Annotation not found"},
		{name: "generic not found", err: store.ErrNotFound, want: "Not found"},
		{name: "username taken", err: store.ErrUsernameExists, want: "Username already taken"},
		{name: "domain validation", err: domain.ErrEmptyTargetURI, want: "Annotation target uri cannot be empty"},
		{name: "internal", err: errors.New("pq: relation \"users\" does not exist"), want: "An unexpected error occurred"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, GetSafeErrorMessage(tc.err))
		})
	}
}

func TestSanitizeValidationError(t *testing.T) {
	v := validator.New()
	err := v.Struct(struct {
		Email string `validate:"required,email"`
	}{Email: "not-an-email"})

	assert.Equal(t, "Invalid email: invalid email format", SanitizeValidationError(err))
	assert.Equal(t, "Invalid email: invalid email format", GetSafeErrorMessage(err))
	assert.Equal(t, http.StatusBadRequest, MapErrorToStatusCode(err))
	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("other")))
}
