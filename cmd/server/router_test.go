package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/marginalia/internal/api"
	apiMiddleware "github.com/phrazzld/marginalia/internal/api/middleware"
	"github.com/phrazzld/marginalia/internal/api/shared"
	"github.com/phrazzld/marginalia/internal/domain"
	"github.com/phrazzld/marginalia/internal/feature"
	"github.com/phrazzld/marginalia/internal/service"
	"github.com/phrazzld/marginalia/internal/service/auth"
	"github.com/phrazzld/marginalia/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alice = &domain.User{ID: uuid.New(), Username: "alice", Authority: "example.com"}

type stubUsers struct{ service.UserService }

func (stubUsers) Authenticate(_ context.Context, credential string) (*domain.User, error) {
	if credential == "good" {
		return alice, nil
	}
	return nil, auth.ErrInvalidToken
}

type stubAnnotations struct{ service.AnnotationService }

func (stubAnnotations) Search(context.Context, *domain.User, string, int, int) ([]*domain.Annotation, error) {
	return nil, nil
}

func (stubAnnotations) Get(context.Context, *domain.User, uuid.UUID) (*domain.Annotation, error) {
	return nil, store.ErrAnnotationNotFound
}

type stubGroups struct{}

func (stubGroups) AllGroups(context.Context, *domain.User, string, string) ([]*domain.Group, error) {
	return []*domain.Group{}, nil
}

func (stubGroups) RequestGroups(context.Context, *domain.User, string, string) ([]*domain.Group, error) {
	return []*domain.Group{}, nil
}

func (stubGroups) GetByPubID(context.Context, string) (*domain.Group, error) {
	return nil, store.ErrGroupNotFound
}

func (stubGroups) MemberLeave(context.Context, *domain.Group, string) error { return nil }

type stubFlags struct{ loads int }

func (f *stubFlags) All(context.Context) ([]feature.Flag, error) {
	f.loads++
	return []feature.Flag{{Name: feature.FilterGroupsByScope}}, nil
}

type stubSubscriptions struct{}

func (stubSubscriptions) List(context.Context, *domain.User) ([]*domain.Subscription, error) {
	return []*domain.Subscription{}, nil
}

func (stubSubscriptions) SetActive(context.Context, *domain.User, int64, bool) (*domain.Subscription, error) {
	return nil, store.ErrSubscriptionNotFound
}

func (stubSubscriptions) Unsubscribe(context.Context, *domain.User, int64) error { return nil }

func testRouter(t *testing.T) (http.Handler, *stubFlags) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	links, err := service.NewGroupLinksService("https://example.com")
	require.NoError(t, err)
	flags := &stubFlags{}
	features := feature.NewClient(flags, logger)
	ok := func(context.Context) error { return nil }

	return newRouter(routes{
		auth:          apiMiddleware.NewAuthMiddleware(stubUsers{}),
		authHandler:   api.NewAuthHandler(stubUsers{}, logger),
		groups:        api.NewGroupHandler(stubGroups{}, stubGroups{}, stubGroups{}, links, features, "example.com", logger),
		annotations:   api.NewAnnotationHandler(stubAnnotations{}, logger),
		notifications: api.NewNotificationHandler(stubSubscriptions{}, logger),
		health:        api.NewHealthHandler(map[string]api.HealthCheck{"postgres": ok, "redis": ok}, time.Second, logger),
		logger:        logger,
	}), flags
}

func TestRouter(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{name: "health", method: http.MethodGet, path: "/health", want: http.StatusOK},
		{name: "metrics", method: http.MethodGet, path: "/metrics", want: http.StatusOK},
		{name: "unsubscribe link", method: http.MethodGet, path: "/app?__formid__=unsubscribe&subscription_id=3", want: http.StatusOK},
		{name: "unsubscribe link signed in", method: http.MethodGet, path: "/app?__formid__=unsubscribe&subscription_id=3", token: "good", want: http.StatusOK},
		{name: "unsubscribe link bad credential", method: http.MethodGet, path: "/app?__formid__=unsubscribe&subscription_id=3", token: "bad", want: http.StatusUnauthorized},
		{name: "anonymous groups", method: http.MethodGet, path: "/api/groups", want: http.StatusOK},
		{name: "anonymous search", method: http.MethodGet, path: "/api/search?q=x", want: http.StatusOK},
		{name: "bad credential on optional route", method: http.MethodGet, path: "/api/groups", token: "bad", want: http.StatusUnauthorized},
		{name: "hidden annotation", method: http.MethodGet, path: "/api/annotations/" + uuid.NewString(), want: http.StatusNotFound},
		{name: "create requires auth", method: http.MethodPost, path: "/api/annotations", want: http.StatusUnauthorized},
		{name: "notifications require auth", method: http.MethodGet, path: "/api/profile/notifications", want: http.StatusUnauthorized},
		{name: "notifications with auth", method: http.MethodGet, path: "/api/profile/notifications", token: "good", want: http.StatusOK},
		{name: "leave unknown group", method: http.MethodDelete, path: "/api/groups/zzz/members/me", token: "good", want: http.StatusNotFound},
		{name: "unknown route", method: http.MethodGet, path: "/api/cards", want: http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router, _ := testRouter(t)
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestRouterErrorsCarryTraceID(t *testing.T) {
	router, _ := testRouter(t)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/annotations", strings.NewReader(`{}`)))

	var body shared.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.TraceID, 2*shared.TraceIDLength)
}

func TestRouterLoadsFeaturesPerRequest(t *testing.T) {
	router, flags := testRouter(t)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/groups", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, 2, flags.loads)
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags(nil)
	require.NoError(t, err)
	assert.Empty(t, opts.migrate)

	opts, err = parseFlags([]string{"-migrate", "up"})
	require.NoError(t, err)
	assert.Equal(t, "up", opts.migrate)

	_, err = parseFlags([]string{"-nope"})
	assert.Error(t, err)
}
