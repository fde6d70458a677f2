package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/marginalia/internal/api/shared"
	"github.com/phrazzld/marginalia/internal/domain"
	"github.com/phrazzld/marginalia/internal/service"
	"github.com/phrazzld/marginalia/internal/store"
)

var (
	errGroupMissing        = store.ErrGroupNotFound
	errSubscriptionMissing = store.ErrSubscriptionNotFound
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// serve routes a single request through a chi router so URL parameters
// resolve, with user (if any) already authenticated.
func serve(method, pattern, target, body string, user *domain.User, h http.HandlerFunc) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Method(method, pattern, h)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if user != nil {
		req = req.WithContext(shared.WithUser(req.Context(), user))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func newTestUser(username string) *domain.User {
	return &domain.User{ID: uuid.New(), Username: username, Authority: "example.com", Email: username + "@example.com"}
}

type fakeUserService struct {
	registerFn func(ctx context.Context, username, email, password string) (*domain.User, error)
	loginFn    func(ctx context.Context, username, password string) (*service.LoginResult, error)
	tokenFn    func(ctx context.Context, userID uuid.UUID) (*domain.Token, error)
}

func (f *fakeUserService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	return f.registerFn(ctx, username, email, password)
}

func (f *fakeUserService) Login(ctx context.Context, username, password string) (*service.LoginResult, error) {
	return f.loginFn(ctx, username, password)
}

func (f *fakeUserService) CreateDeveloperToken(ctx context.Context, userID uuid.UUID) (*domain.Token, error) {
	return f.tokenFn(ctx, userID)
}

func (f *fakeUserService) Authenticate(context.Context, string) (*domain.User, error) {
	panic("not used by handlers")
}

func (f *fakeUserService) ByUsername(context.Context, string, string) (*domain.User, error) {
	panic("not used by handlers")
}

func (f *fakeUserService) GetUser(context.Context, uuid.UUID) (*domain.User, error) {
	panic("not used by handlers")
}

type fakeAnnotationService struct {
	created    *service.CreateAnnotationInput
	createErr  error
	byID       map[uuid.UUID]*domain.Annotation
	getErr     error
	deleteErr  error
	deleted    []uuid.UUID
	searchText string
	limit      int
	offset     int
	results    []*domain.Annotation
}

func (f *fakeAnnotationService) Create(_ context.Context, user *domain.User, in service.CreateAnnotationInput) (*domain.Annotation, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = &in
	a, err := domain.NewAnnotation(user.UserID(), in.GroupPubID, in.TargetURI, in.Text)
	if err != nil {
		return nil, err
	}
	a.Shared = in.Shared
	return a, nil
}

func (f *fakeAnnotationService) Get(_ context.Context, _ *domain.User, id uuid.UUID) (*domain.Annotation, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.byID[id], nil
}

func (f *fakeAnnotationService) Delete(_ context.Context, _ *domain.User, id uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAnnotationService) Search(_ context.Context, _ *domain.User, text string, limit, offset int) ([]*domain.Annotation, error) {
	f.searchText, f.limit, f.offset = text, limit, offset
	return f.results, nil
}

func (f *fakeAnnotationService) Principals(context.Context, *domain.User) ([]string, error) {
	return []string{domain.PrincipalEveryone}, nil
}

// groupCall records which listing method ran and with what arguments.
type groupCall struct {
	method      string
	user        *domain.User
	authority   string
	documentURI string
}

type fakeGroupLister struct {
	calls  []groupCall
	groups []*domain.Group
	err    error
}

func (f *fakeGroupLister) AllGroups(_ context.Context, user *domain.User, authority, documentURI string) ([]*domain.Group, error) {
	f.calls = append(f.calls, groupCall{"all", user, authority, documentURI})
	return f.groups, f.err
}

func (f *fakeGroupLister) RequestGroups(_ context.Context, user *domain.User, authority, documentURI string) ([]*domain.Group, error) {
	f.calls = append(f.calls, groupCall{"request", user, authority, documentURI})
	return f.groups, f.err
}

type fakeGroupFinder map[string]*domain.Group

func (f fakeGroupFinder) GetByPubID(_ context.Context, pubid string) (*domain.Group, error) {
	if g, ok := f[pubid]; ok {
		return g, nil
	}
	return nil, errGroupMissing
}

type fakeMembership struct {
	left []string
}

func (f *fakeMembership) MemberLeave(_ context.Context, group *domain.Group, userid string) error {
	f.left = append(f.left, group.PubID+"/"+userid)
	return nil
}

type fakeFeatures struct {
	on  map[string]bool
	err error
}

func (f fakeFeatures) Enabled(_ context.Context, name string) (bool, error) {
	return f.on[name], f.err
}

func (f fakeFeatures) EnabledOrFalse(ctx context.Context, name string) bool {
	on, err := f.Enabled(ctx, name)
	return err == nil && on
}

type fakeSubscriptions struct {
	subs         []*domain.Subscription
	setActiveErr error
	unsubscribed []int64
	unsubErr     error
}

func (f *fakeSubscriptions) List(context.Context, *domain.User) ([]*domain.Subscription, error) {
	return f.subs, nil
}

func (f *fakeSubscriptions) SetActive(_ context.Context, _ *domain.User, id int64, active bool) (*domain.Subscription, error) {
	if f.setActiveErr != nil {
		return nil, f.setActiveErr
	}
	for _, s := range f.subs {
		if s.ID == id {
			s.Active = active
			return s, nil
		}
	}
	return nil, errSubscriptionMissing
}

func (f *fakeSubscriptions) Unsubscribe(_ context.Context, user *domain.User, id int64) error {
	if f.unsubErr != nil {
		return f.unsubErr
	}
	if user != nil {
		for _, s := range f.subs {
			if s.ID == id && s.URI != user.UserID() {
				return service.ErrNotOwned
			}
		}
	}
	f.unsubscribed = append(f.unsubscribed, id)
	return nil
}
