package mocks

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/marginalia/internal/domain"
	"github.com/phrazzld/marginalia/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockUserStore is a mock of store.UserStore.
type MockUserStore struct {
	mock.Mock
}

var _ store.UserStore = (*MockUserStore)(nil)

func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *MockUserStore) GetByUsername(ctx context.Context, username, authority string) (*domain.User, error) {
	args := m.Called(ctx, username, authority)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *MockUserStore) SetSubscriptions(ctx context.Context, id uuid.UUID, subscribed bool) error {
	return m.Called(ctx, id, subscribed).Error(0)
}

func (m *MockUserStore) SetNIPSA(ctx context.Context, id uuid.UUID, nipsa bool) error {
	return m.Called(ctx, id, nipsa).Error(0)
}

func (m *MockUserStore) Rename(ctx context.Context, id uuid.UUID, username string) error {
	return m.Called(ctx, id, username).Error(0)
}

func (m *MockUserStore) WithTx(*sql.Tx) store.UserStore { return m }

// MockAnnotationStore is a mock of store.AnnotationStore.
type MockAnnotationStore struct {
	mock.Mock
}

var _ store.AnnotationStore = (*MockAnnotationStore)(nil)

func (m *MockAnnotationStore) Create(ctx context.Context, a *domain.Annotation) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAnnotationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Annotation, error) {
	args := m.Called(ctx, id)
	a, _ := args.Get(0).(*domain.Annotation)
	return a, args.Error(1)
}

func (m *MockAnnotationStore) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAnnotationStore) ListIDsByUser(ctx context.Context, userid string) ([]uuid.UUID, error) {
	args := m.Called(ctx, userid)
	ids, _ := args.Get(0).([]uuid.UUID)
	return ids, args.Error(1)
}

func (m *MockAnnotationStore) ReassignUser(ctx context.Context, oldUserID, newUserID string) ([]uuid.UUID, error) {
	args := m.Called(ctx, oldUserID, newUserID)
	ids, _ := args.Get(0).([]uuid.UUID)
	return ids, args.Error(1)
}

func (m *MockAnnotationStore) WithTx(*sql.Tx) store.AnnotationStore { return m }

// MockGroupStore is a mock of store.GroupStore.
type MockGroupStore struct {
	mock.Mock
}

var _ store.GroupStore = (*MockGroupStore)(nil)

func (m *MockGroupStore) Create(ctx context.Context, g *domain.Group) error {
	return m.Called(ctx, g).Error(0)
}

func (m *MockGroupStore) GetByPubID(ctx context.Context, pubid string) (*domain.Group, error) {
	args := m.Called(ctx, pubid)
	g, _ := args.Get(0).(*domain.Group)
	return g, args.Error(1)
}

func (m *MockGroupStore) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Group, error) {
	args := m.Called(ctx, userID)
	groups, _ := args.Get(0).([]*domain.Group)
	return groups, args.Error(1)
}

func (m *MockGroupStore) ListOpen(ctx context.Context, authority string) ([]*domain.Group, error) {
	args := m.Called(ctx, authority)
	groups, _ := args.Get(0).([]*domain.Group)
	return groups, args.Error(1)
}

func (m *MockGroupStore) AddMember(ctx context.Context, groupID, userID uuid.UUID) error {
	return m.Called(ctx, groupID, userID).Error(0)
}

func (m *MockGroupStore) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	return m.Called(ctx, groupID, userID).Error(0)
}

func (m *MockGroupStore) WithTx(*sql.Tx) store.GroupStore { return m }

// MockSubscriptionStore is a mock of store.SubscriptionStore.
type MockSubscriptionStore struct {
	mock.Mock
}

var _ store.SubscriptionStore = (*MockSubscriptionStore)(nil)

func (m *MockSubscriptionStore) Create(ctx context.Context, sub *domain.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}

func (m *MockSubscriptionStore) GetByID(ctx context.Context, id int64) (*domain.Subscription, error) {
	args := m.Called(ctx, id)
	sub, _ := args.Get(0).(*domain.Subscription)
	return sub, args.Error(1)
}

func (m *MockSubscriptionStore) GetActiveForTemplate(
	ctx context.Context,
	template domain.SubscriptionTemplate,
) ([]*domain.Subscription, error) {
	args := m.Called(ctx, template)
	subs, _ := args.Get(0).([]*domain.Subscription)
	return subs, args.Error(1)
}

func (m *MockSubscriptionStore) GetForURIAndTemplate(
	ctx context.Context,
	uri string,
	template domain.SubscriptionTemplate,
) ([]*domain.Subscription, error) {
	args := m.Called(ctx, uri, template)
	subs, _ := args.Get(0).([]*domain.Subscription)
	return subs, args.Error(1)
}

func (m *MockSubscriptionStore) ListForURI(ctx context.Context, uri string) ([]*domain.Subscription, error) {
	args := m.Called(ctx, uri)
	subs, _ := args.Get(0).([]*domain.Subscription)
	return subs, args.Error(1)
}

func (m *MockSubscriptionStore) SetActive(ctx context.Context, id int64, active bool) error {
	return m.Called(ctx, id, active).Error(0)
}

func (m *MockSubscriptionStore) WithTx(*sql.Tx) store.SubscriptionStore { return m }

// MockAuthStore is a mock of store.AuthStore.
type MockAuthStore struct {
	mock.Mock
}

var _ store.AuthStore = (*MockAuthStore)(nil)

func (m *MockAuthStore) CreateAuthTicket(ctx context.Context, t *domain.AuthTicket) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockAuthStore) GetAuthTicket(ctx context.Context, id string) (*domain.AuthTicket, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(*domain.AuthTicket)
	return t, args.Error(1)
}

func (m *MockAuthStore) DeleteExpiredAuthTickets(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAuthStore) CreateToken(ctx context.Context, t *domain.Token) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockAuthStore) GetTokenByValue(ctx context.Context, value string) (*domain.Token, error) {
	args := m.Called(ctx, value)
	t, _ := args.Get(0).(*domain.Token)
	return t, args.Error(1)
}

func (m *MockAuthStore) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAuthStore) WithTx(*sql.Tx) store.AuthStore { return m }

// MockSearchIndex is a mock of store.SearchIndex.
type MockSearchIndex struct {
	mock.Mock
}

var _ store.SearchIndex = (*MockSearchIndex)(nil)

func (m *MockSearchIndex) Index(ctx context.Context, a *domain.Annotation, nipsa bool) error {
	return m.Called(ctx, a, nipsa).Error(0)
}

func (m *MockSearchIndex) Remove(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockSearchIndex) SetNIPSA(ctx context.Context, userid string, nipsa bool) (int64, error) {
	args := m.Called(ctx, userid, nipsa)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSearchIndex) Search(ctx context.Context, q store.SearchQuery) ([]*domain.Annotation, error) {
	args := m.Called(ctx, q)
	results, _ := args.Get(0).([]*domain.Annotation)
	return results, args.Error(1)
}

func (m *MockSearchIndex) WithTx(*sql.Tx) store.SearchIndex { return m }
