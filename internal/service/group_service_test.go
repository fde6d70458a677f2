package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/marginalia/internal/domain"
	"github.com/phrazzld/marginalia/internal/mocks"
	"github.com/phrazzld/marginalia/internal/service"
	"github.com/phrazzld/marginalia/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func pubids(groups []*domain.Group) []string {
	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.PubID)
	}
	return ids
}

func TestListGroupsService(t *testing.T) {
	world := &domain.Group{PubID: "__world__", Type: domain.GroupTypeOpen}
	scoped := &domain.Group{PubID: "scoped", Type: domain.GroupTypeOpen, Scopes: []string{"http://example.com/docs"}}
	private := &domain.Group{PubID: "team", Type: domain.GroupTypePrivate}

	newService := func(t *testing.T) (*service.ListGroupsService, *mocks.MockGroupStore) {
		groups := &mocks.MockGroupStore{}
		t.Cleanup(func() { groups.AssertExpectations(t) })
		return service.NewListGroupsService(groups, "example.com"), groups
	}

	t.Run("all groups ignores scope", func(t *testing.T) {
		svc, groups := newService(t)
		groups.On("ListOpen", mock.Anything, "example.com").Return([]*domain.Group{world, scoped}, nil)

		got, err := svc.AllGroups(context.Background(), nil, "", "http://other.org")
		require.NoError(t, err)
		assert.Equal(t, []string{"__world__", "scoped"}, pubids(got))
	})

	t.Run("request groups filters by document", func(t *testing.T) {
		svc, groups := newService(t)
		groups.On("ListOpen", mock.Anything, "partner.org").Return([]*domain.Group{world, scoped}, nil)
		groups.On("ListForUser", mock.Anything, alice.ID).Return([]*domain.Group{private, world}, nil)

		got, err := svc.RequestGroups(context.Background(), alice, "partner.org", "http://other.org/page")
		require.NoError(t, err)
		assert.Equal(t, []string{"__world__", "team"}, pubids(got))
	})

	t.Run("request groups keeps matching scope", func(t *testing.T) {
		svc, groups := newService(t)
		groups.On("ListOpen", mock.Anything, "example.com").Return([]*domain.Group{world, scoped}, nil)

		got, err := svc.RequestGroups(context.Background(), nil, "example.com", "http://example.com/docs/intro")
		require.NoError(t, err)
		assert.Equal(t, []string{"__world__", "scoped"}, pubids(got))
	})

	t.Run("request groups without document drops scoped", func(t *testing.T) {
		svc, groups := newService(t)
		groups.On("ListOpen", mock.Anything, "example.com").Return([]*domain.Group{world, scoped}, nil)

		got, err := svc.RequestGroups(context.Background(), nil, "", "")
		require.NoError(t, err)
		assert.Equal(t, []string{"__world__"}, pubids(got))
	})
}

func TestGroupService_MemberLeave(t *testing.T) {
	groups := &mocks.MockGroupStore{}
	users := &mocks.MockUserStore{}
	group := &domain.Group{ID: uuid.New(), PubID: "team"}

	users.On("GetByUsername", mock.Anything, "alice", "example.com").Return(alice, nil)
	groups.On("RemoveMember", mock.Anything, group.ID, alice.ID).Return(nil)

	svc := service.NewGroupService(groups, users, discardLogger())
	require.NoError(t, svc.MemberLeave(context.Background(), group, "acct:alice@example.com"))

	users.On("GetByUsername", mock.Anything, "ghost", "example.com").Return(nil, store.ErrUserNotFound)
	err := svc.MemberLeave(context.Background(), group, "acct:ghost@example.com")
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	assert.ErrorIs(t, svc.MemberLeave(context.Background(), group, "ghost"), domain.ErrInvalidUserID)

	groups.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestGroupLinksService(t *testing.T) {
	_, err := service.NewGroupLinksService("")
	assert.Error(t, err)

	svc, err := service.NewGroupLinksService("https://example.com")
	require.NoError(t, err)
	links := svc.Links(&domain.Group{PubID: "abc123", Name: "My Reading Group"})
	assert.Equal(t, "https://example.com/groups/abc123/my-reading-group", links["html"])
}

func TestSubscriptionService(t *testing.T) {
	subs := &mocks.MockSubscriptionStore{}
	svc := service.NewSubscriptionService(subs, discardLogger())
	mine := &domain.Subscription{ID: 1, URI: "acct:alice@example.com", Active: true}
	theirs := &domain.Subscription{ID: 2, URI: "acct:bob@example.com", Active: true}

	subs.On("ListForURI", mock.Anything, "acct:alice@example.com").Return([]*domain.Subscription{mine}, nil)
	subs.On("GetByID", mock.Anything, int64(1)).Return(mine, nil)
	subs.On("GetByID", mock.Anything, int64(2)).Return(theirs, nil)
	subs.On("SetActive", mock.Anything, int64(1), false).Return(nil)

	list, err := svc.List(context.Background(), alice)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	updated, err := svc.SetActive(context.Background(), alice, 1, false)
	require.NoError(t, err)
	assert.False(t, updated.Active)

	_, err = svc.SetActive(context.Background(), alice, 2, false)
	assert.ErrorIs(t, err, service.ErrNotOwned)

	assert.ErrorIs(t, svc.Unsubscribe(context.Background(), alice, 2), service.ErrNotOwned)
	require.NoError(t, svc.Unsubscribe(context.Background(), alice, 1))
	subs.AssertExpectations(t)
}
