package feature

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) All(ctx context.Context) ([]Flag, error) {
	args := m.Called(ctx)
	flags, _ := args.Get(0).([]Flag)
	return flags, args.Error(1)
}

func newTestClient(store Store) *Client {
	return NewClient(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClientEnabled(t *testing.T) {
	t.Run("loads once per scope", func(t *testing.T) {
		store := new(MockStore)
		store.On("All", mock.Anything).Return([]Flag{
			{Name: FilterGroupsByScope, Everyone: true},
			{Name: "search_page", Everyone: false, Admins: true},
		}, nil).Once()

		client := newTestClient(store)
		ctx := WithCache(context.Background())

		on, err := client.Enabled(ctx, FilterGroupsByScope)
		require.NoError(t, err)
		assert.True(t, on)

		on, err = client.Enabled(ctx, "search_page")
		require.NoError(t, err)
		assert.False(t, on)

		store.AssertNumberOfCalls(t, "All", 1)
	})

	t.Run("unknown feature", func(t *testing.T) {
		store := new(MockStore)
		store.On("All", mock.Anything).Return([]Flag{}, nil)

		_, err := newTestClient(store).Enabled(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrUnknownFeature)
	})

	t.Run("store error is returned and not cached", func(t *testing.T) {
		store := new(MockStore)
		store.On("All", mock.Anything).Return(nil, errors.New("db down")).Once()
		store.On("All", mock.Anything).Return([]Flag{{Name: "x", Everyone: true}}, nil).Once()

		client := newTestClient(store)
		ctx := WithCache(context.Background())
		_, err := client.Enabled(ctx, "x")
		require.Error(t, err)

		on, err := client.Enabled(ctx, "x")
		require.NoError(t, err)
		assert.True(t, on)
	})

	t.Run("without a scope every lookup reads the store", func(t *testing.T) {
		store := new(MockStore)
		store.On("All", mock.Anything).Return([]Flag{{Name: "x", Everyone: true}}, nil)

		client := newTestClient(store)
		for i := 0; i < 3; i++ {
			on, err := client.Enabled(context.Background(), "x")
			require.NoError(t, err)
			assert.True(t, on)
		}
		store.AssertNumberOfCalls(t, "All", 3)
	})
}

func TestCacheScopesAreIndependent(t *testing.T) {
	store := new(MockStore)
	store.On("All", mock.Anything).Return([]Flag{{Name: "x", Everyone: false}}, nil).Once()
	store.On("All", mock.Anything).Return([]Flag{{Name: "x", Everyone: true}}, nil).Once()

	client := newTestClient(store)
	first := WithCache(context.Background())
	assert.False(t, client.EnabledOrFalse(first, "x"))

	// A flag flipped in the store shows up in a new scope while the open
	// scope keeps its answer.
	second := WithCache(context.Background())
	assert.True(t, client.EnabledOrFalse(second, "x"))
	assert.False(t, client.EnabledOrFalse(first, "x"))

	store.AssertExpectations(t)
}

func TestCacheScopeConcurrentLoad(t *testing.T) {
	store := new(MockStore)
	store.On("All", mock.Anything).Return([]Flag{{Name: "x", Everyone: true}}, nil).Once()

	client := newTestClient(store)
	ctx := WithCache(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, client.EnabledOrFalse(ctx, "x"))
		}()
	}
	wg.Wait()
	store.AssertNumberOfCalls(t, "All", 1)
}

func TestClientEnabledOrFalse(t *testing.T) {
	var buf bytes.Buffer
	store := new(MockStore)
	store.On("All", mock.Anything).Return(nil, errors.New("features table missing"))

	client := NewClient(store, slog.New(slog.NewTextHandler(&buf, nil)))
	assert.False(t, client.EnabledOrFalse(context.Background(), FilterGroupsByScope))
	assert.Contains(t, buf.String(), "feature lookup failed")
	assert.Contains(t, buf.String(), FilterGroupsByScope)
}

func TestClientOverride(t *testing.T) {
	ctx := WithCache(context.Background())
	store := new(MockStore)
	store.On("All", mock.Anything).Return([]Flag{{Name: "x", Everyone: false}}, nil)

	client := newTestClient(store)
	client.Override("x", true)
	client.Override("not_in_db", true)

	assert.True(t, client.EnabledOrFalse(ctx, "x"))
	assert.True(t, client.EnabledOrFalse(ctx, "not_in_db"))
	store.AssertNotCalled(t, "All", mock.Anything)

	client.Override("x", false)
	assert.False(t, client.EnabledOrFalse(ctx, "x"))
}
