package shared

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/phrazzld/marginalia/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetTraceID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))

	traced := SetTraceID(ctx)
	id := GetTraceID(traced)
	assert.Len(t, id, 2*TraceIDLength)
	assert.Empty(t, GetTraceID(ctx), "parent context must not change")

	wrongType := context.WithValue(ctx, TraceIDKey, 42)
	assert.Empty(t, GetTraceID(wrongType))
}

func TestTraceIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		id := generateTraceID()
		_, err := hex.DecodeString(id)
		require.NoError(t, err)
		require.False(t, seen[id], "duplicate trace id %s", id)
		seen[id] = true
	}
}

func TestFallbackTraceID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := generateFallbackTraceID()
		assert.Len(t, id, 2*TraceIDLength)
		_, err := hex.DecodeString(id)
		require.NoError(t, err)
		require.False(t, seen[id], "fallback ids repeat")
		seen[id] = true
	}
}

func TestUserContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, UserFromContext(ctx))

	user := &domain.User{Username: "alice", Authority: "example.com"}
	got := UserFromContext(WithUser(ctx, user))
	require.NotNil(t, got)
	assert.Equal(t, "acct:alice@example.com", got.UserID())

	assert.Nil(t, UserFromContext(context.WithValue(ctx, UserContextKey, "alice")))
}
