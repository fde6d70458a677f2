package shared

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/phrazzld/marginalia/internal/domain"
)

// ContextKey namespaces request context values set by the API.
type ContextKey string

const (
	UserContextKey ContextKey = "user"
	TraceIDKey     ContextKey = "traceID"

	// TraceIDLength is in bytes; ids are hex encoded.
	TraceIDLength = 16
)

// WithUser stores the authenticated user in the context.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// UserFromContext returns the authenticated user, or nil for anonymous requests.
func UserFromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(UserContextKey).(*domain.User)
	return user
}

// SetTraceID returns a child context carrying a fresh trace id.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, generateTraceID())
}

// GetTraceID returns the request's trace id, or "" outside a traced request.
func GetTraceID(ctx context.Context) string {
	id, _ := ctx.Value(TraceIDKey).(string)
	return id
}

func generateTraceID() string {
	b := make([]byte, TraceIDLength)
	if _, err := rand.Read(b); err != nil {
		slog.Error("crypto/rand failed, using time based trace id", "error", err)
		return generateFallbackTraceID()
	}
	return hex.EncodeToString(b)
}

var fallbackCounter atomic.Uint32

// generateFallbackTraceID packs the wall clock and a process-wide counter,
// so ids stay unique within one process.
func generateFallbackTraceID() string {
	b := make([]byte, TraceIDLength)
	now := time.Now()
	binary.BigEndian.PutUint64(b[:8], uint64(now.UnixNano()))
	binary.BigEndian.PutUint32(b[8:12], uint32(os.Getpid()))
	binary.BigEndian.PutUint32(b[12:], fallbackCounter.Add(1))
	return hex.EncodeToString(b)
}
