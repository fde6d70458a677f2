package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/marginalia/internal/api/shared"
	"github.com/phrazzld/marginalia/internal/domain"
	"github.com/phrazzld/marginalia/internal/platform/logger"
	"github.com/phrazzld/marginalia/internal/redact"
	"github.com/phrazzld/marginalia/internal/service/auth"
)

// Authenticator resolves a bearer credential to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, credential string) (*domain.User, error)
}

// AuthMiddleware authenticates requests from the Authorization header. Both
// session JWTs and developer tokens are accepted.
type AuthMiddleware struct {
	authenticator Authenticator
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(authenticator Authenticator) *AuthMiddleware {
	return &AuthMiddleware{authenticator: authenticator}
}

// Authenticate rejects requests without a valid credential and stores the
// user in the request context for the rest.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential, ok := bearer(r)
		if !ok {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header required")
			return
		}
		user, err := m.authenticator.Authenticate(r.Context(), credential)
		if err != nil {
			m.reject(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

// Optional attaches the user when a valid credential is present and lets
// anonymous requests through. A credential that is present but invalid is
// still rejected.
func (m *AuthMiddleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential, ok := bearer(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		user, err := m.authenticator.Authenticate(r.Context(), credential)
		if err != nil {
			m.reject(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

func (m *AuthMiddleware) reject(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Token expired")
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
	default:
		logger.FromContextOrDefault(r.Context(), slog.Default()).
			Error("failed to authenticate request", "error", redact.Error(err))
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Authentication error")
	}
}

// bearer returns the credential of an "Authorization: Bearer <credential>"
// header. ok is false when the header is absent.
func bearer(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, credential, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}
	return strings.TrimSpace(credential), true
}

func withUser(ctx context.Context, user *domain.User) context.Context {
	ctx = shared.WithUser(ctx, user)
	log := logger.FromContextOrDefault(ctx, slog.Default()).With("userid", user.UserID())
	return logger.WithLogger(ctx, log)
}
