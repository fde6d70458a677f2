package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/marginalia/internal/api/shared"
	"github.com/phrazzld/marginalia/internal/platform/logger"
	"github.com/phrazzld/marginalia/internal/service"
)

// AuthHandler handles registration, login and developer tokens.
type AuthHandler struct {
	users  service.UserService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(users service.UserService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{users: users, logger: logger.With("component", "auth_handler")}
}

// Register handles POST /api/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create user")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, UserResponse{
		UserID:   user.UserID(),
		Username: user.Username,
		Email:    user.Email,
	})
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to authenticate user")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, LoginResponse{
		UserID:    result.User.UserID(),
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
	})
}

// CreateDeveloperToken handles POST /api/developer/token.
func (h *AuthHandler) CreateDeveloperToken(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	token, err := h.users.CreateDeveloperToken(r.Context(), user.ID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create token")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("issued developer token", "user_id", user.ID)
	shared.RespondWithJSON(w, r, http.StatusCreated, DeveloperTokenResponse{
		Token:     token.Value,
		ExpiresAt: token.Expires,
	})
}
