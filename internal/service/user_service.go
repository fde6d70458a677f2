package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/marginalia/internal/domain"
	"github.com/phrazzld/marginalia/internal/events"
	"github.com/phrazzld/marginalia/internal/platform/logger"
	"github.com/phrazzld/marginalia/internal/service/auth"
	"github.com/phrazzld/marginalia/internal/store"
)

// UserService covers accounts and credentials.
type UserService interface {
	// Register creates an account and emits a RegistrationEvent in the same
	// transaction.
	Register(ctx context.Context, username, email, password string) (*domain.User, error)

	// Login checks the password, opens an auth ticket and issues a JWT bound to it.
	Login(ctx context.Context, username, password string) (*LoginResult, error)

	// CreateDeveloperToken issues a long-lived API token.
	CreateDeveloperToken(ctx context.Context, userID uuid.UUID) (*domain.Token, error)

	// Authenticate resolves a bearer credential, either a developer token
	// or a session JWT, to its user.
	Authenticate(ctx context.Context, credential string) (*domain.User, error)

	// ByUsername looks a user up within an authority.
	ByUsername(ctx context.Context, username, authority string) (*domain.User, error)

	// GetUser retrieves a user by their ID
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// UserServiceConfig holds the lifetimes and the authority of new accounts.
type UserServiceConfig struct {
	Authority      string
	TicketLifetime time.Duration
	TokenLifetime  time.Duration
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	users    store.UserStore
	auth     store.AuthStore
	db       store.TxBeginner
	hasher   auth.PasswordHasher
	verifier auth.PasswordVerifier
	jwt      auth.JWTService
	emitter  events.EventEmitter
	cfg      UserServiceConfig
	logger   *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(
	users store.UserStore,
	authStore store.AuthStore,
	db store.TxBeginner,
	hasher auth.PasswordHasher,
	verifier auth.PasswordVerifier,
	jwtService auth.JWTService,
	emitter events.EventEmitter,
	cfg UserServiceConfig,
	logger *slog.Logger,
) (*UserServiceImpl, error) {
	if users == nil || authStore == nil {
		return nil, errors.New("user service: stores cannot be nil")
	}
	if db == nil {
		return nil, errors.New("user service: db cannot be nil")
	}
	if hasher == nil || verifier == nil || jwtService == nil {
		return nil, errors.New("user service: auth dependencies cannot be nil")
	}
	if emitter == nil {
		return nil, errors.New("user service: emitter cannot be nil")
	}
	if cfg.Authority == "" {
		return nil, errors.New("user service: authority cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserServiceImpl{
		users:    users,
		auth:     authStore,
		db:       db,
		hasher:   hasher,
		verifier: verifier,
		jwt:      jwtService,
		emitter:  emitter,
		cfg:      cfg,
		logger:   logger.With("component", "user_service"),
	}, nil
}

var _ UserService = (*UserServiceImpl)(nil)

// Register creates a user. The registration subscriber runs inside the
// transaction that inserts the user.
func (s *UserServiceImpl) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, NewServiceError("user", "register", err)
	}
	user, err := domain.NewUser(username, s.cfg.Authority, email, hash)
	if err != nil {
		return nil, err
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.users.WithTx(tx).Create(ctx, user); err != nil {
			return err
		}
		return s.emitter.EmitEvent(ctx, events.NewRegistrationEvent(user))
	})
	if err != nil {
		if store.IsDuplicateError(err) {
			log.Debug("registration conflict", "username", username, "error", err)
			return nil, err
		}
		log.Error("failed to register user", "username", username, "error", err)
		return nil, NewServiceError("user", "register", err)
	}

	log.Info("user registered", "userid", user.UserID())
	return user, nil
}

// Login authenticates within the service's authority.
func (s *UserServiceImpl) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.users.GetByUsername(ctx, username, s.cfg.Authority)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Debug("login for unknown user", "username", username)
			return nil, ErrInvalidCredentials
		}
		return nil, NewServiceError("user", "login", err)
	}
	if err := s.verifier.Compare(user.PasswordHash, password); err != nil {
		log.Debug("login with wrong password", "username", username)
		return nil, ErrInvalidCredentials
	}

	ticket, err := domain.NewAuthTicket(user.ID, s.cfg.TicketLifetime)
	if err != nil {
		return nil, NewServiceError("user", "login", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.auth.WithTx(tx).CreateAuthTicket(ctx, ticket); err != nil {
			return err
		}
		return s.emitter.EmitEvent(ctx, events.NewLoginEvent(user))
	})
	if err != nil {
		log.Error("failed to open session", "userid", user.UserID(), "error", err)
		return nil, NewServiceError("user", "login", err)
	}

	token, err := s.jwt.GenerateToken(ctx, user.ID, ticket.ID)
	if err != nil {
		return nil, NewServiceError("user", "login", err)
	}

	log.Info("user logged in", "userid", user.UserID())
	return &LoginResult{User: user, Token: token, ExpiresAt: ticket.Expires}, nil
}

// CreateDeveloperToken issues an API token for the user.
func (s *UserServiceImpl) CreateDeveloperToken(ctx context.Context, userID uuid.UUID) (*domain.Token, error) {
	token, err := domain.NewToken(userID, s.cfg.TokenLifetime)
	if err != nil {
		return nil, NewServiceError("user", "create_token", err)
	}
	if err := s.auth.CreateToken(ctx, token); err != nil {
		return nil, NewServiceError("user", "create_token", err)
	}
	logger.FromContextOrDefault(ctx, s.logger).Info("developer token created", "user_id", userID)
	return token, nil
}

// Authenticate accepts a developer token (prefixed with domain.TokenPrefix)
// or a session JWT whose auth ticket is still live.
func (s *UserServiceImpl) Authenticate(ctx context.Context, credential string) (*domain.User, error) {
	if credential == "" {
		return nil, auth.ErrMissingToken
	}

	var userID uuid.UUID
	if strings.HasPrefix(credential, domain.TokenPrefix) {
		token, err := s.auth.GetTokenByValue(ctx, credential)
		if err != nil {
			if store.IsNotFoundError(err) {
				return nil, auth.ErrInvalidToken
			}
			return nil, err
		}
		userID = token.UserID
	} else {
		claims, err := s.jwt.ValidateToken(ctx, credential)
		if err != nil {
			return nil, err
		}
		ticket, err := s.auth.GetAuthTicket(ctx, claims.TicketID)
		if err != nil {
			if store.IsNotFoundError(err) {
				return nil, auth.ErrExpiredToken
			}
			return nil, err
		}
		if ticket.UserID != claims.UserID {
			return nil, auth.ErrInvalidToken
		}
		userID = claims.UserID
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, auth.ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}

// ByUsername looks a user up within an authority.
func (s *UserServiceImpl) ByUsername(ctx context.Context, username, authority string) (*domain.User, error) {
	if authority == "" {
		authority = s.cfg.Authority
	}
	user, err := s.users.GetByUsername(ctx, username, authority)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user %s: %w", username, err)
	}
	return user, nil
}

// GetUser retrieves a user by their ID
func (s *UserServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return user, nil
}
