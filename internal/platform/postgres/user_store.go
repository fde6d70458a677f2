package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/marginalia/internal/domain"
	"github.com/phrazzld/marginalia/internal/platform/logger"
	"github.com/phrazzld/marginalia/internal/store"
)

const userColumns = `id, username, authority, email, password_hash, subscriptions, nipsa, created_at, updated_at`

// PostgresUserStore implements store.UserStore.
type PostgresUserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUserStore creates a user store on db. A nil logger uses slog.Default.
func NewPostgresUserStore(db store.DBTX, logger *slog.Logger) *PostgresUserStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresUserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

var _ store.UserStore = (*PostgresUserStore)(nil)

// Create implements store.UserStore.Create.
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := user.Validate(); err != nil {
		log.Warn("user validation failed during create", slog.String("error", err.Error()))
		return err
	}

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Authority,
		user.Email,
		user.PasswordHash,
		user.Subscriptions,
		user.NIPSA,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		mapped := MapError(err)
		if store.IsDuplicateError(mapped) {
			log.Warn("duplicate user on create",
				slog.String("username", user.Username),
				slog.String("authority", user.Authority))
			return mapped
		}
		log.Error("failed to create user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return mapped
	}

	log.Info("user created", slog.String("user_id", user.ID.String()))
	return nil
}

// GetByID implements store.UserStore.GetByID.
func (s *PostgresUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return s.getOne(ctx, query, id)
}

// GetByUsername implements store.UserStore.GetByUsername.
func (s *PostgresUserStore) GetByUsername(ctx context.Context, username, authority string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(username) = lower($1) AND authority = $2`
	return s.getOne(ctx, query, username, authority)
}

func (s *PostgresUserStore) getOne(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var u domain.User
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&u.ID,
		&u.Username,
		&u.Authority,
		&u.Email,
		&u.PasswordHash,
		&u.Subscriptions,
		&u.NIPSA,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get user",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	return &u, nil
}

// SetSubscriptions implements store.UserStore.SetSubscriptions.
func (s *PostgresUserStore) SetSubscriptions(ctx context.Context, id uuid.UUID, subscribed bool) error {
	return s.update(ctx, `UPDATE users SET subscriptions = $1, updated_at = $2 WHERE id = $3`,
		subscribed, time.Now().UTC(), id)
}

// SetNIPSA implements store.UserStore.SetNIPSA.
func (s *PostgresUserStore) SetNIPSA(ctx context.Context, id uuid.UUID, nipsa bool) error {
	return s.update(ctx, `UPDATE users SET nipsa = $1, updated_at = $2 WHERE id = $3`,
		nipsa, time.Now().UTC(), id)
}

// Rename implements store.UserStore.Rename.
func (s *PostgresUserStore) Rename(ctx context.Context, id uuid.UUID, username string) error {
	candidate := domain.User{Username: username, Authority: "-", Email: "-"}
	if err := candidate.Validate(); err != nil {
		return err
	}
	return s.update(ctx, `UPDATE users SET username = $1, updated_at = $2 WHERE id = $3`,
		username, time.Now().UTC(), id)
}

func (s *PostgresUserStore) update(ctx context.Context, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update user",
			slog.String("error", err.Error()))
		return MapError(err)
	}
	return checkRowsAffected(result, store.ErrUserNotFound)
}

// WithTx implements store.UserStore.WithTx.
func (s *PostgresUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return &PostgresUserStore{db: tx, logger: s.logger}
}
