package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/marginalia/internal/domain"
	"github.com/phrazzld/marginalia/internal/platform/logger"
	"github.com/phrazzld/marginalia/internal/store"
)

// PostgresAuthStore implements store.AuthStore over the authtickets and
// tokens tables.
type PostgresAuthStore struct {
	db     store.DBTX
	logger *slog.Logger
	// timeFunc is overridden in tests.
	timeFunc func() time.Time
}

// NewPostgresAuthStore creates an auth store on db.
func NewPostgresAuthStore(db store.DBTX, logger *slog.Logger) *PostgresAuthStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresAuthStore{
		db:       db,
		logger:   logger.With(slog.String("component", "auth_store")),
		timeFunc: func() time.Time { return time.Now().UTC() },
	}
}

var _ store.AuthStore = (*PostgresAuthStore)(nil)

// CreateAuthTicket implements store.AuthStore.CreateAuthTicket.
func (s *PostgresAuthStore) CreateAuthTicket(ctx context.Context, t *domain.AuthTicket) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO authtickets (id, user_id, expires) VALUES ($1, $2, $3)`,
		t.ID, t.UserID, t.Expires)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create auth ticket",
			slog.String("error", err.Error()),
			slog.String("user_id", t.UserID.String()))
		return MapError(err)
	}
	return nil
}

// GetAuthTicket implements store.AuthStore.GetAuthTicket.
func (s *PostgresAuthStore) GetAuthTicket(ctx context.Context, id string) (*domain.AuthTicket, error) {
	var t domain.AuthTicket
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, expires FROM authtickets WHERE id = $1 AND expires > $2`,
		id, s.timeFunc()).Scan(&t.ID, &t.UserID, &t.Expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrAuthTicketNotFound
		}
		return nil, MapError(err)
	}
	return &t, nil
}

// DeleteExpiredAuthTickets implements store.AuthStore.DeleteExpiredAuthTickets.
func (s *PostgresAuthStore) DeleteExpiredAuthTickets(ctx context.Context, now time.Time) (int64, error) {
	return s.deleteExpired(ctx, `DELETE FROM authtickets WHERE expires < $1`, now, "authtickets")
}

// CreateToken implements store.AuthStore.CreateToken.
func (s *PostgresAuthStore) CreateToken(ctx context.Context, t *domain.Token) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tokens (id, user_id, value, expires) VALUES ($1, $2, $3, $4)`,
		t.ID, t.UserID, t.Value, t.Expires)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create token",
			slog.String("error", err.Error()),
			slog.String("user_id", t.UserID.String()))
		return MapError(err)
	}
	return nil
}

// GetTokenByValue implements store.AuthStore.GetTokenByValue.
func (s *PostgresAuthStore) GetTokenByValue(ctx context.Context, value string) (*domain.Token, error) {
	var t domain.Token
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, value, expires FROM tokens WHERE value = $1 AND expires > $2`,
		value, s.timeFunc()).Scan(&t.ID, &t.UserID, &t.Value, &t.Expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTokenNotFound
		}
		return nil, MapError(err)
	}
	return &t, nil
}

// DeleteExpiredTokens implements store.AuthStore.DeleteExpiredTokens.
func (s *PostgresAuthStore) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	return s.deleteExpired(ctx, `DELETE FROM tokens WHERE expires < $1`, now, "tokens")
}

func (s *PostgresAuthStore) deleteExpired(ctx context.Context, query string, now time.Time, table string) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, query, now)
	if err != nil {
		log.Error("failed to delete expired rows",
			slog.String("error", err.Error()),
			slog.String("table", table))
		return 0, MapError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	log.Info("deleted expired rows", slog.String("table", table), slog.Int64("count", n))
	return n, nil
}

// WithTx implements store.AuthStore.WithTx.
func (s *PostgresAuthStore) WithTx(tx *sql.Tx) store.AuthStore {
	return &PostgresAuthStore{db: tx, logger: s.logger, timeFunc: s.timeFunc}
}
