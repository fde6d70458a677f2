package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/phrazzld/marginalia/internal/domain"
	"github.com/phrazzld/marginalia/internal/platform/logger"
	"github.com/phrazzld/marginalia/internal/store"
)

const subscriptionColumns = `id, uri, type, description, active, parameters, query`

// PostgresSubscriptionStore implements store.SubscriptionStore.
type PostgresSubscriptionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSubscriptionStore creates a subscription store on db.
func NewPostgresSubscriptionStore(db store.DBTX, logger *slog.Logger) *PostgresSubscriptionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSubscriptionStore{
		db:     db,
		logger: logger.With(slog.String("component", "subscription_store")),
	}
}

var _ store.SubscriptionStore = (*PostgresSubscriptionStore)(nil)

// Create implements store.SubscriptionStore.Create.
func (s *PostgresSubscriptionStore) Create(ctx context.Context, sub *domain.Subscription) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := sub.Validate(); err != nil {
		log.Warn("subscription validation failed", slog.String("error", err.Error()))
		return err
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO subscriptions (uri, type, description, active, parameters, query)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`,
		sub.URI,
		string(sub.Template),
		sub.Description,
		sub.Active,
		rawOrEmpty(sub.Parameters),
		rawOrEmpty(sub.Query),
	).Scan(&sub.ID)
	if err != nil {
		log.Error("failed to create subscription",
			slog.String("error", err.Error()),
			slog.String("uri", sub.URI))
		return MapError(err)
	}

	log.Info("subscription created",
		slog.Int64("subscription_id", sub.ID),
		slog.String("type", string(sub.Template)))
	return nil
}

// GetByID implements store.SubscriptionStore.GetByID.
func (s *PostgresSubscriptionStore) GetByID(ctx context.Context, id int64) (*domain.Subscription, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id)
	sub, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSubscriptionNotFound
		}
		return nil, MapError(err)
	}
	return sub, nil
}

// GetActiveForTemplate implements store.SubscriptionStore.GetActiveForTemplate.
func (s *PostgresSubscriptionStore) GetActiveForTemplate(
	ctx context.Context,
	template domain.SubscriptionTemplate,
) ([]*domain.Subscription, error) {
	return s.list(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE type = $1 AND active ORDER BY id`,
		string(template))
}

// GetForURIAndTemplate implements store.SubscriptionStore.GetForURIAndTemplate.
func (s *PostgresSubscriptionStore) GetForURIAndTemplate(
	ctx context.Context,
	uri string,
	template domain.SubscriptionTemplate,
) ([]*domain.Subscription, error) {
	return s.list(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE uri = $1 AND type = $2 ORDER BY id`,
		uri, string(template))
}

// ListForURI implements store.SubscriptionStore.ListForURI.
func (s *PostgresSubscriptionStore) ListForURI(ctx context.Context, uri string) ([]*domain.Subscription, error) {
	return s.list(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE uri = $1 ORDER BY id`, uri)
}

// SetActive implements store.SubscriptionStore.SetActive.
func (s *PostgresSubscriptionStore) SetActive(ctx context.Context, id int64, active bool) error {
	result, err := s.db.ExecContext(ctx, `UPDATE subscriptions SET active = $1 WHERE id = $2`, active, id)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update subscription",
			slog.String("error", err.Error()),
			slog.Int64("subscription_id", id))
		return MapError(err)
	}
	return checkRowsAffected(result, store.ErrSubscriptionNotFound)
}

// WithTx implements store.SubscriptionStore.WithTx.
func (s *PostgresSubscriptionStore) WithTx(tx *sql.Tx) store.SubscriptionStore {
	return &PostgresSubscriptionStore{db: tx, logger: s.logger}
}

func (s *PostgresSubscriptionStore) list(ctx context.Context, query string, args ...any) ([]*domain.Subscription, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list subscriptions",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	subs := []*domain.Subscription{}
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return subs, nil
}

func scanSubscription(row rowScanner) (*domain.Subscription, error) {
	var (
		sub               domain.Subscription
		template          string
		parameters, query []byte
	)
	if err := row.Scan(&sub.ID, &sub.URI, &template, &sub.Description, &sub.Active, &parameters, &query); err != nil {
		return nil, err
	}
	sub.Template = domain.SubscriptionTemplate(template)
	sub.Parameters = json.RawMessage(parameters)
	sub.Query = json.RawMessage(query)
	return &sub, nil
}

func rawOrEmpty(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return []byte(`{}`)
	}
	return raw
}
