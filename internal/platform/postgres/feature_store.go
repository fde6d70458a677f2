package postgres

import (
	"context"
	"log/slog"

	"github.com/phrazzld/marginalia/internal/feature"
	"github.com/phrazzld/marginalia/internal/store"
)

// PostgresFeatureStore implements feature.Store over the features table.
type PostgresFeatureStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresFeatureStore creates a feature store on db.
func NewPostgresFeatureStore(db store.DBTX, logger *slog.Logger) *PostgresFeatureStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresFeatureStore{db: db, logger: logger.With(slog.String("component", "feature_store"))}
}

var _ feature.Store = (*PostgresFeatureStore)(nil)

// All implements feature.Store.All.
func (s *PostgresFeatureStore) All(ctx context.Context) ([]feature.Flag, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, everyone, admins FROM features ORDER BY name`)
	if err != nil {
		s.logger.Error("failed to load features", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var flags []feature.Flag
	for rows.Next() {
		var f feature.Flag
		if err := rows.Scan(&f.Name, &f.Everyone, &f.Admins); err != nil {
			return nil, MapError(err)
		}
		flags = append(flags, f)
	}
	return flags, MapError(rows.Err())
}
