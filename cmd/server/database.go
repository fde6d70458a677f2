package main

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/phrazzld/marginalia/internal/config"
	"github.com/phrazzld/marginalia/internal/platform/postgres"
)

// poolOptions turns the database settings into pool limits.
func poolOptions(cfg config.DatabaseConfig) postgres.PoolOptions {
	return postgres.PoolOptions{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute,
	}
}

// setupAppDatabase opens the pgx-backed pool and checks it answers.
func setupAppDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	db, err := postgres.Open(ctx, cfg.Database.URL, poolOptions(cfg.Database), 5*time.Second)
	if err != nil {
		return nil, err
	}
	logger.Info("database connection established",
		"max_open_conns", cfg.Database.MaxOpenConns)
	return db, nil
}
