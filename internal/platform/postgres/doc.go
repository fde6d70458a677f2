// Package postgres implements the store interfaces on PostgreSQL through the
// pgx database/sql driver. Schema changes are goose migrations embedded from
// the migrations directory and applied with Migrate.
package postgres
