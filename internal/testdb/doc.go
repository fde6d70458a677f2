// Package testdb provides helpers for integration tests that need a real
// PostgreSQL database. Tests using it are skipped unless DATABASE_URL is set.
// The embedded migrations are applied once per test binary, and each test
// runs inside a transaction that is rolled back afterwards.
package testdb
