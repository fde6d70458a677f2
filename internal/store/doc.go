// Package store defines the persistence interfaces for users, groups,
// annotations, notification subscriptions, credentials and the search index.
// Implementations live in internal/platform/postgres; every store exposes
// WithTx so services and background tasks can compose operations inside a
// single transaction.
package store
