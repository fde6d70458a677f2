// Package mocks provides testify mock implementations of the store and
// service interfaces, shared across test packages.
//
// WithTx on every store mock returns the mock itself without recording a
// call, so tests can exercise transactional code paths without declaring
// expectations for the transaction plumbing.
package mocks
