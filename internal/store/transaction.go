package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/marginalia/internal/platform/logger"
)

// TxFn is a function that executes within a database transaction.
// The transaction is committed if the function returns nil, or rolled back if it returns an error.
type TxFn func(ctx context.Context, tx *sql.Tx) error

type txContextKey struct{}

// txState is what ContextWithTx stores: the transaction and the callbacks
// waiting for it to commit.
type txState struct {
	tx *sql.Tx

	mu          sync.Mutex
	afterCommit []func(context.Context)
}

// ContextWithTx attaches an open transaction to ctx. Background tasks use it
// to share the transaction begun by the worker lifecycle with their handler.
func ContextWithTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txContextKey{}, &txState{tx: tx})
}

// TxFromContext returns the transaction attached by ContextWithTx.
func TxFromContext(ctx context.Context) (*sql.Tx, bool) {
	st, ok := ctx.Value(txContextKey{}).(*txState)
	if !ok || st.tx == nil {
		return nil, false
	}
	return st.tx, true
}

// AfterCommit defers fn until the transaction in ctx has committed. Without a
// transaction fn runs immediately. Callbacks of a rolled back transaction
// never run.
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	st, ok := ctx.Value(txContextKey{}).(*txState)
	if !ok || st.tx == nil {
		fn(ctx)
		return
	}
	st.mu.Lock()
	st.afterCommit = append(st.afterCommit, fn)
	st.mu.Unlock()
}

// RunAfterCommit runs, with ctx, the callbacks registered on the transaction
// carried by txCtx. Whoever commits the transaction calls it once the commit
// succeeded.
func RunAfterCommit(txCtx, ctx context.Context) {
	st, ok := txCtx.Value(txContextKey{}).(*txState)
	if !ok {
		return
	}
	st.mu.Lock()
	callbacks := st.afterCommit
	st.afterCommit = nil
	st.mu.Unlock()

	for _, fn := range callbacks {
		fn(ctx)
	}
}

// RunInTransaction executes fn within a database transaction.
// If ctx already carries a transaction (see ContextWithTx), fn joins it and
// commit or rollback is left to whoever opened it. AfterCommit callbacks run
// with ctx once the commit succeeded.
// Panics roll the transaction back and are re-raised.
func RunInTransaction(ctx context.Context, db TxBeginner, fn TxFn) error {
	if tx, ok := TxFromContext(ctx); ok {
		return fn(ctx, tx)
	}

	log := logger.FromContext(ctx)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", slog.String("error", err.Error()))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if txErr := tx.Rollback(); txErr != nil {
				log.Error("failed to roll back transaction after panic",
					slog.String("error", txErr.Error()),
					slog.Any("panic", p))
			} else {
				log.Error("rolled back transaction after panic", slog.Any("panic", p))
			}
			// ALLOW-PANIC: Propagating caught panic from transaction
			panic(p)
		}
	}()

	txCtx := ContextWithTx(ctx, tx)
	if err := fn(txCtx, tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			log.Error("failed to roll back transaction",
				slog.String("rollback_error", rollbackErr.Error()),
				slog.String("original_error", err.Error()))
			return fmt.Errorf(
				"error rolling back transaction: %v (original error: %w)",
				rollbackErr,
				err,
			)
		}
		log.Debug("rolled back transaction due to error", slog.String("error", err.Error()))
		return err
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit transaction", slog.String("error", err.Error()))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Debug("transaction committed successfully")
	RunAfterCommit(txCtx, ctx)
	return nil
}
