package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/phrazzld/marginalia/internal/feature"
	"github.com/phrazzld/marginalia/internal/platform/logger"
	"github.com/phrazzld/marginalia/internal/platform/metrics"
	"github.com/phrazzld/marginalia/internal/store"
)

// Lifecycle wraps every task with the worker's per-task hooks:
//
//   - before: a fresh feature flag cache and a transaction are opened
//   - success: the transaction is committed, then AfterCommit callbacks run
//   - failure: the transaction is rolled back and the error reported at ERROR
//
// The Request and the transaction travel in the handler's context.
func Lifecycle(req *Request) asynq.MiddlewareFunc {
	base := req.Logger
	if base == nil {
		base = slog.Default()
	}

	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) (err error) {
			taskID, _ := asynq.GetTaskID(ctx)
			log := base.With("task_type", t.Type(), "task_id", taskID)

			tx, err := req.DB.BeginTx(ctx, nil)
			if err != nil {
				log.Error("failed to begin task transaction", "error", err)
				metrics.RecordTask(t.Type(), err)
				return fmt.Errorf("failed to begin transaction: %w", err)
			}

			defer func() {
				if p := recover(); p != nil {
					_ = tx.Rollback()
					log.Error("task panicked, transaction rolled back", "panic", p)
					metrics.RecordTask(t.Type(), fmt.Errorf("panic: %v", p))
					// ALLOW-PANIC: asynq recovers handler panics and schedules a retry
					panic(p)
				}
			}()

			ctx = logger.WithLogger(ctx, log)
			ctx = WithRequest(ctx, req)
			ctx = feature.WithCache(ctx)
			txCtx := store.ContextWithTx(ctx, tx)

			if err = next.ProcessTask(txCtx, t); err != nil {
				if rbErr := tx.Rollback(); rbErr != nil {
					log.Error("failed to roll back task transaction", "error", rbErr)
				}
				log.Error("task failed", "error", err)
				metrics.RecordTask(t.Type(), err)
				return err
			}

			if err = tx.Commit(); err != nil {
				log.Error("failed to commit task transaction", "error", err)
				metrics.RecordTask(t.Type(), err)
				return fmt.Errorf("failed to commit transaction: %w", err)
			}
			store.RunAfterCommit(txCtx, ctx)

			log.Debug("task succeeded")
			metrics.RecordTask(t.Type(), nil)
			return nil
		})
	}
}
