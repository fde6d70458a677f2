package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// WorkerConfig controls the asynq server.
type WorkerConfig struct {
	// Concurrency is the number of tasks processed at once. Each slot takes
	// one task at a time from the broker.
	Concurrency     int
	ShutdownTimeout time.Duration
}

// Worker consumes tasks from both queues.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *slog.Logger
}

// NewWorker validates req and builds a worker whose handlers run inside the
// Lifecycle middleware.
func NewWorker(redisOpt asynq.RedisConnOpt, cfg WorkerConfig, req *Request, logger *slog.Logger) (*Worker, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if req.Logger == nil {
		req.Logger = logger
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	logger = logger.With("component", "task_worker")

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:     cfg.Concurrency,
		Queues:          Queues(),
		ShutdownTimeout: cfg.ShutdownTimeout,
		Logger:          newAsynqLogger(logger),
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, t *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			logger.Warn("task will be retried or archived",
				"task_type", t.Type(),
				"retried", retried,
				"max_retry", maxRetry,
				"error", err)
		}),
	})

	return &Worker{
		server: server,
		mux:    NewServeMux(req),
		logger: logger,
	}, nil
}

// NewServeMux returns a mux with every task registered behind Lifecycle.
func NewServeMux(req *Request) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Use(Lifecycle(req))
	Register(mux)
	return mux
}

// Start begins processing in the background.
func (w *Worker) Start() error {
	w.logger.Info("task worker starting", "queues", Queues())
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("failed to start task worker: %w", err)
	}
	return nil
}

// Shutdown waits for in-flight tasks up to the shutdown timeout.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
	w.logger.Info("task worker stopped")
}
