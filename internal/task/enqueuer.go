package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/phrazzld/marginalia/internal/platform/mail"
)

// asynqClient is the subset of *asynq.Client the Enqueuer uses.
type asynqClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Enqueuer dispatches tasks to the broker.
type Enqueuer struct {
	client asynqClient
	logger *slog.Logger
}

// NewEnqueuer creates an Enqueuer connected to redisOpt.
func NewEnqueuer(redisOpt asynq.RedisConnOpt, logger *slog.Logger) *Enqueuer {
	return newEnqueuer(asynq.NewClient(redisOpt), logger)
}

func newEnqueuer(client asynqClient, logger *slog.Logger) *Enqueuer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enqueuer{client: client, logger: logger.With("component", "task_enqueuer")}
}

// Close releases the broker connection.
func (e *Enqueuer) Close() error {
	return e.client.Close()
}

// Enqueue sends a task of taskType with payload.
func (e *Enqueuer) Enqueue(ctx context.Context, taskType string, payload any) error {
	t, err := NewTask(taskType, payload)
	if err != nil {
		return err
	}
	info, err := e.client.EnqueueContext(ctx, t)
	if err != nil {
		e.logger.Warn("enqueue failed", "task_type", taskType, "error", err)
		return fmt.Errorf("failed to enqueue %s: %w", taskType, err)
	}
	e.logger.Debug("task enqueued",
		"task_type", taskType,
		"task_id", info.ID,
		"queue", info.Queue)
	return nil
}

// EnqueueRaw sends a task whose payload is already JSON.
func (e *Enqueuer) EnqueueRaw(ctx context.Context, taskType string, payload []byte) error {
	var fields map[string]any
	if err := decode(asynq.NewTask(taskType, payload), &fields); err != nil {
		return err
	}
	return e.Enqueue(ctx, taskType, fields)
}

// IndexAnnotation schedules indexer:add_annotation.
func (e *Enqueuer) IndexAnnotation(ctx context.Context, id uuid.UUID) error {
	return e.Enqueue(ctx, TypeAddAnnotation, AnnotationPayload{AnnotationID: id})
}

// RemoveAnnotation schedules indexer:delete_annotation.
func (e *Enqueuer) RemoveAnnotation(ctx context.Context, id uuid.UUID) error {
	return e.Enqueue(ctx, TypeDeleteAnnotation, AnnotationPayload{AnnotationID: id})
}

// Send schedules mailer:send, so mail is delivered from the worker.
func (e *Enqueuer) Send(ctx context.Context, msg mail.Message) error {
	if len(msg.Recipients) == 0 {
		return mail.ErrNoRecipients
	}
	return e.Enqueue(ctx, TypeSendMail, msg)
}
