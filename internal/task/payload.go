package task

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// DefaultMaxRetry is applied to every task built with NewTask.
const DefaultMaxRetry = 5

// ErrUnknownTaskType is returned by NewTask for types outside the registry.
var ErrUnknownTaskType = errors.New("unknown task type")

// RenameUserPayload is the payload of admin:rename_user.
type RenameUserPayload struct {
	UserID      uuid.UUID `json:"user_id"`
	NewUsername string    `json:"new_username"`
}

// AnnotationPayload is the payload of the indexer tasks.
type AnnotationPayload struct {
	AnnotationID uuid.UUID `json:"annotation_id"`
}

// NIPSAPayload is the payload of the nipsa tasks.
type NIPSAPayload struct {
	UserID string `json:"userid"`
}

// NewTask builds an asynq task with a JSON payload, routed to its queue.
// A nil payload is sent as an empty object.
func NewTask(taskType string, payload any, opts ...asynq.Option) (*asynq.Task, error) {
	known := false
	for _, t := range Types() {
		if t == taskType {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTaskType, taskType)
	}

	body := []byte(`{}`)
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return nil, fmt.Errorf("failed to encode %s payload: %w", taskType, err)
		}
	}

	base := []asynq.Option{
		asynq.Queue(Route(taskType)),
		asynq.MaxRetry(DefaultMaxRetry),
	}
	return asynq.NewTask(taskType, body, append(base, opts...)...), nil
}

// decode unmarshals a task payload. Malformed payloads are never retried.
func decode(t *asynq.Task, v any) error {
	if err := json.Unmarshal(t.Payload(), v); err != nil {
		return fmt.Errorf("invalid %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	return nil
}
