package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/phrazzld/marginalia/internal/platform/redis"
	"github.com/phrazzld/marginalia/internal/task"
)

func newEnqueueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue <task-type> [json-payload]",
		Short: "Push one task onto the queue",
		Example: `  worker enqueue auth:delete_expired_tokens
  worker enqueue nipsa:add_nipsa '{"userid":"acct:spammer@example.com"}'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskType, payload, err := parseEnqueueArgs(args)
			if err != nil {
				return err
			}
			e, err := loadEnv()
			if err != nil {
				return err
			}
			redisOpt, err := redis.AsynqOpt(e.cfg.Broker.URL)
			if err != nil {
				return err
			}
			enqueuer := task.NewEnqueuer(redisOpt, e.logger)
			defer func() { _ = enqueuer.Close() }()

			if err := enqueuer.EnqueueRaw(cmd.Context(), taskType, payload); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s on %s\n", taskType, task.Route(taskType))
			return nil
		},
	}
}

// parseEnqueueArgs checks the task type is known. A missing payload is "{}".
func parseEnqueueArgs(args []string) (string, []byte, error) {
	taskType := args[0]
	if !slices.Contains(task.Types(), taskType) {
		return "", nil, fmt.Errorf("unknown task type %q", taskType)
	}
	payload := []byte("{}")
	if len(args) > 1 {
		payload = []byte(args[1])
	}
	return taskType, payload, nil
}
