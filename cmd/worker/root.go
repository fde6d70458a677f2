package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/phrazzld/marginalia/internal/config"
	"github.com/phrazzld/marginalia/internal/platform/logger"
)

// env is what every subcommand needs once configuration is loaded.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
}

// loadEnv is replaced in tests.
var loadEnv = func() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log, err := logger.Setup(logger.LoggerConfig{Level: cfg.Server.LogLevel})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	return &env{cfg: cfg, logger: log}, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "worker",
		Short: "Run marginalia background tasks",
		Long: `Process tasks from the Redis broker.

Available subcommands:
  run     - process tasks, and run the periodic schedule unless --no-beat
  beat    - run only the periodic schedule
  enqueue - push one task onto the queue`,
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd(), newBeatCmd(), newEnqueueCmd())
	return root
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
