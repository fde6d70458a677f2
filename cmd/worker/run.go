package main

import (
	"context"
	"database/sql"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/phrazzld/marginalia/internal/feature"
	"github.com/phrazzld/marginalia/internal/platform/mail"
	"github.com/phrazzld/marginalia/internal/platform/postgres"
	"github.com/phrazzld/marginalia/internal/platform/redis"
	"github.com/phrazzld/marginalia/internal/task"
)

func newRunCmd() *cobra.Command {
	var noBeat bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process queued tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return runWorker(ctx, e, !noBeat)
		},
	}
	cmd.Flags().BoolVar(&noBeat, "no-beat", false, "do not run the periodic schedule in this process")
	return cmd
}

func newBeatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "beat",
		Short: "Run the periodic schedule only",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			redisOpt, err := redis.AsynqOpt(e.cfg.Broker.URL)
			if err != nil {
				return err
			}
			scheduler, err := startScheduler(redisOpt, e)
			if err != nil {
				return err
			}
			<-ctx.Done()
			scheduler.Shutdown()
			return nil
		},
	}
}

// runWorker processes tasks until ctx is cancelled.
func runWorker(ctx context.Context, e *env, beat bool) error {
	redisOpt, err := redis.AsynqOpt(e.cfg.Broker.URL)
	if err != nil {
		return err
	}

	db, err := postgres.Open(ctx, e.cfg.Database.URL, postgres.PoolOptions{
		MaxOpenConns:    e.cfg.Database.MaxOpenConns,
		MaxIdleConns:    e.cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(e.cfg.Database.ConnMaxLifetimeMinutes) * time.Minute,
	}, 5*time.Second)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	worker, err := task.NewWorker(redisOpt, task.WorkerConfig{
		Concurrency: e.cfg.Broker.Concurrency,
	}, buildRequest(db, e), e.logger)
	if err != nil {
		return err
	}
	if err := worker.Start(); err != nil {
		return err
	}
	defer worker.Shutdown()

	if beat {
		scheduler, err := startScheduler(redisOpt, e)
		if err != nil {
			return err
		}
		defer scheduler.Shutdown()
	}

	<-ctx.Done()
	e.logger.Info("shutdown signal received")
	return nil
}

// buildRequest assembles the dependencies handed to every task.
func buildRequest(db *sql.DB, e *env) *task.Request {
	log := e.logger
	return &task.Request{
		DB:       db,
		Features: feature.NewClient(postgres.NewPostgresFeatureStore(db, log), log),
		Mailer: mail.NewSMTPSender(mail.SMTPConfig{
			Host:     e.cfg.Mail.Host,
			Port:     e.cfg.Mail.Port,
			Username: e.cfg.Mail.Username,
			Password: e.cfg.Mail.Password,
			From:     e.cfg.Mail.Sender,
		}, log),
		Logger:      log,
		Users:       postgres.NewPostgresUserStore(db, log),
		Annotations: postgres.NewPostgresAnnotationStore(db, log),
		Auth:        postgres.NewPostgresAuthStore(db, log),
		Search:      postgres.NewPostgresSearchIndex(db, log),
	}
}

func startScheduler(redisOpt asynq.RedisConnOpt, e *env) (*task.Scheduler, error) {
	interval := time.Duration(e.cfg.Task.CleanupIntervalMinutes) * time.Minute
	scheduler, err := task.NewScheduler(redisOpt, interval, e.logger)
	if err != nil {
		return nil, err
	}
	if err := scheduler.Start(); err != nil {
		return nil, err
	}
	return scheduler, nil
}
