package task

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// DefaultCleanupInterval is how often the expiry jobs run.
const DefaultCleanupInterval = time.Hour

// ScheduleEntry is a periodic task.
type ScheduleEntry struct {
	Name     string
	TaskType string
	Interval time.Duration
}

// Cronspec renders the interval in asynq's "@every" form.
func (e ScheduleEntry) Cronspec() string {
	return fmt.Sprintf("@every %s", e.Interval)
}

// Schedule returns the periodic entries at the given interval.
func Schedule(interval time.Duration) []ScheduleEntry {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	return []ScheduleEntry{
		{Name: "delete-expired-authtickets", TaskType: TypeDeleteExpiredAuthTickets, Interval: interval},
		{Name: "delete-expired-tokens", TaskType: TypeDeleteExpiredTokens, Interval: interval},
	}
}

// Scheduler enqueues the periodic entries.
type Scheduler struct {
	scheduler *asynq.Scheduler
	logger    *slog.Logger
}

// NewScheduler registers every Schedule entry.
func NewScheduler(redisOpt asynq.RedisConnOpt, interval time.Duration, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "task_scheduler")

	s := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: time.UTC,
		Logger:   newAsynqLogger(logger),
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				logger.Error("scheduled enqueue failed", "error", err)
				return
			}
			logger.Debug("scheduled task enqueued", "task_type", info.Type, "task_id", info.ID)
		},
	})

	for _, e := range Schedule(interval) {
		t, err := NewTask(e.TaskType, nil)
		if err != nil {
			return nil, err
		}
		id, err := s.Register(e.Cronspec(), t)
		if err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", e.Name, err)
		}
		logger.Info("schedule entry registered",
			"name", e.Name,
			"task_type", e.TaskType,
			"cronspec", e.Cronspec(),
			"entry_id", id)
	}

	return &Scheduler{scheduler: s, logger: logger}, nil
}

// Start runs the scheduler in the background.
func (s *Scheduler) Start() error {
	if err := s.scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	return nil
}

// Shutdown stops the scheduler.
func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
	s.logger.Info("scheduler stopped")
}
