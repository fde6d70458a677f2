package task

import (
	"fmt"
	"log/slog"
	"os"
)

// slogAsynqLogger adapts slog to the asynq.Logger interface.
type slogAsynqLogger struct {
	logger *slog.Logger
}

func newAsynqLogger(logger *slog.Logger) *slogAsynqLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &slogAsynqLogger{logger: logger.With("component", "asynq")}
}

func (l *slogAsynqLogger) Debug(args ...interface{}) { l.logger.Debug(fmt.Sprint(args...)) }
func (l *slogAsynqLogger) Info(args ...interface{})  { l.logger.Info(fmt.Sprint(args...)) }
func (l *slogAsynqLogger) Warn(args ...interface{})  { l.logger.Warn(fmt.Sprint(args...)) }
func (l *slogAsynqLogger) Error(args ...interface{}) { l.logger.Error(fmt.Sprint(args...)) }

// Fatal is only called by asynq when it cannot continue.
func (l *slogAsynqLogger) Fatal(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
	os.Exit(1)
}
