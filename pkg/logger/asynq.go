package logger

import (
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/asystent-radnego/common-go/pkg/types"
)

// AsynqLoggerAdapter adapts the common logger to asynq.Logger interface
type AsynqLoggerAdapter struct {
	logger types.Logger
}

// NewAsynqLoggerAdapter creates a new asynq logger adapter
func NewAsynqLoggerAdapter(log types.Logger) asynq.Logger {
	return &AsynqLoggerAdapter{logger: log}
}

// Debug implements asynq.Logger
func (a *AsynqLoggerAdapter) Debug(args ...interface{}) {
	a.logger.Debug("asynq debug", "detail", fmt.Sprint(args...))
}

// Info implements asynq.Logger
func (a *AsynqLoggerAdapter) Info(args ...interface{}) {
	a.logger.Info("asynq info", "detail", fmt.Sprint(args...))
}

// Warn implements asynq.Logger
func (a *AsynqLoggerAdapter) Warn(args ...interface{}) {
	a.logger.Warn("asynq warn", "detail", fmt.Sprint(args...))
}

// Error implements asynq.Logger
func (a *AsynqLoggerAdapter) Error(args ...interface{}) {
	a.logger.Error("asynq error", "detail", fmt.Sprint(args...))
}

// Fatal implements asynq.Logger. The worker owns process exit, so this logs
// at error level.
func (a *AsynqLoggerAdapter) Fatal(args ...interface{}) {
	a.logger.Error("asynq fatal", "detail", fmt.Sprint(args...))
}
