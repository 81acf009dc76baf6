package base

import (
	"context"

	"github.com/google/uuid"

	"github.com/asystent-radnego/common-go/pkg/models"
)

// MeasureConnection runs probe and reports it as a connection test.
// It never fails: errors and panics become a result with status failed.
func (a *Adapter) MeasureConnection(ctx context.Context, probe func(ctx context.Context) error) (result models.TestResult) {
	start := a.now()
	result = models.TestResult{
		ID:       uuid.NewString(),
		TestType: models.TestTypeConnection,
		Status:   models.TestStatusSuccess,
	}

	defer func() {
		if r := recover(); r != nil {
			a.fail(&result, HandleValue(r))
		}
		end := a.now()
		result.ResponseTimeMs = end.Sub(start).Milliseconds()
		result.TestedAt = end.UTC()

		a.logger.Info("connection test finished",
			"provider", string(a.config.Provider),
			"status", string(result.Status),
			"response_time_ms", result.ResponseTimeMs,
		)
	}()

	if err := probe(ctx); err != nil {
		a.fail(&result, HandleError(err))
	}
	return result
}

func (a *Adapter) fail(result *models.TestResult, perr *ProviderError) {
	result.Status = models.TestStatusFailed
	result.ErrorMessage = perr.Message
	if result.ErrorMessage == "" {
		result.ErrorMessage = perr.Code
	}
	result.ErrorDetails = perr.Details()
}
