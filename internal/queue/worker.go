package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

func (q *Queue) HandleRunSchedulerTask(ctx context.Context, task *asynq.Task) error {
	var payload RunSchedulerPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode %s payload: %v: %w", TaskTypeRunScheduler, err, asynq.SkipRetry)
	}

	limit := payload.Limit
	if limit <= 0 {
		limit = q.defaultLimit
	}

	result, err := q.scheduler.RunOnce(ctx, limit)
	if err != nil {
		slog.Error("scheduler run failed", "error", err)
		return err
	}

	slog.Info("scheduler task done",
		"run_id", result.RunID,
		"processed", result.Processed,
		"successful", result.Successful,
		"failed", result.Failed,
		"skipped", result.Skipped)
	return nil
}
