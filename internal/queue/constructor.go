package queue

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

func NewRunSchedulerTask(payload RunSchedulerPayload) (*asynq.Task, error) {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeRunScheduler, taskPayload), nil
}

// EnqueueRun queues one scheduler run. At most one run task is queued per
// uniqueFor window; a duplicate is not an error. The task is never retried by
// asynq because schedules carry their own retry state.
func EnqueueRun(client Enqueuer, payload RunSchedulerPayload, uniqueFor time.Duration) error {
	task, err := NewRunSchedulerTask(payload)
	if err != nil {
		return err
	}

	opts := []asynq.Option{asynq.MaxRetry(0)}
	if uniqueFor > 0 {
		opts = append(opts, asynq.Unique(uniqueFor), asynq.Timeout(uniqueFor))
	}

	info, err := client.Enqueue(task, opts...)
	if err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) {
			slog.Info("scheduler run already queued")
			return nil
		}
		return err
	}

	slog.Info("scheduler run queued", "task_id", info.ID, "limit", payload.Limit)
	return nil
}
