package job

import (
	"log/slog"
	"time"

	"github.com/maheshrc27/postflow/internal/queue"
)

// RunDispatchJob is registered with cron and queues one scheduler run per
// tick. Workers pick the task up, so only one instance needs the cron.
type RunDispatchJob struct {
	client    queue.Enqueuer
	limit     int
	uniqueFor time.Duration
}

func NewRunDispatchJob(client queue.Enqueuer, limit int, uniqueFor time.Duration) *RunDispatchJob {
	return &RunDispatchJob{
		client:    client,
		limit:     limit,
		uniqueFor: uniqueFor,
	}
}

func (j *RunDispatchJob) Dispatch() {
	err := queue.EnqueueRun(j.client, queue.RunSchedulerPayload{Limit: j.limit}, j.uniqueFor)
	if err != nil {
		slog.Info("Unable to queue scheduler run", "error", err)
	}
}
