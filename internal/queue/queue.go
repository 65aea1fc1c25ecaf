package queue

import (
	"github.com/maheshrc27/postflow/internal/service"
)

type Queue struct {
	scheduler    service.SchedulerService
	defaultLimit int
}

func NewQueue(scheduler service.SchedulerService, defaultLimit int) *Queue {
	return &Queue{
		scheduler:    scheduler,
		defaultLimit: defaultLimit,
	}
}

const TaskTypeRunScheduler = "scheduler:run"

// RunSchedulerPayload asks a worker for one RunOnce. A zero Limit means the
// configured batch limit.
type RunSchedulerPayload struct {
	Limit int `json:"limit"`
}
