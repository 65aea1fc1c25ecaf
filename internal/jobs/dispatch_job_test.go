package job

import (
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/postflow/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (c *captureEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.tasks = append(c.tasks, task)
	return &asynq.TaskInfo{ID: "x"}, nil
}

func TestDispatchQueuesRunTask(t *testing.T) {
	client := &captureEnqueuer{}
	NewRunDispatchJob(client, 25, time.Minute).Dispatch()

	require.Len(t, client.tasks, 1)
	assert.Equal(t, queue.TaskTypeRunScheduler, client.tasks[0].Type())
	assert.JSONEq(t, `{"limit":25}`, string(client.tasks[0].Payload()))
}

func TestDispatchSwallowsEnqueueErrors(t *testing.T) {
	client := &captureEnqueuer{err: errors.New("redis down")}
	assert.NotPanics(t, func() { NewRunDispatchJob(client, 25, time.Minute).Dispatch() })
}
