package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/repository"
)

// ActivityRecorder writes observability events. Record is fire-and-forget:
// a failed write is logged and never reaches the caller.
type ActivityRecorder interface {
	Record(ctx context.Context, entry models.ActivityLog)
}

type activityRecorder struct {
	repo    repository.ActivityLogRepository
	timeout time.Duration
	now     func() time.Time
}

func NewActivityRecorder(repo repository.ActivityLogRepository, timeout time.Duration) ActivityRecorder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &activityRecorder{repo: repo, timeout: timeout, now: time.Now}
}

func (r *activityRecorder) Record(ctx context.Context, entry models.ActivityLog) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now()
	}

	// Detached so a cancelled publish still leaves its trail.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	if _, err := r.repo.Create(ctx, &entry); err != nil {
		slog.Warn("activity log write failed",
			"post_id", entry.PostID,
			"schedule_id", entry.ScheduleID,
			"action", entry.Action,
			"error", err)
	}
}
