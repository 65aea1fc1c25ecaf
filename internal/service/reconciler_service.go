package service

import (
	"context"
	"fmt"
	"time"

	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/repository"
)

type ReconcilerService interface {
	// Reconcile rolls the post's schedule statuses up into the post status.
	Reconcile(ctx context.Context, postID int64) error
}

type reconcilerService struct {
	pr  repository.PostRepository
	sr  repository.ScheduleRepository
	now func() time.Time
}

func NewReconcilerService(pr repository.PostRepository, sr repository.ScheduleRepository, now func() time.Time) ReconcilerService {
	if now == nil {
		now = time.Now
	}
	return &reconcilerService{pr: pr, sr: sr, now: now}
}

// AggregateStatus returns the post status implied by its schedules. ok is
// false while there are no schedules or any of them is still in flight.
func AggregateStatus(schedules []*models.PostSchedule) (status models.PostStatus, ok bool) {
	if len(schedules) == 0 {
		return "", false
	}

	published := 0
	for _, s := range schedules {
		if !s.Status.Terminal() {
			return "", false
		}
		if s.Status == models.ScheduleStatusPublished {
			published++
		}
	}

	if published > 0 {
		return models.PostStatusPublished, true
	}
	return models.PostStatusFailed, true
}

func (r *reconcilerService) Reconcile(ctx context.Context, postID int64) error {
	schedules, err := r.sr.ListByPostID(ctx, postID)
	if err != nil {
		return fmt.Errorf("list schedules of post %d: %w", postID, err)
	}

	status, ok := AggregateStatus(schedules)
	if !ok {
		return nil
	}

	post, err := r.pr.GetByID(ctx, postID)
	if err != nil {
		return fmt.Errorf("get post %d: %w", postID, err)
	}
	if post.Status == status {
		return nil
	}

	var publishedAt *time.Time
	if status == models.PostStatusPublished {
		t := r.now()
		publishedAt = &t
	}

	if err := r.pr.UpdateStatus(ctx, nil, postID, status, publishedAt); err != nil {
		return fmt.Errorf("update status of post %d: %w", postID, err)
	}
	return nil
}
