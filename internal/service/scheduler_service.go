package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	config "github.com/maheshrc27/postflow/configs"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/repository"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const systemErrorMessage = "system error while publishing"

type SchedulerService interface {
	// RunOnce processes up to limit due schedules. Only a failing due query
	// or claim is returned as an error; per-schedule problems end up in the
	// result.
	RunOnce(ctx context.Context, limit int) (*models.RunResult, error)
}

type SchedulerOptions struct {
	Lookahead       time.Duration
	MaxRetries      int
	RetryBackoff    time.Duration
	Concurrency     int
	ValidateTimeout time.Duration
	PublishTimeout  time.Duration
	Now             func() time.Time
}

func SchedulerOptionsFromConfig(cfg config.Scheduler) SchedulerOptions {
	return SchedulerOptions{
		Lookahead:       cfg.Lookahead,
		MaxRetries:      cfg.MaxRetries,
		RetryBackoff:    cfg.RetryBackoff,
		Concurrency:     cfg.Concurrency,
		ValidateTimeout: cfg.ValidateTimeout,
		PublishTimeout:  cfg.PublishTimeout,
	}
}

type schedulerService struct {
	sr         repository.ScheduleRepository
	validator  ValidatorService
	publishers PublisherFactory
	reconciler ReconcilerService
	activity   ActivityRecorder
	opts       SchedulerOptions
}

func NewSchedulerService(
	sr repository.ScheduleRepository,
	validator ValidatorService,
	publishers PublisherFactory,
	reconciler ReconcilerService,
	activity ActivityRecorder,
	opts SchedulerOptions) SchedulerService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &schedulerService{
		sr:         sr,
		validator:  validator,
		publishers: publishers,
		reconciler: reconciler,
		activity:   activity,
		opts:       opts,
	}
}

func (s *schedulerService) RunOnce(ctx context.Context, limit int) (*models.RunResult, error) {
	runID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}

	result := &models.RunResult{RunID: runID, Details: []models.JobDetail{}}

	cutoff := s.opts.Now().Add(s.opts.Lookahead)
	due, err := s.sr.ListDue(ctx, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list due schedules: %w", err)
	}
	if len(due) == 0 {
		return result, nil
	}

	ids := make([]int64, 0, len(due))
	for _, job := range due {
		ids = append(ids, job.ID)
	}
	claimedIDs, err := s.sr.ClaimPending(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("claim schedules: %w", err)
	}

	claimed := make(map[int64]bool, len(claimedIDs))
	for _, id := range claimedIDs {
		claimed[id] = true
	}
	jobs := make([]*models.PostSchedule, 0, len(claimedIDs))
	for _, job := range due {
		if claimed[job.ID] {
			jobs = append(jobs, job)
		}
	}

	slog.Info("scheduler run started", "run_id", runID, "due", len(due), "claimed", len(jobs))

	details := make([]models.JobDetail, len(jobs))
	sem := make(chan struct{}, s.opts.Concurrency)
	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, job *models.PostSchedule) {
			defer wg.Done()
			defer func() { <-sem }()
			details[i] = s.process(ctx, runID, job)
		}(i, job)
	}
	wg.Wait()

	result.Processed = len(jobs)
	result.Details = details
	for _, d := range details {
		switch d.Outcome {
		case models.OutcomePublished:
			result.Successful++
		case models.OutcomeFailed:
			result.Failed++
		default:
			result.Skipped++
		}
	}

	slog.Info("scheduler run finished",
		"run_id", runID,
		"processed", result.Processed,
		"successful", result.Successful,
		"failed", result.Failed,
		"skipped", result.Skipped)

	return result, nil
}

// process takes one claimed schedule to its next state.
func (s *schedulerService) process(ctx context.Context, runID string, job *models.PostSchedule) (detail models.JobDetail) {
	attemptAt := s.opts.Now()
	log := slog.With("run_id", runID, "schedule_id", job.ID, "post_id", job.PostID)

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while processing schedule", "panic", r)
			detail = s.fail(ctx, job, systemErrorMessage)
		}
	}()

	vctx, cancel := s.withTimeout(ctx, s.opts.ValidateTimeout)
	validation := s.validator.Validate(vctx, job.PostID)
	cancel()
	if !validation.Valid {
		return s.fail(ctx, job, "validation failed: "+strings.Join(validation.Errors, "; "))
	}
	for _, w := range validation.Warnings {
		log.Warn("validation warning", "warning", w)
	}

	account := validation.Account(job.AccountID)
	if account == nil {
		return s.fail(ctx, job, "account not found")
	}

	status, err := s.sr.GetStatus(ctx, job.ID)
	if err != nil {
		log.Error("re-reading schedule status failed", "error", err)
		return s.fail(ctx, job, systemErrorMessage)
	}
	if status != models.ScheduleStatusPublishing {
		return models.JobDetail{
			ScheduleID: job.ID,
			PostID:     job.PostID,
			Outcome:    models.OutcomeSkipped,
			Message:    fmt.Sprintf("schedule is already %s", status),
		}
	}

	publisher, err := s.publishers.ForAccount(account)
	if err != nil {
		return s.fail(ctx, job, err.Error())
	}

	data := models.PublishData{
		Content:  validation.Post.Content,
		Title:    validation.Post.Title,
		Media:    validation.Media,
		Metadata: validation.Post.Metadata,
	}

	pctx, cancel := s.withTimeout(ctx, s.opts.PublishTimeout)
	res := publisher.Publish(pctx, data)
	cancel()

	s.recordPublish(ctx, validation.Post, job, res)

	if res.Success {
		return s.succeed(ctx, job, res)
	}
	return s.retryOrFail(ctx, job, attemptAt, res.Error)
}

func (s *schedulerService) succeed(ctx context.Context, job *models.PostSchedule, res models.PublishResult) models.JobDetail {
	detail := models.JobDetail{
		ScheduleID: job.ID,
		PostID:     job.PostID,
		Outcome:    models.OutcomePublished,
		Message:    "published as " + res.ExternalPostID,
	}

	if err := s.sr.MarkPublished(ctx, job.ID, res.ExternalPostID, s.opts.Now()); err != nil {
		// The platform already accepted the post, the outcome stays published.
		slog.Error("recording published schedule failed", "schedule_id", job.ID, "external_post_id", res.ExternalPostID, "error", err)
		detail.Message += " (status not recorded: " + err.Error() + ")"
		return detail
	}

	s.reconcile(ctx, job.PostID)
	return detail
}

func (s *schedulerService) retryOrFail(ctx context.Context, job *models.PostSchedule, attemptAt time.Time, message string) models.JobDetail {
	if message == "" {
		message = "publish failed"
	}
	if job.RetryCount >= s.opts.MaxRetries {
		return s.fail(ctx, job, message)
	}

	next := job.RetryCount + 1
	nextAttempt := attemptAt.Add(time.Duration(next) * s.opts.RetryBackoff)
	if err := s.sr.MarkRetry(ctx, job.ID, next, nextAttempt, message); err != nil {
		slog.Error("scheduling retry failed", "schedule_id", job.ID, "error", err)
		return s.fail(ctx, job, systemErrorMessage)
	}

	return models.JobDetail{
		ScheduleID: job.ID,
		PostID:     job.PostID,
		Outcome:    models.OutcomeRetry,
		Message:    fmt.Sprintf("retry %d/%d at %s: %s", next, s.opts.MaxRetries, nextAttempt.Format(time.RFC3339), message),
	}
}

func (s *schedulerService) fail(ctx context.Context, job *models.PostSchedule, message string) models.JobDetail {
	detail := models.JobDetail{
		ScheduleID: job.ID,
		PostID:     job.PostID,
		Outcome:    models.OutcomeFailed,
		Message:    message,
	}

	if err := s.sr.MarkFailed(ctx, job.ID, message); err != nil {
		if errors.Is(err, repository.ErrStaleSchedule) {
			slog.Warn("schedule left publishing before it could be failed", "schedule_id", job.ID)
		} else {
			slog.Error("recording failed schedule failed", "schedule_id", job.ID, "error", err)
		}
		return detail
	}

	s.reconcile(ctx, job.PostID)
	return detail
}

func (s *schedulerService) reconcile(ctx context.Context, postID int64) {
	if err := s.reconciler.Reconcile(ctx, postID); err != nil {
		slog.Error("post reconciliation failed", "post_id", postID, "error", err)
	}
}

func (s *schedulerService) recordPublish(ctx context.Context, post *models.Post, job *models.PostSchedule, res models.PublishResult) {
	if s.activity == nil {
		return
	}
	entry := models.ActivityLog{
		UserID:     post.UserID,
		PostID:     job.PostID,
		ScheduleID: job.ID,
		AccountID:  job.AccountID,
		Action:     models.ActivityActionPublish,
		Outcome:    models.ActivityOutcomeSuccess,
	}
	if !res.Success {
		entry.Outcome = models.ActivityOutcomeFailure
		entry.ErrorMessage = res.Error
	}
	s.activity.Record(ctx, entry)
}

func (s *schedulerService) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
