package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/repository"
	"github.com/maheshrc27/postflow/internal/transfer"
)

var (
	ErrInvalidPost            = errors.New("invalid post")
	ErrInvalidScheduleRequest = errors.New("invalid schedule request")
	ErrScheduleNotPending     = errors.New("schedule is no longer pending")
)

const cancelledMessage = "cancelled"

type PostService interface {
	CreateDraft(ctx context.Context, userID, workspaceID int64, pc *transfer.PostCreation) (int64, error)
	SchedulePost(ctx context.Context, workspaceID int64, req *transfer.ScheduleRequest) ([]int64, error)
	CancelSchedule(ctx context.Context, workspaceID, scheduleID int64) error
	ListSchedules(ctx context.Context, workspaceID, postID int64) ([]*models.PostSchedule, error)
	ListActivity(ctx context.Context, workspaceID, postID int64) ([]*models.ActivityLog, error)
}

type postService struct {
	db         *sql.DB
	pr         repository.PostRepository
	sr         repository.ScheduleRepository
	ac         repository.SocialAccountRepository
	pm         repository.PostMediaRepository
	al         repository.ActivityLogRepository
	reconciler ReconcilerService
	activity   ActivityRecorder
}

func NewPostService(
	db *sql.DB,
	pr repository.PostRepository,
	sr repository.ScheduleRepository,
	ac repository.SocialAccountRepository,
	pm repository.PostMediaRepository,
	al repository.ActivityLogRepository,
	reconciler ReconcilerService,
	activity ActivityRecorder) PostService {
	return &postService{
		db:         db,
		pr:         pr,
		sr:         sr,
		ac:         ac,
		pm:         pm,
		al:         al,
		reconciler: reconciler,
		activity:   activity,
	}
}

// CreateDraft stores a draft post and attaches its media in display order.
func (s *postService) CreateDraft(ctx context.Context, userID, workspaceID int64, pc *transfer.PostCreation) (id int64, err error) {
	if pc == nil {
		return 0, fmt.Errorf("%w: post creation data is nil", ErrInvalidPost)
	}
	if strings.TrimSpace(pc.Content) == "" && len(pc.AssetIDs) == 0 {
		return 0, fmt.Errorf("%w: post needs content or media", ErrInvalidPost)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	id, err = s.pr.Create(ctx, tx, &models.Post{
		UserID:      userID,
		WorkspaceID: workspaceID,
		Content:     pc.Content,
		Title:       pc.Title,
		Metadata:    pc.Metadata,
		Status:      models.PostStatusDraft,
	})
	if err != nil {
		return 0, fmt.Errorf("error saving post: %w", err)
	}

	for i, assetID := range pc.AssetIDs {
		if err = s.pm.Create(ctx, tx, &models.PostMedia{
			PostID:       id,
			AssetID:      assetID,
			DisplayOrder: i,
		}); err != nil {
			return 0, fmt.Errorf("error attaching media %d: %w", assetID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("draft post created", "post_id", id, "media", len(pc.AssetIDs))
	return id, nil
}

func parseScheduledTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04", value)
}

// SchedulePost creates one pending schedule per account, all in one
// transaction, and moves the post to pending.
func (s *postService) SchedulePost(ctx context.Context, workspaceID int64, req *transfer.ScheduleRequest) (ids []int64, err error) {
	if req == nil || req.PostID == 0 {
		return nil, fmt.Errorf("%w: post_id is required", ErrInvalidScheduleRequest)
	}
	if len(req.AccountIDs) == 0 {
		return nil, fmt.Errorf("%w: no social accounts selected", ErrInvalidScheduleRequest)
	}

	scheduledAt, err := parseScheduledTime(req.ScheduledTime)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid scheduled time format: %v", ErrInvalidScheduleRequest, err)
	}

	post, err := s.ownedPost(ctx, workspaceID, req.PostID)
	if err != nil {
		return nil, err
	}

	accounts, err := s.ac.ListByIDs(ctx, req.AccountIDs)
	if err != nil {
		return nil, fmt.Errorf("error loading social accounts: %w", err)
	}
	owned := make(map[int64]bool, len(accounts))
	for _, acc := range accounts {
		if acc.WorkspaceID == workspaceID {
			owned[acc.ID] = true
		}
	}
	for _, id := range req.AccountIDs {
		if !owned[id] {
			return nil, fmt.Errorf("%w: social account %d does not exist", ErrInvalidScheduleRequest, id)
		}
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	seen := make(map[int64]bool, len(req.AccountIDs))
	for _, accountID := range req.AccountIDs {
		if seen[accountID] {
			continue
		}
		seen[accountID] = true

		var id int64
		id, err = s.sr.Create(ctx, tx, &models.PostSchedule{
			PostID:      post.ID,
			AccountID:   accountID,
			ScheduledAt: scheduledAt,
			Status:      models.ScheduleStatusPending,
		})
		if err != nil {
			return nil, fmt.Errorf("error saving schedule for account %d: %w", accountID, err)
		}
		ids = append(ids, id)
	}

	if err = s.pr.UpdateStatus(ctx, tx, post.ID, models.PostStatusPending, nil); err != nil {
		return nil, fmt.Errorf("error updating post status: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("post scheduled", "post_id", post.ID, "schedules", len(ids), "scheduled_at", scheduledAt)
	return ids, nil
}

func (s *postService) CancelSchedule(ctx context.Context, workspaceID, scheduleID int64) error {
	schedule, err := s.sr.GetByID(ctx, scheduleID)
	if err != nil {
		return err
	}

	post, err := s.ownedPost(ctx, workspaceID, schedule.PostID)
	if err != nil {
		return err
	}

	if err := s.sr.CancelPending(ctx, scheduleID, cancelledMessage); err != nil {
		if errors.Is(err, repository.ErrStaleSchedule) {
			return ErrScheduleNotPending
		}
		return err
	}

	if s.activity != nil {
		s.activity.Record(ctx, models.ActivityLog{
			UserID:     post.UserID,
			PostID:     post.ID,
			ScheduleID: scheduleID,
			AccountID:  schedule.AccountID,
			Action:     models.ActivityActionCancel,
			Outcome:    models.ActivityOutcomeSuccess,
		})
	}

	if err := s.reconciler.Reconcile(ctx, post.ID); err != nil {
		slog.Error("post reconciliation failed", "post_id", post.ID, "error", err)
	}
	return nil
}

func (s *postService) ListSchedules(ctx context.Context, workspaceID, postID int64) ([]*models.PostSchedule, error) {
	if _, err := s.ownedPost(ctx, workspaceID, postID); err != nil {
		return nil, err
	}
	return s.sr.ListByPostID(ctx, postID)
}

func (s *postService) ListActivity(ctx context.Context, workspaceID, postID int64) ([]*models.ActivityLog, error) {
	if _, err := s.ownedPost(ctx, workspaceID, postID); err != nil {
		return nil, err
	}
	return s.al.ListByPostID(ctx, postID)
}

// ownedPost hides posts of other workspaces behind ErrNotFound.
func (s *postService) ownedPost(ctx context.Context, workspaceID, postID int64) (*models.Post, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.WorkspaceID != workspaceID {
		return nil, repository.ErrNotFound
	}
	return post, nil
}
