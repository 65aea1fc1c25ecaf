package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/maheshrc27/postflow/internal/models"
)

// ScheduleRepository is the job store. Every status transition is a
// conditional write on the current status, which is what keeps concurrent
// scheduler instances from delivering the same schedule twice.
type ScheduleRepository interface {
	Create(ctx context.Context, tx *sql.Tx, s *models.PostSchedule) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.PostSchedule, error)
	ListDue(ctx context.Context, cutoff time.Time, limit int) ([]*models.PostSchedule, error)
	ClaimPending(ctx context.Context, ids []int64) ([]int64, error)
	GetStatus(ctx context.Context, id int64) (models.ScheduleStatus, error)
	MarkPublished(ctx context.Context, id int64, externalPostID string, publishedAt time.Time) error
	MarkRetry(ctx context.Context, id int64, retryCount int, nextAttempt time.Time, errorMessage string) error
	MarkFailed(ctx context.Context, id int64, errorMessage string) error
	CancelPending(ctx context.Context, id int64, reason string) error
	ListByPostID(ctx context.Context, postID int64) ([]*models.PostSchedule, error)
}

type scheduleRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

func NewScheduleRepository(db *sql.DB) ScheduleRepository {
	return &scheduleRepository{db: db, sb: psql()}
}

var scheduleColumns = []string{
	"id",
	"post_id",
	"account_id",
	"scheduled_at",
	"status",
	"retry_count",
	"error_message",
	"external_post_id",
	"published_at",
	"created_at",
	"updated_at",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (*models.PostSchedule, error) {
	var (
		s              models.PostSchedule
		errorMessage   sql.NullString
		externalPostID sql.NullString
		publishedAt    sql.NullTime
	)
	err := row.Scan(&s.ID, &s.PostID, &s.AccountID, &s.ScheduledAt, &s.Status, &s.RetryCount,
		&errorMessage, &externalPostID, &publishedAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}

	s.ErrorMessage = errorMessage.String
	s.ExternalPostID = externalPostID.String
	if publishedAt.Valid {
		t := publishedAt.Time
		s.PublishedAt = &t
	}
	return &s, nil
}

func (r *scheduleRepository) Create(ctx context.Context, tx *sql.Tx, s *models.PostSchedule) (int64, error) {
	query := `
		INSERT INTO post_schedules (post_id, account_id, scheduled_at, status, retry_count)
		VALUES ($1, $2, $3, $4, 0)
		RETURNING id
	`

	var id int64
	var err error

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, s.PostID, s.AccountID, s.ScheduledAt, models.ScheduleStatusPending).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, s.PostID, s.AccountID, s.ScheduledAt, models.ScheduleStatusPending).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *scheduleRepository) GetByID(ctx context.Context, id int64) (*models.PostSchedule, error) {
	query, args, err := r.sb.Select(scheduleColumns...).
		From("post_schedules").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build schedule select: %w", err)
	}

	s, err := scanSchedule(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		slog.Info(err.Error())
		return nil, err
	}
	return s, nil
}

func (r *scheduleRepository) ListDue(ctx context.Context, cutoff time.Time, limit int) ([]*models.PostSchedule, error) {
	if limit <= 0 {
		return nil, nil
	}

	query, args, err := r.sb.Select(scheduleColumns...).
		From("post_schedules").
		Where(sq.Eq{"status": models.ScheduleStatusPending}).
		Where(sq.LtOrEq{"scheduled_at": cutoff}).
		OrderBy("scheduled_at ASC", "id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build due schedules select: %w", err)
	}

	return r.list(ctx, query, args...)
}

func (r *scheduleRepository) ClaimPending(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := r.sb.Update("post_schedules").
		Set("status", models.ScheduleStatusPublishing).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": ids}).
		Where(sq.Eq{"status": models.ScheduleStatusPending}).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build claim update: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("claim schedules: %w", err)
	}
	defer rows.Close()

	claimed := make([]int64, 0, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan claimed id: %w", err)
		}
		claimed = append(claimed, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claimed ids: %w", err)
	}

	return claimed, nil
}

func (r *scheduleRepository) GetStatus(ctx context.Context, id int64) (models.ScheduleStatus, error) {
	query := `SELECT status FROM post_schedules WHERE id = $1`

	var status models.ScheduleStatus
	err := r.db.QueryRowContext(ctx, query, id).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		slog.Info(err.Error())
		return "", err
	}
	return status, nil
}

func (r *scheduleRepository) MarkPublished(ctx context.Context, id int64, externalPostID string, publishedAt time.Time) error {
	return r.transition(ctx, id, models.ScheduleStatusPublishing, map[string]any{
		"status":           models.ScheduleStatusPublished,
		"external_post_id": nullString(externalPostID),
		"published_at":     publishedAt,
		"error_message":    nil,
	})
}

func (r *scheduleRepository) MarkRetry(ctx context.Context, id int64, retryCount int, nextAttempt time.Time, errorMessage string) error {
	return r.transition(ctx, id, models.ScheduleStatusPublishing, map[string]any{
		"status":        models.ScheduleStatusPending,
		"retry_count":   retryCount,
		"scheduled_at":  nextAttempt,
		"error_message": errorMessage,
	})
}

func (r *scheduleRepository) MarkFailed(ctx context.Context, id int64, errorMessage string) error {
	return r.transition(ctx, id, models.ScheduleStatusPublishing, map[string]any{
		"status":        models.ScheduleStatusFailed,
		"error_message": errorMessage,
	})
}

func (r *scheduleRepository) CancelPending(ctx context.Context, id int64, reason string) error {
	return r.transition(ctx, id, models.ScheduleStatusPending, map[string]any{
		"status":        models.ScheduleStatusFailed,
		"error_message": reason,
	})
}

func (r *scheduleRepository) transition(ctx context.Context, id int64, from models.ScheduleStatus, set map[string]any) error {
	query, args, err := r.sb.Update("post_schedules").
		SetMap(set).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id, "status": from}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build schedule update: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("update schedule %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected == 0 {
		return ErrStaleSchedule
	}
	return nil
}

func (r *scheduleRepository) ListByPostID(ctx context.Context, postID int64) ([]*models.PostSchedule, error) {
	query, args, err := r.sb.Select(scheduleColumns...).
		From("post_schedules").
		Where(sq.Eq{"post_id": postID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build post schedules select: %w", err)
	}

	return r.list(ctx, query, args...)
}

func (r *scheduleRepository) list(ctx context.Context, query string, args ...any) ([]*models.PostSchedule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("query schedules: %w", err)
	}
	defer rows.Close()

	var schedules []*models.PostSchedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		schedules = append(schedules, s)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return schedules, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
