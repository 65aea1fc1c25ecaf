package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/postflow/internal/models"
)

type ActivityLogRepository interface {
	Create(ctx context.Context, al *models.ActivityLog) (int64, error)
	ListByPostID(ctx context.Context, postID int64) ([]*models.ActivityLog, error)
}

type activityLogRepository struct {
	db *sql.DB
}

func NewActivityLogRepository(db *sql.DB) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

func (r *activityLogRepository) Create(ctx context.Context, al *models.ActivityLog) (int64, error) {
	query := `
		INSERT INTO activity_logs (user_id, post_id, schedule_id, account_id, action, outcome, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, al.UserID, al.PostID, nullInt64(al.ScheduleID), nullInt64(al.AccountID),
		al.Action, al.Outcome, al.ErrorMessage, al.CreatedAt).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *activityLogRepository) ListByPostID(ctx context.Context, postID int64) ([]*models.ActivityLog, error) {
	query := `
		SELECT id, user_id, post_id, schedule_id, account_id, action, outcome, error_message, created_at
		FROM activity_logs
		WHERE post_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var logs []*models.ActivityLog
	for rows.Next() {
		var (
			al         models.ActivityLog
			scheduleID sql.NullInt64
			accountID  sql.NullInt64
		)
		err := rows.Scan(&al.ID, &al.UserID, &al.PostID, &scheduleID, &accountID, &al.Action, &al.Outcome, &al.ErrorMessage, &al.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		al.ScheduleID = scheduleID.Int64
		al.AccountID = accountID.Int64
		logs = append(logs, &al)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return logs, nil
}

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}
