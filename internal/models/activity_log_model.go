package models

import "time"

const (
	ActivityActionValidate = "validate"
	ActivityActionPublish  = "publish"
	ActivityActionCancel   = "cancel"
)

const (
	ActivityOutcomeSuccess = "success"
	ActivityOutcomeFailure = "failure"
)

type ActivityLog struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	PostID       int64     `db:"post_id" json:"post_id"`
	ScheduleID   int64     `db:"schedule_id" json:"schedule_id"`
	AccountID    int64     `db:"account_id" json:"account_id"`
	Action       string    `db:"action" json:"action"`
	Outcome      string    `db:"outcome" json:"outcome"`
	ErrorMessage string    `db:"error_message" json:"error_message"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
