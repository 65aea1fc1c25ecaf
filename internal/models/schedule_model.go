package models

import "time"

// PostSchedule is one delivery unit: a post that must reach one account by
// ScheduledAt. Rows are never deleted, only transitioned.
type PostSchedule struct {
	ID             int64          `db:"id" json:"id"`
	PostID         int64          `db:"post_id" json:"post_id"`
	AccountID      int64          `db:"account_id" json:"account_id"`
	ScheduledAt    time.Time      `db:"scheduled_at" json:"scheduled_at"`
	Status         ScheduleStatus `db:"status" json:"status"`
	RetryCount     int            `db:"retry_count" json:"retry_count"`
	ErrorMessage   string         `db:"error_message" json:"error_message,omitempty"`
	ExternalPostID string         `db:"external_post_id" json:"external_post_id,omitempty"`
	PublishedAt    *time.Time     `db:"published_at" json:"published_at,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

type ScheduleStatus string

const (
	ScheduleStatusPending    ScheduleStatus = "pending"
	ScheduleStatusPublishing ScheduleStatus = "publishing"
	ScheduleStatusPublished  ScheduleStatus = "published"
	ScheduleStatusFailed     ScheduleStatus = "failed"
)

// Terminal reports whether no transition can leave s.
func (s ScheduleStatus) Terminal() bool {
	return s == ScheduleStatusPublished || s == ScheduleStatusFailed
}
