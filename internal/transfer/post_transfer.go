package transfer

import "github.com/maheshrc27/postflow/internal/models"

// PostCreation is the body of a draft post. AssetIDs keep their display order.
type PostCreation struct {
	Content  string          `json:"content"`
	Title    string          `json:"title"`
	Metadata models.Metadata `json:"metadata"`
	AssetIDs []int64         `json:"asset_ids"`
}

type ScheduleRequest struct {
	PostID        int64   `json:"post_id"`
	AccountIDs    []int64 `json:"account_ids"`
	ScheduledTime string  `json:"scheduled_time"`
}

type RunRequest struct {
	Limit int `json:"limit"`
}
