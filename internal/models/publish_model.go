package models

type MediaKind string

const (
	MediaKindImage   MediaKind = "image"
	MediaKindVideo   MediaKind = "video"
	MediaKindUnknown MediaKind = "unknown"
)

type MediaItem struct {
	URL  string    `json:"url"`
	Kind MediaKind `json:"kind"`
}

// PublishData is the normalized payload every platform adapter accepts.
type PublishData struct {
	Content  string      `json:"content"`
	Title    string      `json:"title,omitempty"`
	Media    []MediaItem `json:"media"`
	Metadata Metadata    `json:"metadata"`
}

func (d PublishData) MediaURLs() []string {
	urls := make([]string, 0, len(d.Media))
	for _, m := range d.Media {
		urls = append(urls, m.URL)
	}
	return urls
}

func (d PublishData) HasVideo() bool {
	for _, m := range d.Media {
		if m.Kind == MediaKindVideo {
			return true
		}
	}
	return false
}

type PublishResult struct {
	Success        bool     `json:"success"`
	ExternalPostID string   `json:"external_post_id,omitempty"`
	Error          string   `json:"error,omitempty"`
	Metadata       Metadata `json:"metadata"`
}

func PublishFailure(msg string, err error) PublishResult {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	return PublishResult{Success: false, Error: msg}
}

// ValidationResult is consumed once per schedule attempt. Post, Accounts and
// Media are only populated when Valid is true.
type ValidationResult struct {
	Valid    bool             `json:"valid"`
	Errors   []string         `json:"errors"`
	Warnings []string         `json:"warnings"`
	Post     *Post            `json:"post,omitempty"`
	Accounts []*SocialAccount `json:"accounts,omitempty"`
	Media    []MediaItem      `json:"media,omitempty"`
}

func (v ValidationResult) Account(id int64) *SocialAccount {
	for _, acc := range v.Accounts {
		if acc.ID == id {
			return acc
		}
	}
	return nil
}

const (
	OutcomePublished = "published"
	OutcomeFailed    = "failed"
	OutcomeRetry     = "retry"
	OutcomeSkipped   = "skipped"
)

type JobDetail struct {
	ScheduleID int64  `json:"schedule_id"`
	PostID     int64  `json:"post_id"`
	Outcome    string `json:"outcome"`
	Message    string `json:"message"`
}

type RunResult struct {
	RunID      string      `json:"run_id"`
	Processed  int         `json:"processed"`
	Successful int         `json:"successful"`
	Failed     int         `json:"failed"`
	Skipped    int         `json:"skipped"`
	Details    []JobDetail `json:"details"`
}
