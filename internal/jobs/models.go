package jobs

import "time"

type Status string

const (
	StatusPending     Status = "pending"
	StatusFetching    Status = "fetching"
	StatusCleaning    Status = "cleaning"
	StatusSummarizing Status = "summarizing"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

// Progress is what a polling client sees. Current/Total count chunks
// while the cleaning stage is running; both serialize even at zero so a
// client can tell "0 of 1" from "no counters".
type Progress struct {
	Stage   Status `json:"stage"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Message string `json:"message,omitempty"`
}

type Job struct {
	ID string `gorm:"primaryKey;size:26" json:"id"` // ULID length

	Status   Status   `gorm:"type:varchar(16);index;not null" json:"status"`
	Progress Progress `gorm:"serializer:json;type:text" json:"progress"`

	YoutubeURL string `gorm:"type:text;not null" json:"youtube_url"`
	YoutubeID  string `gorm:"type:varchar(16);index;not null" json:"youtube_id"`

	VideoTitle        string `gorm:"type:varchar(255)" json:"video_title,omitempty"`
	VideoChannel      string `gorm:"type:varchar(255)" json:"video_channel,omitempty"`
	VideoThumbnailURL string `gorm:"type:text" json:"video_thumbnail_url,omitempty"`

	// Filled when failed
	Error *string `gorm:"type:text" json:"error,omitempty"`

	NotificationEmail *string `gorm:"type:varchar(255)" json:"-"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (Job) TableName() string { return "jobs" }

type Transcript struct {
	ID          uint64   `gorm:"primaryKey;autoIncrement" json:"-"`
	JobID       string   `gorm:"size:26;uniqueIndex;not null" json:"job_id"`
	RawText     string   `gorm:"type:text;not null" json:"raw_text"`
	CleanedText *string  `gorm:"type:text" json:"cleaned_text,omitempty"`
	Speakers    []string `gorm:"serializer:json;type:text" json:"speakers,omitempty"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (Transcript) TableName() string { return "transcripts" }

type Summary struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	JobID         string    `gorm:"size:26;uniqueIndex;not null" json:"job_id"`
	Content       string    `gorm:"type:text;not null" json:"content"` // markdown
	PromptVersion string    `gorm:"type:varchar(32);not null" json:"prompt_version"`
	CreatedAt     time.Time `json:"-"`
}

func (Summary) TableName() string { return "summaries" }
