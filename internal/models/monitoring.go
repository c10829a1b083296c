package models

import (
	"time"

	"gorm.io/datatypes"
)

type SyncRunStatus string

const (
	SyncRunStatusRunning   SyncRunStatus = "running"
	SyncRunStatusSucceeded SyncRunStatus = "succeeded"
	SyncRunStatusFailed    SyncRunStatus = "failed"
)

// SyncRun records one orchestrator invocation and its counters.
type SyncRun struct {
	ID                    uint          `gorm:"primaryKey" json:"id"`
	RunID                 string        `gorm:"size:36;uniqueIndex;not null" json:"run_id"`
	Trigger               string        `gorm:"size:20;not null" json:"trigger"` // scheduler, api, cli
	Status                SyncRunStatus `gorm:"size:20;not null;index" json:"status"`
	StartedAt             time.Time     `gorm:"not null;index" json:"started_at"`
	FinishedAt            *time.Time    `json:"finished_at"`
	ParticipantsProcessed int           `gorm:"default:0" json:"participants_processed"`
	PostsSaved            int           `gorm:"default:0" json:"posts_saved"`
	FetchSkipped          int           `gorm:"default:0" json:"fetch_skipped"`
	CampaignsScored       int           `gorm:"default:0" json:"campaigns_scored"`
	PostsScored           int           `gorm:"default:0" json:"posts_scored"`
	ScoreFailures         int           `gorm:"default:0" json:"score_failures"`
	Error                 string        `gorm:"type:text" json:"error,omitempty"`
	StackTrace            string        `gorm:"type:text" json:"stack_trace,omitempty"`
	CreatedAt             time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

// ErrorLog 错误日志表
type ErrorLog struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Level      string         `gorm:"size:20;not null;index" json:"level"`   // ERROR, WARN, INFO
	Source     string         `gorm:"size:100;not null;index" json:"source"` // fetcher, scoring, sync
	Platform   string         `gorm:"size:50;index" json:"platform"`
	RunID      string         `gorm:"size:36;index" json:"run_id"`
	CampaignID *uint          `gorm:"index" json:"campaign_id"`
	UserID     *uint          `gorm:"index" json:"user_id"`
	PostID     *uint          `gorm:"index" json:"post_id"`
	Title      string         `gorm:"size:500;not null" json:"title"`
	Message    string         `gorm:"type:text;not null" json:"message"`
	StackTrace string         `gorm:"type:text" json:"stack_trace"`
	Context    datatypes.JSON `json:"context"`
	Resolved   bool           `gorm:"index" json:"resolved"`
	ResolvedAt *time.Time     `json:"resolved_at"`
	CreatedAt  time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// All lists every model for migrations.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Campaign{},
		&Participant{},
		&SocialAccount{},
		&Post{},
		&Score{},
		&SyncRun{},
		&ErrorLog{},
	}
}
