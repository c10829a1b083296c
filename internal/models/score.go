package models

import (
	"time"

	"gorm.io/datatypes"
)

// ScoreDetails is the input snapshot a score was computed from.
type ScoreDetails struct {
	Platform string        `json:"platform"`
	Metrics  Metrics       `json:"metrics"`
	Weights  MetricWeights `json:"weights"`
}

// Score mirrors Post.Score and keeps the inputs used to compute it.
type Score struct {
	ID           uint                             `gorm:"primaryKey" json:"id"`
	PostID       uint                             `gorm:"not null;uniqueIndex" json:"post_id"`
	UserID       uint                             `gorm:"not null;index" json:"user_id"`
	CampaignID   uint                             `gorm:"not null;index" json:"campaign_id"`
	ScoreValue   float64                          `gorm:"type:decimal(16,2);not null" json:"score_value"`
	ScoreDetails datatypes.JSONType[ScoreDetails] `json:"score_details"`
	CreatedAt    time.Time                        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time                        `gorm:"autoUpdateTime" json:"updated_at"`

	Post Post `gorm:"foreignKey:PostID" json:"-"`
}
