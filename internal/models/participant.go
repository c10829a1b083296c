package models

import (
	"time"
)

type ParticipantStatus string

const (
	ParticipantStatusPending   ParticipantStatus = "pending"
	ParticipantStatusApproved  ParticipantStatus = "approved"
	ParticipantStatusRejected  ParticipantStatus = "rejected"
	ParticipantStatusCompleted ParticipantStatus = "completed"
	ParticipantStatusWithdrawn ParticipantStatus = "withdrawn"
)

// Participant links an influencer to a campaign.
type Participant struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	CampaignID  uint              `gorm:"not null;uniqueIndex:idx_participants_campaign_user" json:"campaign_id"`
	UserID      uint              `gorm:"not null;uniqueIndex:idx_participants_campaign_user;index" json:"user_id"`
	Status      ParticipantStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	AppliedAt   *time.Time        `json:"applied_at"`
	ApprovedAt  *time.Time        `json:"approved_at"`
	RejectedAt  *time.Time        `json:"rejected_at"`
	WithdrawnAt *time.Time        `json:"withdrawn_at"`
	CreatedAt   time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	Campaign Campaign `gorm:"foreignKey:CampaignID" json:"-"`
	User     User     `gorm:"foreignKey:UserID" json:"-"`
}
