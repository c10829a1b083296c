package models

import (
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ifuryst/amplify/pkg/util"
)

type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusPending   CampaignStatus = "pending"
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusCompleted CampaignStatus = "completed"
	CampaignStatusCancelled CampaignStatus = "cancelled"
)

var ErrInvalidCampaignDates = errors.New("campaign end date is before start date")

// Briefing is the structured brief handed to participants.
type Briefing struct {
	Goals        []string `json:"goals,omitempty"`
	Hashtags     []string `json:"hashtags,omitempty"`
	Mentions     []string `json:"mentions,omitempty"`
	ContentTypes []string `json:"content_types,omitempty"`
}

// MetricWeights maps a metric name (views, likes, ...) to its weight.
type MetricWeights map[string]float64

// ScoringRules holds per-platform metric weights. Bonus values are stored for
// reporting and are not part of the weighted sum.
type ScoringRules struct {
	Platforms map[string]MetricWeights `json:"platforms,omitempty"`
	Bonus     map[string]float64       `json:"bonus,omitempty"`
}

// WeightsFor returns the configured weights for a platform, or nil.
func (r ScoringRules) WeightsFor(platform string) MetricWeights {
	if r.Platforms == nil {
		return nil
	}
	return r.Platforms[platform]
}

type Campaign struct {
	ID           uint                             `gorm:"primaryKey" json:"id"`
	Name         string                           `gorm:"not null;size:255" json:"name"`
	Description  string                           `gorm:"type:text" json:"description"`
	BrandID      uint                             `gorm:"not null;index" json:"brand_id"`
	StartDate    time.Time                        `gorm:"not null;index" json:"start_date"`
	EndDate      time.Time                        `gorm:"not null;index" json:"end_date"`
	Budget       float64                          `gorm:"type:decimal(14,2);default:0" json:"budget"`
	Briefing     datatypes.JSONType[Briefing]     `json:"briefing"`
	ScoringRules datatypes.JSONType[ScoringRules] `json:"scoring_rules"`
	Status       CampaignStatus                   `gorm:"size:20;not null;default:'draft';index" json:"status"`
	CreatedAt    time.Time                        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time                        `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt                   `gorm:"index" json:"-"`

	Brand User `gorm:"foreignKey:BrandID" json:"-"`
}

func (c *Campaign) BeforeSave(*gorm.DB) error {
	if c.EndDate.Before(c.StartDate) {
		return ErrInvalidCampaignDates
	}
	return nil
}

// IsSyncable reports whether posts for the campaign should be ingested at now.
func (c *Campaign) IsSyncable(now time.Time) bool {
	if c.Status != CampaignStatusActive {
		return false
	}
	return !now.Before(c.StartDate) && !now.After(c.EndDate)
}

// Hashtags returns the briefing hashtags normalized for matching.
func (c *Campaign) Hashtags() []string {
	return util.NormalizeHashtags(c.Briefing.Data().Hashtags)
}
