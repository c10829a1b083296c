package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

const (
	MetricViews    = "views"
	MetricLikes    = "likes"
	MetricComments = "comments"
	MetricShares   = "shares"
)

// Metrics is a set of named engagement counters stored as a JSON object.
type Metrics map[string]int64

// Get returns the counter or 0 when it is absent.
func (m Metrics) Get(name string) int64 {
	if m == nil {
		return 0
	}
	return m[name]
}

// Scan implements the sql.Scanner interface
func (m *Metrics) Scan(value interface{}) error {
	if value == nil {
		*m = Metrics{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Metrics", value)
	}

	if len(raw) == 0 {
		*m = Metrics{}
		return nil
	}

	result := Metrics{}
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("failed to decode metrics: %w", err)
	}
	*m = result
	return nil
}

// Value implements the driver.Valuer interface
func (m Metrics) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]int64(m))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (Metrics) GormDataType() string {
	return "json"
}

func (Metrics) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "JSONB"
	}
	return "JSON"
}

type Post struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	CampaignID         uint           `gorm:"not null;uniqueIndex:idx_posts_identity;uniqueIndex:idx_posts_campaign_url;index" json:"campaign_id"`
	UserID             uint           `gorm:"not null;uniqueIndex:idx_posts_identity;index" json:"user_id"`
	SocialAccountID    *uint          `gorm:"index" json:"social_account_id"`
	Platform           string         `gorm:"size:50;not null" json:"platform"`
	PlatformPostID     string         `gorm:"size:255;not null;uniqueIndex:idx_posts_identity" json:"platform_post_id"`
	PostType           string         `gorm:"size:50" json:"post_type"`
	URL                string         `gorm:"size:1024;not null;uniqueIndex:idx_posts_campaign_url" json:"url"`
	MediaURL           string         `gorm:"size:1024" json:"media_url"`
	Caption            string         `gorm:"type:text" json:"caption"`
	RawPayload         datatypes.JSON `json:"raw_payload,omitempty"`
	Metrics            Metrics        `json:"metrics"`
	Score              *float64       `gorm:"type:decimal(16,2)" json:"score"`
	PostedAt           *time.Time     `gorm:"index" json:"posted_at"`
	IsValidForCampaign bool           `gorm:"not null;index" json:"is_valid_for_campaign"`
	ValidationNotes    string         `gorm:"type:text" json:"validation_notes,omitempty"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`

	Campaign      Campaign       `gorm:"foreignKey:CampaignID" json:"-"`
	User          User           `gorm:"foreignKey:UserID" json:"-"`
	SocialAccount *SocialAccount `gorm:"foreignKey:SocialAccountID" json:"-"`
}
