package models

import (
	"time"
)

const PlatformTikTok = "tiktok"

type SocialAccount struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	UserID            uint       `gorm:"not null;uniqueIndex:idx_social_accounts_identity" json:"user_id"`
	Platform          string     `gorm:"size:50;not null;uniqueIndex:idx_social_accounts_identity" json:"platform"`
	PlatformAccountID string     `gorm:"size:255;not null;uniqueIndex:idx_social_accounts_identity" json:"platform_account_id"`
	Username          string     `gorm:"size:255" json:"username"`
	AccessToken       string     `gorm:"type:text;not null" json:"-"` // ciphertext
	TokenExpiresAt    *time.Time `json:"token_expires_at"`
	BusinessAccountID string     `gorm:"size:255" json:"business_account_id,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}
