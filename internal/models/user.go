package models

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleBrand      Role = "brand"
	RoleInfluencer Role = "influencer"
)

// Capability is an action guarded by role.
type Capability string

const (
	CapViewLeaderboard   Capability = "view_leaderboard"
	CapViewReports       Capability = "view_reports"
	CapRecalculateScores Capability = "recalculate_scores"
	CapTriggerSync       Capability = "trigger_sync"
	CapLinkSocialAccount Capability = "link_social_account"
)

var roleCapabilities = map[Role]map[Capability]bool{
	RoleAdmin: {
		CapViewLeaderboard:   true,
		CapViewReports:       true,
		CapRecalculateScores: true,
		CapTriggerSync:       true,
		CapLinkSocialAccount: true,
	},
	RoleBrand: {
		CapViewLeaderboard: true,
		CapViewReports:     true,
	},
	RoleInfluencer: {
		CapViewLeaderboard:   true,
		CapLinkSocialAccount: true,
	},
}

// Can is the single place where roles resolve to capabilities.
func (r Role) Can(c Capability) bool {
	return roleCapabilities[r][c]
}

func (r Role) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null;size:255" json:"name"`
	Email     string         `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Role      Role           `gorm:"size:20;not null;index" json:"role"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
