package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ifuryst/amplify/internal/models"
)

func CreateUser(t *testing.T, db *gorm.DB, role models.Role) *models.User {
	t.Helper()

	var count int64
	db.Model(&models.User{}).Count(&count)

	user := &models.User{
		Name:  fmt.Sprintf("%s %d", role, count+1),
		Email: fmt.Sprintf("%s%d@example.com", role, count+1),
		Role:  role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

// CampaignOption customizes a campaign before it is stored.
type CampaignOption func(*models.Campaign)

func WithHashtags(tags ...string) CampaignOption {
	return func(c *models.Campaign) {
		b := c.Briefing.Data()
		b.Hashtags = tags
		c.Briefing = datatypes.NewJSONType(b)
	}
}

func WithRules(rules models.ScoringRules) CampaignOption {
	return func(c *models.Campaign) {
		c.ScoringRules = datatypes.NewJSONType(rules)
	}
}

func WithStatus(status models.CampaignStatus) CampaignOption {
	return func(c *models.Campaign) {
		c.Status = status
	}
}

func WithWindow(start, end time.Time) CampaignOption {
	return func(c *models.Campaign) {
		c.StartDate = start
		c.EndDate = end
	}
}

// CreateCampaign stores an active campaign running from a week ago to a week ahead.
func CreateCampaign(t *testing.T, db *gorm.DB, brand *models.User, opts ...CampaignOption) *models.Campaign {
	t.Helper()

	now := time.Now().UTC()
	campaign := &models.Campaign{
		Name:      "Summer launch",
		BrandID:   brand.ID,
		StartDate: now.Add(-7 * 24 * time.Hour),
		EndDate:   now.Add(7 * 24 * time.Hour),
		Status:    models.CampaignStatusActive,
		Briefing:  datatypes.NewJSONType(models.Briefing{Hashtags: []string{"#sale"}}),
	}
	for _, opt := range opts {
		opt(campaign)
	}

	if err := db.Create(campaign).Error; err != nil {
		t.Fatalf("failed to create campaign: %v", err)
	}
	return campaign
}

func CreateParticipant(t *testing.T, db *gorm.DB, campaign *models.Campaign, user *models.User, status models.ParticipantStatus) *models.Participant {
	t.Helper()

	now := time.Now().UTC()
	participant := &models.Participant{
		CampaignID: campaign.ID,
		UserID:     user.ID,
		Status:     status,
		AppliedAt:  &now,
	}
	if err := db.Create(participant).Error; err != nil {
		t.Fatalf("failed to create participant: %v", err)
	}
	return participant
}

func CreateSocialAccount(t *testing.T, db *gorm.DB, user *models.User, platform, encryptedToken string) *models.SocialAccount {
	t.Helper()

	account := &models.SocialAccount{
		UserID:            user.ID,
		Platform:          platform,
		PlatformAccountID: fmt.Sprintf("%s-%d", platform, user.ID),
		Username:          user.Name,
		AccessToken:       encryptedToken,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create social account: %v", err)
	}
	return account
}

func CreatePost(t *testing.T, db *gorm.DB, campaign *models.Campaign, user *models.User, platformPostID string, metrics models.Metrics) *models.Post {
	t.Helper()

	post := &models.Post{
		CampaignID:         campaign.ID,
		UserID:             user.ID,
		Platform:           models.PlatformTikTok,
		PlatformPostID:     platformPostID,
		PostType:           "video",
		URL:                "https://www.tiktok.com/@user/video/" + platformPostID,
		Metrics:            metrics,
		IsValidForCampaign: true,
	}
	if err := db.Create(post).Error; err != nil {
		t.Fatalf("failed to create post: %v", err)
	}
	return post
}
