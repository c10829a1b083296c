package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ifuryst/amplify/internal/models"
)

func TestSeederCreatesScoredDemoData(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := NewSeeder(env.db, env.cipher, env.scoring, zap.NewNop()).Seed(ctx, SeedOptions{
		Influencers: 4,
		Posts:       2,
		RandomSeed:  42,
	})
	require.NoError(t, err)

	// Statuses cycle approved, approved, pending, withdrawn.
	assert.Equal(t, 6, result.Users)
	assert.Equal(t, 4, result.Posts)
	assert.Equal(t, 4, result.PostsScored)

	var campaign models.Campaign
	require.NoError(t, env.db.First(&campaign, result.CampaignID).Error)
	assert.NotEmpty(t, campaign.Hashtags())

	var posts []models.Post
	require.NoError(t, env.db.Find(&posts).Error)
	for _, p := range posts {
		require.NotNil(t, p.Score)
		expected, _ := CalculateScore(p.Metrics, campaign.ScoringRules.Data(), p.Platform)
		assert.Equal(t, expected, *p.Score)
	}

	var accounts []models.SocialAccount
	require.NoError(t, env.db.Find(&accounts).Error)
	require.Len(t, accounts, 4)
	token, err := env.cipher.Decrypt(accounts[0].AccessToken)
	require.NoError(t, err)
	assert.Contains(t, token, "act.")
}

func TestSeederUsesGivenHashtags(t *testing.T) {
	env := newTestEnv(t)

	result, err := NewSeeder(env.db, env.cipher, env.scoring, zap.NewNop()).Seed(context.Background(), SeedOptions{
		Influencers: 2,
		Posts:       1,
		Hashtags:    []string{"#Summer", "sale"},
		RandomSeed:  7,
	})
	require.NoError(t, err)

	var campaign models.Campaign
	require.NoError(t, env.db.First(&campaign, result.CampaignID).Error)
	assert.Equal(t, []string{"summer", "sale"}, campaign.Hashtags())

	var posts []models.Post
	require.NoError(t, env.db.Where("campaign_id = ?", result.CampaignID).Find(&posts).Error)
	require.Len(t, posts, 2)
	for _, p := range posts {
		assert.Contains(t, p.Caption, "#Summer")
	}
}
