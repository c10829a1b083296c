package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ifuryst/amplify/internal/models"
	"github.com/ifuryst/amplify/internal/testutil"
)

var sampleMetrics = models.Metrics{
	models.MetricViews:    1000,
	models.MetricLikes:    50,
	models.MetricComments: 10,
	models.MetricShares:   2,
}

func TestCalculateScore(t *testing.T) {
	rules := models.ScoringRules{
		Platforms: map[string]models.MetricWeights{
			models.PlatformTikTok: {"views": 1, "likes": 2, "comments": 5, "shares": 8},
		},
	}

	score, weights := CalculateScore(sampleMetrics, rules, models.PlatformTikTok)
	assert.Equal(t, 1166.0, score)
	assert.Equal(t, models.MetricWeights{"views": 1, "likes": 2, "comments": 5, "shares": 8}, weights)
}

func TestCalculateScoreFallsBackToDefaultWeights(t *testing.T) {
	score, _ := CalculateScore(sampleMetrics, models.ScoringRules{}, models.PlatformTikTok)
	assert.Equal(t, 1166.0, score)

	// Other platforms' weights do not apply.
	rules := models.ScoringRules{Platforms: map[string]models.MetricWeights{"instagram": {"views": 100}}}
	score, _ = CalculateScore(sampleMetrics, rules, models.PlatformTikTok)
	assert.Equal(t, 1166.0, score)

	// Per-metric fallback.
	rules = models.ScoringRules{Platforms: map[string]models.MetricWeights{models.PlatformTikTok: {"views": 0.5}}}
	score, weights := CalculateScore(sampleMetrics, rules, models.PlatformTikTok)
	assert.Equal(t, 666.0, score)
	assert.Equal(t, 2.0, weights[models.MetricLikes])
}

func TestCalculateScoreEdgeCases(t *testing.T) {
	score, _ := CalculateScore(nil, models.ScoringRules{}, models.PlatformTikTok)
	assert.Zero(t, score)

	score, _ = CalculateScore(models.Metrics{models.MetricLikes: 3}, models.ScoringRules{}, models.PlatformTikTok)
	assert.Equal(t, 6.0, score)

	rules := models.ScoringRules{Platforms: map[string]models.MetricWeights{
		models.PlatformTikTok: {"views": -1, "likes": 0, "comments": 0, "shares": 0},
	}}
	score, _ = CalculateScore(sampleMetrics, rules, models.PlatformTikTok)
	assert.Equal(t, -1000.0, score, "negative weights are not clamped")
}

func TestComputeScoreKeepsPostAndScoreConsistent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	brand := testutil.CreateUser(t, env.db, models.RoleBrand)
	influencer := testutil.CreateUser(t, env.db, models.RoleInfluencer)
	campaign := testutil.CreateCampaign(t, env.db, brand)
	post := testutil.CreatePost(t, env.db, campaign, influencer, "v1", sampleMetrics)

	score, err := env.scoring.ComputeScore(ctx, post)
	require.NoError(t, err)
	assert.Equal(t, 1166.0, score.ScoreValue)

	// Scoring again updates the single Score row.
	require.NoError(t, env.db.Model(post).Update("metrics", models.Metrics{models.MetricViews: 10}).Error)
	post.Metrics = models.Metrics{models.MetricViews: 10}
	_, err = env.scoring.ComputeScore(ctx, post)
	require.NoError(t, err)

	var scores []models.Score
	require.NoError(t, env.db.Find(&scores).Error)
	require.Len(t, scores, 1)

	var stored models.Post
	require.NoError(t, env.db.First(&stored, post.ID).Error)
	require.NotNil(t, stored.Score)
	assert.Equal(t, 10.0, *stored.Score)
	assert.Equal(t, *stored.Score, scores[0].ScoreValue)
	assert.Equal(t, campaign.ID, scores[0].CampaignID)
	assert.EqualValues(t, 10, scores[0].ScoreDetails.Data().Metrics.Get(models.MetricViews))
	assert.Equal(t, models.PlatformTikTok, scores[0].ScoreDetails.Data().Platform)
}

func TestComputeScoreCampaignNotFound(t *testing.T) {
	env := newTestEnv(t)

	post := &models.Post{ID: 99, CampaignID: 12345, Platform: models.PlatformTikTok}
	_, err := env.scoring.ComputeScore(context.Background(), post)
	assert.ErrorIs(t, err, ErrCampaignNotFound)
}

// failScoreWrites makes inserting the Score of postID fail.
func failScoreWrites(t *testing.T, db *gorm.DB, postID uint) {
	t.Helper()
	err := db.Callback().Create().Before("gorm:create").Register("test:fail_score", func(tx *gorm.DB) {
		if score, ok := tx.Statement.Dest.(*models.Score); ok && score.PostID == postID {
			_ = tx.AddError(errors.New("score write failed"))
		}
	})
	require.NoError(t, err)
}

func TestComputeScoreIsAtomic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	brand := testutil.CreateUser(t, env.db, models.RoleBrand)
	influencer := testutil.CreateUser(t, env.db, models.RoleInfluencer)
	campaign := testutil.CreateCampaign(t, env.db, brand)
	post := testutil.CreatePost(t, env.db, campaign, influencer, "v1", sampleMetrics)

	failScoreWrites(t, env.db, post.ID)

	_, err := env.scoring.ComputeScore(ctx, post)
	require.Error(t, err)

	var stored models.Post
	require.NoError(t, env.db.First(&stored, post.ID).Error)
	assert.Nil(t, stored.Score, "post score rolled back with the failed Score write")

	var count int64
	env.db.Model(&models.Score{}).Count(&count)
	assert.Zero(t, count)
}

func TestRecalculateForCampaignIsolatesFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	brand := testutil.CreateUser(t, env.db, models.RoleBrand)
	influencer := testutil.CreateUser(t, env.db, models.RoleInfluencer)
	campaign := testutil.CreateCampaign(t, env.db, brand)

	testutil.CreatePost(t, env.db, campaign, influencer, "v1", sampleMetrics)
	bad := testutil.CreatePost(t, env.db, campaign, influencer, "v2", sampleMetrics)
	testutil.CreatePost(t, env.db, campaign, influencer, "v3", sampleMetrics)
	invalid := testutil.CreatePost(t, env.db, campaign, influencer, "v4", sampleMetrics)
	require.NoError(t, env.db.Model(invalid).Update("is_valid_for_campaign", false).Error)

	failScoreWrites(t, env.db, bad.ID)

	result, err := env.scoring.RecalculateForCampaign(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Failed)

	var posts []models.Post
	require.NoError(t, env.db.Order("id").Find(&posts).Error)
	require.Len(t, posts, 4)
	require.NotNil(t, posts[0].Score)
	assert.Equal(t, 1166.0, *posts[0].Score)
	assert.Nil(t, posts[1].Score)
	require.NotNil(t, posts[2].Score)
	assert.Nil(t, posts[3].Score, "invalid posts are not scored")

	var logs []models.ErrorLog
	require.NoError(t, env.db.Where("source = ?", "scoring").Find(&logs).Error)
	require.Len(t, logs, 1)
	require.NotNil(t, logs[0].PostID)
	assert.Equal(t, bad.ID, *logs[0].PostID)
}

func TestRecalculateForCampaignRecoversFromPanics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	brand := testutil.CreateUser(t, env.db, models.RoleBrand)
	influencer := testutil.CreateUser(t, env.db, models.RoleInfluencer)
	campaign := testutil.CreateCampaign(t, env.db, brand)
	testutil.CreatePost(t, env.db, campaign, influencer, "v1", sampleMetrics)
	bad := testutil.CreatePost(t, env.db, campaign, influencer, "v2", sampleMetrics)
	testutil.CreatePost(t, env.db, campaign, influencer, "v3", sampleMetrics)

	err := env.db.Callback().Create().Before("gorm:create").Register("test:panic_score", func(tx *gorm.DB) {
		if score, ok := tx.Statement.Dest.(*models.Score); ok && score.PostID == bad.ID {
			panic("unexpected metrics shape")
		}
	})
	require.NoError(t, err)

	invalidator := &recordingInvalidator{}
	env.scoring.invalidator = invalidator

	result, err := env.scoring.RecalculateForCampaign(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, []uint{campaign.ID}, invalidator.invalidated)

	var stored models.Post
	require.NoError(t, env.db.First(&stored, bad.ID).Error)
	assert.Nil(t, stored.Score)
}

type recordingInvalidator struct {
	invalidated []uint
}

func (p *recordingInvalidator) Invalidate(_ context.Context, campaignID uint) error {
	p.invalidated = append(p.invalidated, campaignID)
	return nil
}

func TestRecalculateForCampaignNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.scoring.RecalculateForCampaign(context.Background(), 404)
	assert.ErrorIs(t, err, ErrCampaignNotFound)
}
