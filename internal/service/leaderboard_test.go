package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ifuryst/amplify/internal/models"
	"github.com/ifuryst/amplify/internal/testutil"
	"github.com/ifuryst/amplify/pkg/cache"
)

func seedLeaderboard(t *testing.T, env *testEnv) (*models.Campaign, *models.User, *models.User) {
	t.Helper()
	ctx := context.Background()

	brand := testutil.CreateUser(t, env.db, models.RoleBrand)
	alice := testutil.CreateUser(t, env.db, models.RoleInfluencer)
	bob := testutil.CreateUser(t, env.db, models.RoleInfluencer)
	campaign := testutil.CreateCampaign(t, env.db, brand)

	testutil.CreatePost(t, env.db, campaign, alice, "a1", models.Metrics{models.MetricViews: 100})
	testutil.CreatePost(t, env.db, campaign, alice, "a2", models.Metrics{models.MetricViews: 50})
	testutil.CreatePost(t, env.db, campaign, bob, "b1", models.Metrics{models.MetricViews: 500})
	testutil.CreatePost(t, env.db, campaign, bob, "b2", models.Metrics{models.MetricViews: 10})

	_, err := env.scoring.RecalculateForCampaign(ctx, campaign.ID)
	require.NoError(t, err)

	return campaign, alice, bob
}

func TestLeaderboardRanksBySummedScore(t *testing.T) {
	env := newTestEnv(t)
	campaign, alice, bob := seedLeaderboard(t, env)

	// Posts without a score and invalid posts are left out.
	testutil.CreatePost(t, env.db, campaign, alice, "unscored", models.Metrics{models.MetricViews: 10000})

	board, err := NewLeaderboardService(env.db, cache.New(nil), time.Minute, zap.NewNop()).Get(context.Background(), campaign.ID, 0)
	require.NoError(t, err)
	require.Len(t, board.Entries, 2)

	assert.Equal(t, 1, board.Entries[0].Rank)
	assert.Equal(t, bob.ID, board.Entries[0].UserID)
	assert.Equal(t, 510.0, board.Entries[0].TotalScore)
	assert.EqualValues(t, 2, board.Entries[0].PostCount)

	assert.Equal(t, 2, board.Entries[1].Rank)
	assert.Equal(t, alice.ID, board.Entries[1].UserID)
	assert.Equal(t, alice.Name, board.Entries[1].UserName)
	assert.Equal(t, 150.0, board.Entries[1].TotalScore)
}

func TestLeaderboardCacheAndInvalidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	leaderboard := NewLeaderboardService(env.db, cache.New(client), time.Minute, zap.NewNop())
	env.scoring.invalidator = leaderboard

	campaign, _, bob := seedLeaderboard(t, env)

	board, err := leaderboard.Get(ctx, campaign.ID, 1)
	require.NoError(t, err)
	require.Len(t, board.Entries, 1)
	assert.True(t, mr.Exists(LeaderboardCacheKey(campaign.ID)))

	// A direct write is not visible while the cache is warm.
	require.NoError(t, env.db.Model(&models.Post{}).Where("platform_post_id = ?", "b1").
		Update("metrics", models.Metrics{models.MetricViews: 1}).Error)
	cached, err := leaderboard.Get(ctx, campaign.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 510.0, cached.Entries[0].TotalScore)

	// Recalculation refreshes scores and drops the cached board.
	_, err = env.scoring.RecalculateForCampaign(ctx, campaign.ID)
	require.NoError(t, err)
	assert.False(t, mr.Exists(LeaderboardCacheKey(campaign.ID)))

	fresh, err := leaderboard.Get(ctx, campaign.ID, 0)
	require.NoError(t, err)
	require.Len(t, fresh.Entries, 2)
	assert.Equal(t, 150.0, fresh.Entries[0].TotalScore)
	assert.Equal(t, bob.ID, fresh.Entries[1].UserID)
	assert.Equal(t, 11.0, fresh.Entries[1].TotalScore)
}

func TestLeaderboardCampaignNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := NewLeaderboardService(env.db, cache.New(nil), 0, zap.NewNop()).Get(context.Background(), 999, 10)
	assert.ErrorIs(t, err, ErrCampaignNotFound)
}
