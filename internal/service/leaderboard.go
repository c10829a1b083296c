package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ifuryst/amplify/internal/models"
	"github.com/ifuryst/amplify/pkg/cache"
)

const defaultLeaderboardTTL = 10 * time.Minute

type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	UserID     uint    `json:"user_id"`
	UserName   string  `json:"user_name"`
	TotalScore float64 `json:"total_score"`
	PostCount  int64   `json:"post_count"`
}

type Leaderboard struct {
	CampaignID  uint               `json:"campaign_id"`
	Entries     []LeaderboardEntry `json:"entries"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// LeaderboardService ranks campaign participants by their summed post scores.
// Results are cached when a redis client is configured.
type LeaderboardService struct {
	db     *gorm.DB
	cache  *cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewLeaderboardService(db *gorm.DB, c *cache.Cache, ttl time.Duration, logger *zap.Logger) *LeaderboardService {
	if ttl <= 0 {
		ttl = defaultLeaderboardTTL
	}
	return &LeaderboardService{
		db:     db,
		cache:  c,
		ttl:    ttl,
		logger: logger,
	}
}

func LeaderboardCacheKey(campaignID uint) string {
	return fmt.Sprintf("leaderboard:campaign:%d", campaignID)
}

// Get returns the top limit entries, or all of them when limit <= 0.
func (s *LeaderboardService) Get(ctx context.Context, campaignID uint, limit int) (*Leaderboard, error) {
	var board Leaderboard
	err := s.cache.CacheAside(ctx, LeaderboardCacheKey(campaignID), &board, s.ttl, func() error {
		computed, err := s.compute(ctx, campaignID)
		if err != nil {
			return err
		}
		board = *computed
		return nil
	})
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(board.Entries) > limit {
		board.Entries = board.Entries[:limit]
	}
	return &board, nil
}

// Invalidate drops the cached leaderboard of a campaign.
func (s *LeaderboardService) Invalidate(ctx context.Context, campaignID uint) error {
	if s == nil {
		return nil
	}
	return s.cache.Delete(ctx, LeaderboardCacheKey(campaignID))
}

func (s *LeaderboardService) compute(ctx context.Context, campaignID uint) (*Leaderboard, error) {
	var campaign models.Campaign
	if err := s.db.WithContext(ctx).Select("id").First(&campaign, campaignID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrCampaignNotFound, campaignID)
		}
		return nil, fmt.Errorf("failed to load campaign %d: %w", campaignID, err)
	}

	var rows []struct {
		UserID     uint
		UserName   string
		TotalScore float64
		PostCount  int64
	}
	err := s.db.WithContext(ctx).
		Table("posts").
		Select("posts.user_id, users.name AS user_name, SUM(posts.score) AS total_score, COUNT(posts.id) AS post_count").
		Joins("JOIN users ON users.id = posts.user_id").
		Where("posts.campaign_id = ? AND posts.is_valid_for_campaign = ? AND posts.score IS NOT NULL", campaignID, true).
		Group("posts.user_id, users.name").
		Order("total_score DESC, posts.user_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate leaderboard for campaign %d: %w", campaignID, err)
	}

	board := &Leaderboard{
		CampaignID:  campaignID,
		Entries:     make([]LeaderboardEntry, 0, len(rows)),
		GeneratedAt: time.Now().UTC(),
	}
	for i, row := range rows {
		board.Entries = append(board.Entries, LeaderboardEntry{
			Rank:       i + 1,
			UserID:     row.UserID,
			UserName:   row.UserName,
			TotalScore: row.TotalScore,
			PostCount:  row.PostCount,
		})
	}

	s.logger.Debug("Leaderboard computed", zap.Uint("campaign_id", campaignID), zap.Int("entries", len(board.Entries)))
	return board, nil
}
