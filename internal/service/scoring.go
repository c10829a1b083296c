package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime/debug"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ifuryst/amplify/internal/models"
	"github.com/ifuryst/amplify/internal/observability"
	"github.com/ifuryst/amplify/pkg/util"
)

var ErrCampaignNotFound = errors.New("campaign not found")

// DefaultWeights apply to any metric a campaign does not weight for the platform.
var DefaultWeights = models.MetricWeights{
	models.MetricViews:    1,
	models.MetricLikes:    2,
	models.MetricComments: 5,
	models.MetricShares:   8,
}

// scoredMetrics is the fixed order metrics are summed in.
var scoredMetrics = []string{
	models.MetricViews,
	models.MetricLikes,
	models.MetricComments,
	models.MetricShares,
}

// CacheInvalidator drops cached views of a campaign after its scores change.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, campaignID uint) error
}

type RecalculateResult struct {
	CampaignID uint `json:"campaign_id"`
	Processed  int  `json:"processed"`
	Failed     int  `json:"failed"`
}

type ScoringService struct {
	db          *gorm.DB
	monitoring  *MonitoringService
	invalidator CacheInvalidator
	logger      *zap.Logger
}

func NewScoringService(db *gorm.DB, monitoring *MonitoringService, invalidator CacheInvalidator, logger *zap.Logger) *ScoringService {
	return &ScoringService{
		db:          db,
		monitoring:  monitoring,
		invalidator: invalidator,
		logger:      logger,
	}
}

// CalculateScore returns the weighted sum of the engagement metrics and the weights
// that produced it. The result is not clamped.
func CalculateScore(metrics models.Metrics, rules models.ScoringRules, platform string) (float64, models.MetricWeights) {
	configured := rules.WeightsFor(platform)

	weights := make(models.MetricWeights, len(scoredMetrics))
	var score float64
	for _, name := range scoredMetrics {
		w, ok := configured[name]
		if !ok {
			w = DefaultWeights[name]
		}
		weights[name] = w
		score += float64(metrics.Get(name)) * w
	}

	return math.Round(score*100) / 100, weights
}

// ComputeScore scores one post against its campaign and stores the result on the post
// and in its Score row.
func (s *ScoringService) ComputeScore(ctx context.Context, post *models.Post) (*models.Score, error) {
	campaign, err := s.loadCampaign(ctx, post.CampaignID)
	if err != nil {
		if errors.Is(err, ErrCampaignNotFound) {
			s.logger.Error("Campaign not found for post",
				zap.Uint("post_id", post.ID),
				zap.Uint("campaign_id", post.CampaignID))
		}
		return nil, err
	}

	return s.scorePost(ctx, campaign, post)
}

// RecalculateForCampaign rescores every valid post of the campaign. A post that fails
// or panics is counted and skipped.
func (s *ScoringService) RecalculateForCampaign(ctx context.Context, campaignID uint) (*RecalculateResult, error) {
	campaign, err := s.loadCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	var posts []models.Post
	if err := s.db.WithContext(ctx).
		Where("campaign_id = ? AND is_valid_for_campaign = ?", campaignID, true).
		Order("id").
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to load posts for campaign %d: %w", campaignID, err)
	}

	result := &RecalculateResult{CampaignID: campaignID}
	for i := range posts {
		if err := s.safeScorePost(ctx, campaign, &posts[i]); err != nil {
			result.Failed++
			observability.PostsScoredTotal.WithLabelValues("failed").Inc()
			s.logger.Error("Failed to score post",
				zap.Uint("post_id", posts[i].ID),
				zap.Uint("campaign_id", campaignID),
				zap.Error(err))
			s.monitoring.RecordError(ctx, LevelError, "scoring", "Post scoring failed", err.Error(),
				WithCampaign(campaignID), WithPost(posts[i].ID), WithRunID(runIDFrom(ctx)))
			continue
		}
		result.Processed++
		observability.PostsScoredTotal.WithLabelValues("ok").Inc()
	}

	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, campaignID); err != nil {
			s.logger.Warn("Failed to invalidate campaign cache", zap.Uint("campaign_id", campaignID), zap.Error(err))
		}
	}

	s.logger.Info("Campaign scores recalculated",
		zap.Uint("campaign_id", campaignID),
		zap.Int("processed", result.Processed),
		zap.Int("failed", result.Failed))

	return result, nil
}

func (s *ScoringService) safeScorePost(ctx context.Context, campaign *models.Campaign, post *models.Post) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while scoring post %d: %v\n%s", post.ID, r, util.Truncate(string(debug.Stack()), 2000))
		}
	}()

	_, err = s.scorePost(ctx, campaign, post)
	return err
}

func (s *ScoringService) scorePost(ctx context.Context, campaign *models.Campaign, post *models.Post) (*models.Score, error) {
	value, weights := CalculateScore(post.Metrics, campaign.ScoringRules.Data(), post.Platform)

	score := &models.Score{
		PostID:     post.ID,
		UserID:     post.UserID,
		CampaignID: post.CampaignID,
		ScoreValue: value,
		ScoreDetails: datatypes.NewJSONType(models.ScoreDetails{
			Platform: post.Platform,
			Metrics:  post.Metrics,
			Weights:  weights,
		}),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).
			Where("id = ?", post.ID).
			Update("score", value).Error; err != nil {
			return fmt.Errorf("failed to update post score: %w", err)
		}

		if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "post_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"user_id",
				"campaign_id",
				"score_value",
				"score_details",
				"updated_at",
			}),
		}).Create(score).Error; err != nil {
			return fmt.Errorf("failed to save score: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	post.Score = &value
	return score, nil
}

func (s *ScoringService) loadCampaign(ctx context.Context, campaignID uint) (*models.Campaign, error) {
	var campaign models.Campaign
	err := s.db.WithContext(ctx).First(&campaign, campaignID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrCampaignNotFound, campaignID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign %d: %w", campaignID, err)
	}
	return &campaign, nil
}
