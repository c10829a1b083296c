package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ifuryst/amplify/internal/models"
	"github.com/ifuryst/amplify/internal/service/platform"
	"github.com/ifuryst/amplify/pkg/util"
)

type FetchOutcome string

const (
	FetchOutcomeSaved      FetchOutcome = "saved"
	FetchOutcomeNoAccount  FetchOutcome = "no_account"
	FetchOutcomeTokenError FetchOutcome = "token_error"
	FetchOutcomeNoHashtags FetchOutcome = "no_hashtags"
	FetchOutcomeAPIError   FetchOutcome = "api_error"
	FetchOutcomeNoVideos   FetchOutcome = "no_videos"
)

// FetchResult describes one participant fetch. Matched counts candidates whose
// caption carried a campaign hashtag; Saved those that were upserted.
type FetchResult struct {
	Outcome   FetchOutcome `json:"outcome"`
	Saved     int          `json:"saved"`
	Matched   int          `json:"matched"`
	Discarded int          `json:"discarded"`
	Failed    int          `json:"failed"`
}

type MetricsFetcher struct {
	db         *gorm.DB
	cipher     *TokenCipher
	monitoring *MonitoringService
	logger     *zap.Logger
}

func NewMetricsFetcher(db *gorm.DB, cipher *TokenCipher, monitoring *MonitoringService, logger *zap.Logger) *MetricsFetcher {
	return &MetricsFetcher{
		db:         db,
		cipher:     cipher,
		monitoring: monitoring,
		logger:     logger,
	}
}

// FetchForParticipant pulls the user's recent posts from source and upserts the ones
// that mention any of the campaign hashtags. Only a failed account lookup is returned
// as an error; every other problem is reported through the result outcome.
func (f *MetricsFetcher) FetchForParticipant(ctx context.Context, userID uint, campaign *models.Campaign, source platform.Source) (*FetchResult, error) {
	platformName := source.Platform()
	log := f.logger.With(
		zap.Uint("user_id", userID),
		zap.Uint("campaign_id", campaign.ID),
		zap.String("platform", platformName),
	)

	var account models.SocialAccount
	err := f.db.WithContext(ctx).
		Where("user_id = ? AND platform = ?", userID, platformName).
		Order("id").
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Info("No social account linked")
		return &FetchResult{Outcome: FetchOutcomeNoAccount}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load social account for user %d: %w", userID, err)
	}

	token, err := f.cipher.Decrypt(account.AccessToken)
	if err != nil {
		log.Warn("Failed to decrypt access token", zap.Uint("social_account_id", account.ID), zap.Error(err))
		f.monitoring.RecordError(ctx, LevelWarn, "fetcher", "Access token decryption failed", err.Error(),
			WithPlatform(platformName), WithUser(userID), WithCampaign(campaign.ID), WithRunID(runIDFrom(ctx)))
		return &FetchResult{Outcome: FetchOutcomeTokenError}, nil
	}

	hashtags := campaign.Hashtags()
	if len(hashtags) == 0 {
		log.Warn("Campaign has no hashtags configured")
		return &FetchResult{Outcome: FetchOutcomeNoHashtags}, nil
	}

	candidates, err := source.ListCandidates(ctx, token)
	if err != nil {
		statusCode := 0
		var apiErr *platform.APIError
		if errors.As(err, &apiErr) {
			statusCode = apiErr.StatusCode
		}
		log.Error("Platform API request failed", zap.Int("status_code", statusCode), zap.Error(err))
		f.monitoring.RecordError(ctx, LevelError, "fetcher", "Platform API request failed", util.Truncate(err.Error(), 2000),
			WithPlatform(platformName), WithUser(userID), WithCampaign(campaign.ID), WithRunID(runIDFrom(ctx)),
			WithContext(map[string]interface{}{"status_code": statusCode}))
		return &FetchResult{Outcome: FetchOutcomeAPIError}, nil
	}

	if len(candidates) == 0 {
		log.Info("No posts returned by platform")
		return &FetchResult{Outcome: FetchOutcomeNoVideos}, nil
	}

	result := &FetchResult{Outcome: FetchOutcomeSaved}
	for _, candidate := range candidates {
		caption := strings.ToLower(candidate.Description)
		if !util.ContainsAny(caption, hashtags) {
			result.Discarded++
			continue
		}
		result.Matched++

		post := f.buildPost(userID, campaign.ID, &account, source, candidate)
		if err := f.upsertPost(ctx, post); err != nil {
			result.Failed++
			log.Warn("Failed to save post",
				zap.String("platform_post_id", candidate.ID),
				zap.Error(err))
			continue
		}
		result.Saved++
	}

	log.Info("Fetched participant posts",
		zap.Int("candidates", len(candidates)),
		zap.Int("saved", result.Saved),
		zap.Int("discarded", result.Discarded),
		zap.Int("failed", result.Failed))

	return result, nil
}

func (f *MetricsFetcher) buildPost(userID, campaignID uint, account *models.SocialAccount, source platform.Source, c platform.CandidatePost) *models.Post {
	url := c.URL
	if url == "" {
		url = fmt.Sprintf("%s://post/%s", source.Platform(), c.ID)
	}

	post := &models.Post{
		CampaignID:      campaignID,
		UserID:          userID,
		SocialAccountID: &account.ID,
		Platform:        source.Platform(),
		PlatformPostID:  c.ID,
		PostType:        source.PostType(),
		URL:             url,
		MediaURL:        c.MediaURL,
		Caption:         c.Description,
		Metrics: models.Metrics{
			models.MetricViews:    counter(c.ViewCount),
			models.MetricLikes:    counter(c.LikeCount),
			models.MetricComments: counter(c.CommentCount),
			models.MetricShares:   counter(c.ShareCount),
		},
		IsValidForCampaign: true,
	}
	if len(c.Raw) > 0 {
		post.RawPayload = datatypes.JSON(c.Raw)
	}
	if !c.CreatedAt.IsZero() {
		postedAt := c.CreatedAt
		post.PostedAt = &postedAt
	}
	return post
}

// upsertPost inserts the post or refreshes its content, metrics and validity flag.
// The score of an existing row is left alone.
func (f *MetricsFetcher) upsertPost(ctx context.Context, post *models.Post) error {
	return f.db.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "campaign_id"},
			{Name: "user_id"},
			{Name: "platform_post_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"social_account_id",
			"platform",
			"post_type",
			"url",
			"media_url",
			"caption",
			"raw_payload",
			"metrics",
			"posted_at",
			"is_valid_for_campaign",
			"updated_at",
		}),
	}).Create(post).Error
}

func counter(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
