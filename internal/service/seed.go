package service

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ifuryst/amplify/internal/models"
)

type SeedOptions struct {
	Influencers int
	Posts       int // per approved influencer
	Hashtags    []string
	RandomSeed  int64
}

type SeedResult struct {
	CampaignID  uint `json:"campaign_id"`
	Users       int  `json:"users"`
	Posts       int  `json:"posts"`
	PostsScored int  `json:"posts_scored"`
}

// Seeder fills an empty database with a demo campaign. Posts are scored through the
// ScoringService like ingested ones.
type Seeder struct {
	db      *gorm.DB
	cipher  *TokenCipher
	scoring *ScoringService
	logger  *zap.Logger
}

func NewSeeder(db *gorm.DB, cipher *TokenCipher, scoring *ScoringService, logger *zap.Logger) *Seeder {
	return &Seeder{
		db:      db,
		cipher:  cipher,
		scoring: scoring,
		logger:  logger,
	}
}

func (s *Seeder) Seed(ctx context.Context, opts SeedOptions) (*SeedResult, error) {
	if opts.Influencers <= 0 {
		opts.Influencers = 5
	}
	if opts.Posts <= 0 {
		opts.Posts = 3
	}
	if opts.RandomSeed == 0 {
		opts.RandomSeed = time.Now().UnixNano()
	}
	gofakeit.Seed(opts.RandomSeed)
	if len(opts.Hashtags) == 0 {
		opts.Hashtags = []string{"#amplify", "#" + gofakeit.HipsterWord()}
	}

	result := &SeedResult{}
	var campaign models.Campaign

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		admin := s.fakeUser(models.RoleAdmin)
		brand := s.fakeUser(models.RoleBrand)
		if err := tx.Create([]*models.User{admin, brand}).Error; err != nil {
			return fmt.Errorf("failed to create users: %w", err)
		}
		result.Users += 2

		now := time.Now().UTC()
		campaign = models.Campaign{
			Name:        gofakeit.Company() + " " + gofakeit.HipsterWord() + " campaign",
			Description: gofakeit.Sentence(12),
			BrandID:     brand.ID,
			StartDate:   now.AddDate(0, 0, -7),
			EndDate:     now.AddDate(0, 1, 0),
			Budget:      float64(gofakeit.Number(1000, 50000)),
			Status:      models.CampaignStatusActive,
			Briefing: datatypes.NewJSONType(models.Briefing{
				Goals:        []string{gofakeit.Sentence(6)},
				Hashtags:     opts.Hashtags,
				ContentTypes: []string{"video"},
			}),
			ScoringRules: datatypes.NewJSONType(models.ScoringRules{
				Platforms: map[string]models.MetricWeights{
					models.PlatformTikTok: {
						models.MetricViews:    1,
						models.MetricLikes:    2,
						models.MetricComments: 5,
						models.MetricShares:   8,
					},
				},
			}),
		}
		if err := tx.Create(&campaign).Error; err != nil {
			return fmt.Errorf("failed to create campaign: %w", err)
		}
		result.CampaignID = campaign.ID

		statuses := []models.ParticipantStatus{
			models.ParticipantStatusApproved,
			models.ParticipantStatusApproved,
			models.ParticipantStatusPending,
			models.ParticipantStatusWithdrawn,
		}

		for i := 0; i < opts.Influencers; i++ {
			influencer := s.fakeUser(models.RoleInfluencer)
			if err := tx.Create(influencer).Error; err != nil {
				return fmt.Errorf("failed to create influencer: %w", err)
			}
			result.Users++

			status := statuses[i%len(statuses)]
			participant := &models.Participant{
				CampaignID: campaign.ID,
				UserID:     influencer.ID,
				Status:     status,
				AppliedAt:  &now,
			}
			if status == models.ParticipantStatusApproved {
				participant.ApprovedAt = &now
			}
			if err := tx.Create(participant).Error; err != nil {
				return fmt.Errorf("failed to create participant: %w", err)
			}

			token, err := s.cipher.Encrypt("act." + gofakeit.UUID())
			if err != nil {
				return err
			}
			account := &models.SocialAccount{
				UserID:            influencer.ID,
				Platform:          models.PlatformTikTok,
				PlatformAccountID: gofakeit.UUID(),
				Username:          gofakeit.Username(),
				AccessToken:       token,
			}
			if err := tx.Create(account).Error; err != nil {
				return fmt.Errorf("failed to create social account: %w", err)
			}

			if status != models.ParticipantStatusApproved {
				continue
			}
			for j := 0; j < opts.Posts; j++ {
				post := s.fakePost(&campaign, influencer, account)
				if err := tx.Create(post).Error; err != nil {
					return fmt.Errorf("failed to create post: %w", err)
				}
				result.Posts++
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	scored, err := s.scoring.RecalculateForCampaign(ctx, campaign.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to score seeded campaign: %w", err)
	}
	result.PostsScored = scored.Processed

	s.logger.Info("Seed data created",
		zap.Uint("campaign_id", result.CampaignID),
		zap.Int("users", result.Users),
		zap.Int("posts", result.Posts),
		zap.Int("posts_scored", result.PostsScored))

	return result, nil
}

func (s *Seeder) fakeUser(role models.Role) *models.User {
	return &models.User{
		Name:  gofakeit.Name(),
		Email: fmt.Sprintf("%s.%d@%s", gofakeit.Username(), gofakeit.Number(1000, 9999), gofakeit.DomainName()),
		Role:  role,
	}
}

func (s *Seeder) fakePost(campaign *models.Campaign, user *models.User, account *models.SocialAccount) *models.Post {
	videoID := fmt.Sprintf("%d", gofakeit.Number(100000000, 999999999))
	postedAt := gofakeit.DateRange(campaign.StartDate, time.Now().UTC())
	hashtag := campaign.Briefing.Data().Hashtags[0]

	return &models.Post{
		CampaignID:      campaign.ID,
		UserID:          user.ID,
		SocialAccountID: &account.ID,
		Platform:        models.PlatformTikTok,
		PlatformPostID:  videoID,
		PostType:        "video",
		URL:             fmt.Sprintf("https://www.tiktok.com/@%s/video/%s", account.Username, videoID),
		MediaURL:        fmt.Sprintf("https://picsum.photos/seed/%s/720/1280", gofakeit.UUID()),
		Caption:         gofakeit.Sentence(8) + " " + hashtag,
		Metrics: models.Metrics{
			models.MetricViews:    int64(gofakeit.Number(100, 100000)),
			models.MetricLikes:    int64(gofakeit.Number(0, 5000)),
			models.MetricComments: int64(gofakeit.Number(0, 500)),
			models.MetricShares:   int64(gofakeit.Number(0, 200)),
		},
		PostedAt:           &postedAt,
		IsValidForCampaign: true,
	}
}
