package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ifuryst/amplify/internal/models"
)

type CampaignReport struct {
	CampaignID   uint                               `json:"campaign_id"`
	Name         string                             `json:"name"`
	Status       models.CampaignStatus              `json:"status"`
	StartDate    time.Time                          `json:"start_date"`
	EndDate      time.Time                          `json:"end_date"`
	Participants map[models.ParticipantStatus]int64 `json:"participants"`
	Posts        int64                              `json:"posts"`
	ValidPosts   int64                              `json:"valid_posts"`
	ScoredPosts  int64                              `json:"scored_posts"`
	Metrics      models.Metrics                     `json:"metrics"`
	TotalScore   float64                            `json:"total_score"`
	AverageScore float64                            `json:"average_score"`
	LastSyncAt   *time.Time                         `json:"last_sync_at"`
}

type PostPage struct {
	Posts    []models.Post `json:"posts"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

type ReportService struct {
	db         *gorm.DB
	monitoring *MonitoringService
	logger     *zap.Logger
}

func NewReportService(db *gorm.DB, monitoring *MonitoringService, logger *zap.Logger) *ReportService {
	return &ReportService{
		db:         db,
		monitoring: monitoring,
		logger:     logger,
	}
}

func (s *ReportService) CampaignReport(ctx context.Context, campaignID uint) (*CampaignReport, error) {
	db := s.db.WithContext(ctx)

	var campaign models.Campaign
	if err := db.First(&campaign, campaignID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrCampaignNotFound, campaignID)
		}
		return nil, fmt.Errorf("failed to load campaign %d: %w", campaignID, err)
	}

	report := &CampaignReport{
		CampaignID:   campaign.ID,
		Name:         campaign.Name,
		Status:       campaign.Status,
		StartDate:    campaign.StartDate,
		EndDate:      campaign.EndDate,
		Participants: make(map[models.ParticipantStatus]int64),
		Metrics:      models.Metrics{},
	}

	var statusCounts []struct {
		Status models.ParticipantStatus
		Count  int64
	}
	if err := db.Model(&models.Participant{}).
		Select("status, COUNT(*) AS count").
		Where("campaign_id = ?", campaignID).
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return nil, fmt.Errorf("failed to count participants: %w", err)
	}
	for _, sc := range statusCounts {
		report.Participants[sc.Status] = sc.Count
	}

	if err := db.Model(&models.Post{}).Where("campaign_id = ?", campaignID).Count(&report.Posts).Error; err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}

	var valid []models.Post
	if err := db.Select("id", "metrics", "score").
		Where("campaign_id = ? AND is_valid_for_campaign = ?", campaignID, true).
		Find(&valid).Error; err != nil {
		return nil, fmt.Errorf("failed to load valid posts: %w", err)
	}

	report.ValidPosts = int64(len(valid))
	for _, p := range valid {
		for name, value := range p.Metrics {
			report.Metrics[name] += value
		}
		if p.Score != nil {
			report.ScoredPosts++
			report.TotalScore += *p.Score
		}
	}
	if report.ScoredPosts > 0 {
		report.AverageScore = report.TotalScore / float64(report.ScoredPosts)
	}

	lastRun, err := s.monitoring.LastSuccessfulRun(ctx)
	if err != nil {
		s.logger.Warn("Failed to load last sync run", zap.Error(err))
	} else if lastRun != nil {
		report.LastSyncAt = lastRun.FinishedAt
	}

	return report, nil
}

// ListPosts pages through the campaign posts, highest score first.
func (s *ReportService) ListPosts(ctx context.Context, campaignID uint, page, pageSize int) (*PostPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var campaign models.Campaign
	if err := s.db.WithContext(ctx).Select("id").First(&campaign, campaignID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrCampaignNotFound, campaignID)
		}
		return nil, fmt.Errorf("failed to load campaign %d: %w", campaignID, err)
	}

	query := s.db.WithContext(ctx).Model(&models.Post{}).Where("campaign_id = ?", campaignID).Session(&gorm.Session{})

	result := &PostPage{Page: page, PageSize: pageSize}
	if err := query.Count(&result.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}

	if err := query.
		Order("score IS NULL, score DESC, id").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&result.Posts).Error; err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	return result, nil
}
