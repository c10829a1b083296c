package service

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ifuryst/amplify/internal/models"
	"github.com/ifuryst/amplify/internal/observability"
	"github.com/ifuryst/amplify/internal/service/platform"
	"github.com/ifuryst/amplify/pkg/util"
)

const (
	TriggerScheduler = "scheduler"
	TriggerAPI       = "api"
	TriggerCLI       = "cli"

	maxStackTrace = 4000
)

type runIDKey struct{}

func withRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

func runIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey{}).(string); ok {
		return id
	}
	return ""
}

// SyncSummary aggregates what one run did.
type SyncSummary struct {
	RunID                 string               `json:"run_id"`
	Trigger               string               `json:"trigger"`
	Status                models.SyncRunStatus `json:"status"`
	ParticipantsProcessed int                  `json:"participants_processed"`
	Outcomes              map[FetchOutcome]int `json:"outcomes"`
	PostsSaved            int                  `json:"posts_saved"`
	FetchSkipped          int                  `json:"fetch_skipped"`
	CampaignsScored       int                  `json:"campaigns_scored"`
	PostsScored           int                  `json:"posts_scored"`
	ScoreFailures         int                  `json:"score_failures"`
	Duration              time.Duration        `json:"duration"`
	Error                 string               `json:"error,omitempty"`
}

// SyncOrchestrator runs one ingestion pass over every approved participant of every
// running campaign and then rescores those campaigns.
type SyncOrchestrator struct {
	db         *gorm.DB
	registry   *platform.Registry
	fetcher    *MetricsFetcher
	scoring    *ScoringService
	monitoring *MonitoringService
	logger     *zap.Logger
	now        func() time.Time
}

func NewSyncOrchestrator(
	db *gorm.DB,
	registry *platform.Registry,
	fetcher *MetricsFetcher,
	scoring *ScoringService,
	monitoring *MonitoringService,
	logger *zap.Logger,
) *SyncOrchestrator {
	return &SyncOrchestrator{
		db:         db,
		registry:   registry,
		fetcher:    fetcher,
		scoring:    scoring,
		monitoring: monitoring,
		logger:     logger,
		now:        time.Now,
	}
}

// Run executes one sync. A run is not cancellable: it ignores cancellation of ctx and
// either completes or fails. Errors and panics escaping the pass are recorded on the
// SyncRun and returned; work already committed is kept.
func (o *SyncOrchestrator) Run(ctx context.Context, trigger string) (summary *SyncSummary, err error) {
	start := time.Now()
	ctx = context.WithoutCancel(ctx)

	run, err := o.monitoring.StartRun(ctx, trigger)
	if err != nil {
		return nil, err
	}
	ctx = withRunID(ctx, run.RunID)

	summary = &SyncSummary{
		RunID:    run.RunID,
		Trigger:  trigger,
		Outcomes: make(map[FetchOutcome]int),
	}
	log := o.logger.With(zap.String("run_id", run.RunID), zap.String("trigger", trigger))
	log.Info("Sync run started")

	var stack string
	defer func() {
		if r := recover(); r != nil {
			stack = util.Truncate(string(debug.Stack()), maxStackTrace)
			err = fmt.Errorf("sync run panicked: %v", r)
		}

		summary.Duration = time.Since(start)
		run.ParticipantsProcessed = summary.ParticipantsProcessed
		run.PostsSaved = summary.PostsSaved
		run.FetchSkipped = summary.FetchSkipped
		run.CampaignsScored = summary.CampaignsScored
		run.PostsScored = summary.PostsScored
		run.ScoreFailures = summary.ScoreFailures

		if err != nil {
			summary.Status = models.SyncRunStatusFailed
			summary.Error = err.Error()
			run.Status = models.SyncRunStatusFailed
			run.Error = err.Error()
			run.StackTrace = stack

			log.Error("Sync run failed",
				zap.Error(err),
				zap.String("stack", stack),
				zap.Duration("duration", summary.Duration))
			o.monitoring.RecordError(ctx, LevelError, "sync", "Sync run failed", err.Error(),
				WithRunID(run.RunID), WithStackTrace(stack))
		} else {
			summary.Status = models.SyncRunStatusSucceeded
			run.Status = models.SyncRunStatusSucceeded

			log.Info("Sync run completed",
				zap.Int("participants", summary.ParticipantsProcessed),
				zap.Int("posts_saved", summary.PostsSaved),
				zap.Int("fetch_skipped", summary.FetchSkipped),
				zap.Int("campaigns_scored", summary.CampaignsScored),
				zap.Int("posts_scored", summary.PostsScored),
				zap.Int("score_failures", summary.ScoreFailures),
				zap.Duration("duration", summary.Duration))
		}

		if finishErr := o.monitoring.FinishRun(ctx, run); finishErr != nil {
			log.Error("Failed to persist sync run", zap.Error(finishErr))
		}
		observability.ObserveSyncRun(trigger, string(summary.Status), start, err == nil)
	}()

	if err = o.fetchAll(ctx, summary); err != nil {
		return summary, err
	}
	if err = o.scoreAll(ctx, summary); err != nil {
		return summary, err
	}
	return summary, nil
}

// participantCampaigns groups the running campaigns of each approved participant,
// ordered by user id and then campaign id.
type participantCampaigns struct {
	UserID    uint
	Campaigns []*models.Campaign
}

func (o *SyncOrchestrator) fetchAll(ctx context.Context, summary *SyncSummary) error {
	groups, err := o.discoverParticipants(ctx)
	if err != nil {
		return err
	}
	o.logger.Info("Discovered participants to sync", zap.Int("users", len(groups)))

	for _, source := range o.registry.Sources() {
		platformName := source.Platform()

		for _, group := range groups {
			var accounts int64
			if err := o.db.WithContext(ctx).Model(&models.SocialAccount{}).
				Where("user_id = ? AND platform = ?", group.UserID, platformName).
				Count(&accounts).Error; err != nil {
				summary.FetchSkipped += len(group.Campaigns)
				o.logger.Error("Failed to count social accounts",
					zap.Uint("user_id", group.UserID),
					zap.String("platform", platformName),
					zap.Error(err))
				continue
			}
			if accounts == 0 {
				continue
			}

			for _, campaign := range group.Campaigns {
				summary.ParticipantsProcessed++

				result, err := o.fetcher.FetchForParticipant(ctx, group.UserID, campaign, source)
				if err != nil {
					summary.FetchSkipped++
					o.logger.Error("Participant fetch failed",
						zap.Uint("user_id", group.UserID),
						zap.Uint("campaign_id", campaign.ID),
						zap.String("platform", platformName),
						zap.Error(err))
					continue
				}

				summary.Outcomes[result.Outcome]++
				observability.FetchOutcomesTotal.WithLabelValues(platformName, string(result.Outcome)).Inc()
				if result.Outcome != FetchOutcomeSaved {
					summary.FetchSkipped++
					continue
				}
				summary.PostsSaved += result.Saved
				observability.PostsSavedTotal.WithLabelValues(platformName).Add(float64(result.Saved))
			}
		}
	}

	return nil
}

func (o *SyncOrchestrator) scoreAll(ctx context.Context, summary *SyncSummary) error {
	campaigns, err := o.syncableCampaigns(ctx)
	if err != nil {
		return err
	}

	for _, campaign := range campaigns {
		result, err := o.scoring.RecalculateForCampaign(ctx, campaign.ID)
		if err != nil {
			summary.ScoreFailures++
			o.logger.Error("Campaign recalculation failed", zap.Uint("campaign_id", campaign.ID), zap.Error(err))
			continue
		}
		summary.CampaignsScored++
		summary.PostsScored += result.Processed
		summary.ScoreFailures += result.Failed
	}

	return nil
}

func (o *SyncOrchestrator) discoverParticipants(ctx context.Context) ([]participantCampaigns, error) {
	campaigns, err := o.syncableCampaigns(ctx)
	if err != nil {
		return nil, err
	}
	if len(campaigns) == 0 {
		return nil, nil
	}

	byID := make(map[uint]*models.Campaign, len(campaigns))
	ids := make([]uint, 0, len(campaigns))
	for _, c := range campaigns {
		byID[c.ID] = c
		ids = append(ids, c.ID)
	}

	var participants []models.Participant
	if err := o.db.WithContext(ctx).
		Where("status = ? AND campaign_id IN ?", models.ParticipantStatusApproved, ids).
		Order("user_id, campaign_id").
		Find(&participants).Error; err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}

	var groups []participantCampaigns
	for _, p := range participants {
		if len(groups) == 0 || groups[len(groups)-1].UserID != p.UserID {
			groups = append(groups, participantCampaigns{UserID: p.UserID})
		}
		last := &groups[len(groups)-1]
		last.Campaigns = append(last.Campaigns, byID[p.CampaignID])
	}

	return groups, nil
}

func (o *SyncOrchestrator) syncableCampaigns(ctx context.Context) ([]*models.Campaign, error) {
	var active []*models.Campaign
	if err := o.db.WithContext(ctx).
		Where("status = ?", models.CampaignStatusActive).
		Order("id").
		Find(&active).Error; err != nil {
		return nil, fmt.Errorf("failed to load active campaigns: %w", err)
	}

	now := o.now()
	campaigns := make([]*models.Campaign, 0, len(active))
	for _, c := range active {
		if c.IsSyncable(now) {
			campaigns = append(campaigns, c)
		}
	}
	return campaigns, nil
}
