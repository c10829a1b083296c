package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ifuryst/amplify/internal/models"
)

const (
	LevelError = "ERROR"
	LevelWarn  = "WARN"
	LevelInfo  = "INFO"
)

type MonitoringService struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

func NewMonitoringService(db *gorm.DB, logger *zap.Logger) *MonitoringService {
	return &MonitoringService{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// RecordError 记录错误日志. A failed insert is logged and swallowed so callers can
// keep going.
func (m *MonitoringService) RecordError(ctx context.Context, level, source, title, message string, options ...ErrorLogOption) {
	errorLog := &models.ErrorLog{
		Level:   level,
		Source:  source,
		Title:   title,
		Message: message,
	}

	for _, option := range options {
		option(errorLog)
	}

	if err := m.db.WithContext(ctx).Create(errorLog).Error; err != nil {
		m.logger.Warn("Failed to record error log",
			zap.String("source", source),
			zap.String("title", title),
			zap.Error(err))
	}
}

// ErrorLogOption 错误日志选项
type ErrorLogOption func(*models.ErrorLog)

func WithPlatform(platformName string) ErrorLogOption {
	return func(e *models.ErrorLog) {
		e.Platform = platformName
	}
}

func WithCampaign(campaignID uint) ErrorLogOption {
	return func(e *models.ErrorLog) {
		e.CampaignID = &campaignID
	}
}

func WithUser(userID uint) ErrorLogOption {
	return func(e *models.ErrorLog) {
		e.UserID = &userID
	}
}

func WithPost(postID uint) ErrorLogOption {
	return func(e *models.ErrorLog) {
		e.PostID = &postID
	}
}

func WithRunID(runID string) ErrorLogOption {
	return func(e *models.ErrorLog) {
		e.RunID = runID
	}
}

// WithStackTrace 设置堆栈信息
func WithStackTrace(stackTrace string) ErrorLogOption {
	return func(e *models.ErrorLog) {
		e.StackTrace = stackTrace
	}
}

// WithContext 设置上下文信息
func WithContext(context map[string]interface{}) ErrorLogOption {
	return func(e *models.ErrorLog) {
		if contextBytes, err := json.Marshal(context); err == nil {
			e.Context = datatypes.JSON(contextBytes)
		}
	}
}

// StartRun inserts a running SyncRun row with a fresh run id.
func (m *MonitoringService) StartRun(ctx context.Context, trigger string) (*models.SyncRun, error) {
	run := &models.SyncRun{
		RunID:     uuid.NewString(),
		Trigger:   trigger,
		Status:    models.SyncRunStatusRunning,
		StartedAt: m.now(),
	}
	if err := m.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("failed to create sync run: %w", err)
	}
	return run, nil
}

// FinishRun persists the final status and counters of a run.
func (m *MonitoringService) FinishRun(ctx context.Context, run *models.SyncRun) error {
	finished := m.now()
	run.FinishedAt = &finished
	if err := m.db.WithContext(ctx).Save(run).Error; err != nil {
		return fmt.Errorf("failed to update sync run %s: %w", run.RunID, err)
	}
	return nil
}

// ListRuns returns the most recent runs first.
func (m *MonitoringService) ListRuns(ctx context.Context, limit int) ([]models.SyncRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var runs []models.SyncRun
	err := m.db.WithContext(ctx).
		Order("started_at desc, id desc").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}

// LastSuccessfulRun returns nil when no run has succeeded yet.
func (m *MonitoringService) LastSuccessfulRun(ctx context.Context) (*models.SyncRun, error) {
	var run models.SyncRun
	err := m.db.WithContext(ctx).
		Where("status = ?", models.SyncRunStatusSucceeded).
		Order("started_at desc, id desc").
		Limit(1).
		Find(&run).Error
	if err != nil {
		return nil, err
	}
	if run.ID == 0 {
		return nil, nil
	}
	return &run, nil
}

// GetRecentErrors 获取最近的错误日志
func (m *MonitoringService) GetRecentErrors(ctx context.Context, limit int) ([]models.ErrorLog, error) {
	var errors []models.ErrorLog
	err := m.db.WithContext(ctx).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&errors).Error
	return errors, err
}

// CleanupOldData 清理旧数据
func (m *MonitoringService) CleanupOldData(ctx context.Context, daysToKeep int) error {
	if daysToKeep <= 0 {
		return nil
	}
	cutoffDate := m.now().AddDate(0, 0, -daysToKeep)
	db := m.db.WithContext(ctx)

	if err := db.Where("started_at < ? AND status <> ?", cutoffDate, models.SyncRunStatusRunning).Delete(&models.SyncRun{}).Error; err != nil {
		return fmt.Errorf("failed to cleanup sync runs: %w", err)
	}

	if err := db.Where("created_at < ? AND resolved = ?", cutoffDate, true).Delete(&models.ErrorLog{}).Error; err != nil {
		return fmt.Errorf("failed to cleanup resolved errors: %w", err)
	}

	return nil
}
