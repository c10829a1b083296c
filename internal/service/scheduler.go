package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ifuryst/amplify/internal/config"
)

var ErrSyncInProgress = errors.New("sync already in progress")

// SyncRunner is the work the scheduler triggers.
type SyncRunner interface {
	Run(ctx context.Context, trigger string) (*SyncSummary, error)
}

type Scheduler struct {
	config     *config.SyncConfig
	logger     *zap.Logger
	runner     SyncRunner
	monitoring *MonitoringService
	ticker     *time.Ticker
	stopCh     chan struct{}
	stopOnce   sync.Once
	running    sync.Mutex
}

func NewScheduler(cfg *config.SyncConfig, logger *zap.Logger, runner SyncRunner, monitoring *MonitoringService) *Scheduler {
	return &Scheduler{
		config:     cfg,
		logger:     logger,
		runner:     runner,
		monitoring: monitoring,
		stopCh:     make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("Scheduler is disabled")
		return nil
	}

	interval, err := time.ParseDuration(s.config.Interval)
	if err != nil || interval <= 0 {
		s.logger.Error("Invalid sync interval", zap.String("interval", s.config.Interval), zap.Error(err))
		if err == nil {
			err = errors.New("sync interval must be positive")
		}
		return err
	}

	s.logger.Info("Starting scheduler", zap.String("sync_interval", s.config.Interval))

	s.ticker = time.NewTicker(interval)

	// Ticks and the initial run share one goroutine so runs never overlap.
	go func() {
		if s.config.RunOnStart {
			s.logger.Info("Running initial sync")
			s.tick(ctx)
		}

		for {
			select {
			case <-s.ticker.C:
				s.logger.Info("Running scheduled sync")
				s.tick(ctx)
			case <-s.stopCh:
				s.logger.Info("Scheduler stopped")
				return
			case <-ctx.Done():
				s.logger.Info("Scheduler context cancelled")
				return
			}
		}
	}()

	return nil
}

func (s *Scheduler) Stop() {
	if s.ticker != nil {
		s.ticker.Stop()
	}
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.logger.Info("Scheduler shutdown completed")
}

// RunNow runs a sync unless one is already running, in which case it returns
// ErrSyncInProgress without waiting.
func (s *Scheduler) RunNow(ctx context.Context, trigger string) (*SyncSummary, error) {
	if !s.running.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer s.running.Unlock()

	start := time.Now()
	summary, err := s.runner.Run(ctx, trigger)
	duration := time.Since(start)

	if err != nil {
		s.logger.Error("Sync failed",
			zap.String("trigger", trigger),
			zap.Error(err),
			zap.Duration("duration", duration))
	} else {
		s.logger.Info("Sync completed successfully",
			zap.String("trigger", trigger),
			zap.Duration("duration", duration))
	}

	if s.monitoring != nil {
		if cleanupErr := s.monitoring.CleanupOldData(ctx, s.config.RetentionDays); cleanupErr != nil {
			s.logger.Warn("Failed to cleanup old monitoring data", zap.Error(cleanupErr))
		}
	}

	return summary, err
}

func (s *Scheduler) tick(ctx context.Context) {
	if _, err := s.RunNow(ctx, TriggerScheduler); errors.Is(err, ErrSyncInProgress) {
		s.logger.Warn("Skipping scheduled sync, previous run still in progress")
	}
}
