package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ifuryst/amplify/internal/config"
	"github.com/ifuryst/amplify/internal/service/platform"
	"github.com/ifuryst/amplify/internal/service/platform/tiktok"
	"github.com/ifuryst/amplify/pkg/cache"
)

// Container wires the services shared by the HTTP server and the CLI commands.
type Container struct {
	DB    *gorm.DB
	Redis *redis.Client

	Cipher       *TokenCipher
	Registry     *platform.Registry
	Monitoring   *MonitoringService
	Fetcher      *MetricsFetcher
	Scoring      *ScoringService
	Orchestrator *SyncOrchestrator
	Scheduler    *Scheduler
	Leaderboard  *LeaderboardService
	Reports      *ReportService
	Accounts     *AccountService
	Seeder       *Seeder
}

// NewContainer connects to postgres and, when configured, redis.
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	db, err := NewDatabase(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	redisClient, err := cache.Connect(ctx, cfg.Redis.Config)
	if err != nil {
		logger.Warn("Redis unavailable, leaderboard cache disabled", zap.Error(err))
		redisClient = nil
	}

	return BuildContainer(cfg, db, redisClient, logger)
}

// BuildContainer wires services over existing connections. redisClient may be nil.
func BuildContainer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, logger *zap.Logger) (*Container, error) {
	cipher, err := NewTokenCipher(cfg.Security.TokenKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token cipher: %w", err)
	}

	registry := platform.NewRegistry(logger)
	if cfg.TikTok.Enabled {
		if err := registry.Register(tiktok.NewSource(&cfg.TikTok, logger)); err != nil {
			return nil, err
		}
	}

	ttl, err := time.ParseDuration(cfg.Redis.LeaderboardTTL)
	if err != nil {
		logger.Warn("Invalid leaderboard TTL, using default", zap.String("ttl", cfg.Redis.LeaderboardTTL), zap.Error(err))
		ttl = defaultLeaderboardTTL
	}

	monitoring := NewMonitoringService(db, logger)
	leaderboard := NewLeaderboardService(db, cache.New(redisClient), ttl, logger)
	scoring := NewScoringService(db, monitoring, leaderboard, logger)
	fetcher := NewMetricsFetcher(db, cipher, monitoring, logger)
	orchestrator := NewSyncOrchestrator(db, registry, fetcher, scoring, monitoring, logger)

	return &Container{
		DB:           db,
		Redis:        redisClient,
		Cipher:       cipher,
		Registry:     registry,
		Monitoring:   monitoring,
		Fetcher:      fetcher,
		Scoring:      scoring,
		Orchestrator: orchestrator,
		Scheduler:    NewScheduler(&cfg.Sync, logger, orchestrator, monitoring),
		Leaderboard:  leaderboard,
		Reports:      NewReportService(db, monitoring, logger),
		Accounts:     NewAccountService(db, cipher, registry, logger),
		Seeder:       NewSeeder(db, cipher, scoring, logger),
	}, nil
}

func (c *Container) Close() error {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
