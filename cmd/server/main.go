package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ifuryst/amplify/internal/config"
	"github.com/ifuryst/amplify/internal/server"
	"github.com/ifuryst/amplify/internal/service"
	"github.com/ifuryst/amplify/pkg/logger"
	"github.com/ifuryst/amplify/pkg/util"
)

var (
	configPath string
	version    = "0.1.0"
	gitCommit  = "unknown"
	buildTime  = "unknown"

	recalculateCampaign uint
	seedInfluencers     int
	seedPosts           int
	seedRandom          int64
	seedHashtags        string
	tokenUser           uint
	tokenTTL            time.Duration
)

var rootCmd = &cobra.Command{
	Use:          "amplify",
	Short:        "Amplify - campaign post ingestion and scoring",
	Long:         `Amplify ingests influencer posts for running campaigns, scores them against campaign rules and serves leaderboards and reports.`,
	SilenceUsage: true,
	RunE:         runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Amplify %s\n", version)
		fmt.Printf("Git commit: %s\n", gitCommit)
		fmt.Printf("Build time: %s\n", buildTime)
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one ingestion and scoring pass and exit",
	RunE:  runSync,
}

var recalculateCmd = &cobra.Command{
	Use:   "recalculate",
	Short: "Recalculate scores for one campaign",
	RunE:  runRecalculate,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a demo campaign with participants and scored posts",
	RunE:  runSeed,
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API token for a user",
	RunE:  runToken,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/server.yaml", "config file path")

	recalculateCmd.Flags().UintVar(&recalculateCampaign, "campaign", 0, "campaign id")
	_ = recalculateCmd.MarkFlagRequired("campaign")

	seedCmd.Flags().IntVar(&seedInfluencers, "influencers", 5, "number of influencers")
	seedCmd.Flags().IntVar(&seedPosts, "posts", 3, "posts per approved influencer")
	seedCmd.Flags().Int64Var(&seedRandom, "random-seed", 0, "random seed, 0 for time based")
	seedCmd.Flags().StringVar(&seedHashtags, "hashtags", "", `campaign hashtags, e.g. "[#summer, sale]"`)

	tokenCmd.Flags().UintVar(&tokenUser, "user", 0, "user id")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(versionCmd, syncCmd, recalculateCmd, seedCmd, tokenCmd)
}

func bootstrap(ctx context.Context) (*config.Config, *zap.Logger, *service.Container, error) {
	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	appLogger, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	services, err := service.NewContainer(ctx, cfg, appLogger)
	if err != nil {
		_ = appLogger.Sync()
		return nil, nil, nil, err
	}

	return cfg, appLogger, services, nil
}

func runServer(*cobra.Command, []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, appLogger, services, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer appLogger.Sync()
	defer services.Close()

	appLogger.Info("Starting Amplify server", zap.String("version", version))

	srv := server.NewServer(cfg, services, appLogger)

	go func() {
		if err := srv.Start(ctx); err != nil {
			appLogger.Error("Server failed to start", zap.Error(err))
			cancel()
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		appLogger.Info("Shutting down server...")
	case <-ctx.Done():
		appLogger.Info("Server context cancelled")
	}

	// Graceful shutdown
	if err := srv.Shutdown(context.WithoutCancel(ctx)); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	appLogger.Info("Server exited")
	return nil
}

func runSync(*cobra.Command, []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, appLogger, services, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer appLogger.Sync()
	defer services.Close()

	summary, err := services.Scheduler.RunNow(ctx, service.TriggerCLI)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	fmt.Printf("Sync %s: participants=%d posts_saved=%d fetch_skipped=%d campaigns_scored=%d posts_scored=%d score_failures=%d duration=%s\n",
		summary.RunID,
		summary.ParticipantsProcessed,
		summary.PostsSaved,
		summary.FetchSkipped,
		summary.CampaignsScored,
		summary.PostsScored,
		summary.ScoreFailures,
		summary.Duration.Round(time.Millisecond))
	return nil
}

func runRecalculate(*cobra.Command, []string) error {
	ctx := context.Background()

	_, appLogger, services, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer appLogger.Sync()
	defer services.Close()

	result, err := services.Scoring.RecalculateForCampaign(ctx, recalculateCampaign)
	if err != nil {
		return err
	}

	fmt.Printf("Campaign %d: processed=%d failed=%d\n", result.CampaignID, result.Processed, result.Failed)
	return nil
}

func runSeed(*cobra.Command, []string) error {
	ctx := context.Background()

	_, appLogger, services, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer appLogger.Sync()
	defer services.Close()

	result, err := services.Seeder.Seed(ctx, service.SeedOptions{
		Influencers: seedInfluencers,
		Posts:       seedPosts,
		Hashtags:    util.ParseTags(seedHashtags),
		RandomSeed:  seedRandom,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Seeded campaign %d: users=%d posts=%d scored=%d\n", result.CampaignID, result.Users, result.Posts, result.PostsScored)
	return nil
}

func runToken(*cobra.Command, []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	token, err := server.IssueToken(cfg.Security.JWTSecret, tokenUser, tokenTTL)
	if err != nil {
		return err
	}

	fmt.Println(token)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
