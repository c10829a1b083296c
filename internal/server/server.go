package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ifuryst/amplify/internal/config"
	"github.com/ifuryst/amplify/internal/models"
	"github.com/ifuryst/amplify/internal/service"
)

type Server struct {
	Config *config.Config
	DB     *gorm.DB
	Router *gin.Engine
	Logger *zap.Logger
	Server *http.Server

	// Services
	Services *service.Container
}

func NewServer(cfg *config.Config, services *service.Container, logger *zap.Logger) *Server {
	// Set gin mode
	gin.SetMode(cfg.Server.Mode)

	srv := &Server{
		Config:   cfg,
		DB:       services.DB,
		Router:   gin.New(),
		Logger:   logger,
		Services: services,
	}

	srv.setupMiddleware()
	srv.setupRoutes()

	return srv
}

func (s *Server) setupRoutes() {
	// Health check
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
		})
	})
	s.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := s.Router.Group("/api/v1", s.authenticate())
	{
		campaigns := api.Group("/campaigns/:id")
		{
			campaigns.GET("/leaderboard", requireCapability(models.CapViewLeaderboard), s.handleGetLeaderboard)
			campaigns.GET("/report", requireCapability(models.CapViewReports), s.handleGetReport)
			campaigns.GET("/posts", requireCapability(models.CapViewReports), s.handleListPosts)
			campaigns.POST("/recalculate", requireCapability(models.CapRecalculateScores), s.handleRecalculate)
		}

		sync := api.Group("/sync", requireCapability(models.CapTriggerSync))
		{
			sync.POST("", s.handleTriggerSync)
			sync.GET("/runs", s.handleListSyncRuns)
		}

		api.POST("/social-accounts", requireCapability(models.CapLinkSocialAccount), s.handleLinkSocialAccount)
	}
}

func (s *Server) Start(ctx context.Context) error {
	// Start scheduler
	if err := s.Services.Scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)

	s.Server = &http.Server{
		Addr:              addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.Logger.Info("Starting HTTP server", zap.String("addr", addr))

	if s.Config.Server.CertFile != "" && s.Config.Server.KeyFile != "" {
		return s.Server.ListenAndServeTLS(s.Config.Server.CertFile, s.Config.Server.KeyFile)
	}

	return s.Server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	// Stop scheduler first
	s.Services.Scheduler.Stop()

	if s.Server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	return s.Server.Shutdown(shutdownCtx)
}
