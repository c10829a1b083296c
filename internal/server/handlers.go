package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ifuryst/amplify/internal/service"
)

func campaignID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid campaign id"})
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}

func (s *Server) handleGetLeaderboard(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}

	board, err := s.Services.Leaderboard.Get(c.Request.Context(), id, queryInt(c, "limit", 0))
	if err != nil {
		s.campaignError(c, id, "Failed to get leaderboard", err)
		return
	}

	c.JSON(http.StatusOK, board)
}

func (s *Server) handleGetReport(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}

	report, err := s.Services.Reports.CampaignReport(c.Request.Context(), id)
	if err != nil {
		s.campaignError(c, id, "Failed to get report", err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (s *Server) handleListPosts(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}

	page, err := s.Services.Reports.ListPosts(c.Request.Context(), id, queryInt(c, "page", 1), queryInt(c, "page_size", 20))
	if err != nil {
		s.campaignError(c, id, "Failed to list posts", err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (s *Server) handleRecalculate(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}

	result, err := s.Services.Scoring.RecalculateForCampaign(c.Request.Context(), id)
	if err != nil {
		s.campaignError(c, id, "Failed to recalculate scores", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleTriggerSync(c *gin.Context) {
	summary, err := s.Services.Scheduler.RunNow(context.WithoutCancel(c.Request.Context()), service.TriggerAPI)
	if errors.Is(err, service.ErrSyncInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": "Sync already in progress"})
		return
	}
	if err != nil {
		s.Logger.Error("Failed to run sync", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sync failed", "summary": summary})
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleListSyncRuns(c *gin.Context) {
	runs, err := s.Services.Monitoring.ListRuns(c.Request.Context(), queryInt(c, "limit", 20))
	if err != nil {
		s.Logger.Error("Failed to list sync runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list sync runs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) handleLinkSocialAccount(c *gin.Context) {
	var req service.LinkAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := currentUser(c)
	account, err := s.Services.Accounts.Link(c.Request.Context(), user.ID, req)
	if errors.Is(err, service.ErrUnsupportedPlatform) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		s.Logger.Error("Failed to link social account", zap.Uint("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to link social account"})
		return
	}

	c.JSON(http.StatusCreated, account)
}

func (s *Server) campaignError(c *gin.Context, id uint, msg string, err error) {
	if errors.Is(err, service.ErrCampaignNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
		return
	}
	s.Logger.Error(msg, zap.Uint("campaign_id", id), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
