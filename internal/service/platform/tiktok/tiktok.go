package tiktok

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ifuryst/amplify/internal/config"
	"github.com/ifuryst/amplify/internal/models"
	"github.com/ifuryst/amplify/internal/service/platform"
)

const (
	PostTypeVideo = "video"

	defaultPageSize = 20
)

// videoFields is the field set requested from the video list endpoint.
var videoFields = []string{
	"id",
	"title",
	"video_description",
	"cover_image_url",
	"share_url",
	"view_count",
	"like_count",
	"comment_count",
	"share_count",
	"create_time",
}

type (
	listResponse struct {
		Data *struct {
			Videos  []json.RawMessage `json:"videos"`
			Cursor  int64             `json:"cursor"`
			HasMore bool              `json:"has_more"`
		} `json:"data"`
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
			LogID   string `json:"log_id"`
		} `json:"error"`
	}

	video struct {
		ID               string `json:"id"`
		Title            string `json:"title"`
		VideoDescription string `json:"video_description"`
		Description      string `json:"description"`
		CoverImageURL    string `json:"cover_image_url"`
		ShareURL         string `json:"share_url"`
		ViewCount        *int64 `json:"view_count"`
		LikeCount        *int64 `json:"like_count"`
		CommentCount     *int64 `json:"comment_count"`
		ShareCount       *int64 `json:"share_count"`
		CreateTime       int64  `json:"create_time"`
	}
)

// Source lists a creator's recent videos through the TikTok display API.
type Source struct {
	baseURL  string
	pageSize int
	logger   *zap.Logger
	client   *http.Client
}

func NewSource(cfg *config.TikTokConfig, logger *zap.Logger) *Source {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil || timeout <= 0 {
		timeout = 30 * time.Second
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	tr := &http.Transport{
		IdleConnTimeout:       120 * time.Second,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   10,
		TLSHandshakeTimeout:   20 * time.Second,
		ResponseHeaderTimeout: 20 * time.Second,
	}
	return &Source{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		pageSize: pageSize,
		logger:   logger.With(zap.String("platform", models.PlatformTikTok)),
		client: &http.Client{
			Transport: tr,
			Timeout:   timeout,
		},
	}
}

func (s *Source) Platform() string {
	return models.PlatformTikTok
}

func (s *Source) PostType() string {
	return PostTypeVideo
}

// ListCandidates returns the creator's most recent videos. Entries that cannot be
// decoded or carry no id are skipped.
func (s *Source) ListCandidates(ctx context.Context, accessToken string) ([]platform.CandidatePost, error) {
	response, err := s.listVideos(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	if response.Data == nil || len(response.Data.Videos) == 0 {
		return nil, nil
	}

	candidates := make([]platform.CandidatePost, 0, len(response.Data.Videos))
	for i, raw := range response.Data.Videos {
		var v video
		if err := json.Unmarshal(raw, &v); err != nil {
			s.logger.Warn("Skipping malformed video", zap.Int("index", i), zap.Error(err))
			continue
		}
		if strings.TrimSpace(v.ID) == "" {
			s.logger.Warn("Skipping video without id", zap.Int("index", i))
			continue
		}

		candidates = append(candidates, v.toCandidate(raw))
	}

	return candidates, nil
}

func (v video) toCandidate(raw json.RawMessage) platform.CandidatePost {
	description := v.VideoDescription
	if description == "" {
		description = v.Description
	}

	var createdAt time.Time
	if v.CreateTime > 0 {
		createdAt = time.Unix(v.CreateTime, 0).UTC()
	}

	return platform.CandidatePost{
		ID:           v.ID,
		Title:        v.Title,
		Description:  description,
		MediaURL:     v.CoverImageURL,
		URL:          v.ShareURL,
		ViewCount:    v.ViewCount,
		LikeCount:    v.LikeCount,
		CommentCount: v.CommentCount,
		ShareCount:   v.ShareCount,
		CreatedAt:    createdAt,
		Raw:          raw,
	}
}
