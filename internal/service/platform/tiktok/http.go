package tiktok

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ifuryst/amplify/internal/models"
	"github.com/ifuryst/amplify/internal/service/platform"
)

func (s *Source) listVideos(ctx context.Context, accessToken string) (*listResponse, error) {
	endpoint := fmt.Sprintf("%s/v2/video/list/?fields=%s", s.baseURL, url.QueryEscape(strings.Join(videoFields, ",")))

	jsonBody, err := json.Marshal(map[string]any{
		"max_count": s.pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &platform.APIError{
			Platform:   models.PlatformTikTok,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	var response listResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &response, nil
}
