package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// CandidatePost is a post returned by a platform before campaign filtering.
// Counters are nil when the platform omitted them.
type CandidatePost struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	MediaURL     string          `json:"media_url"`
	URL          string          `json:"url"`
	ViewCount    *int64          `json:"view_count"`
	LikeCount    *int64          `json:"like_count"`
	CommentCount *int64          `json:"comment_count"`
	ShareCount   *int64          `json:"share_count"`
	CreatedAt    time.Time       `json:"created_at"`
	Raw          json.RawMessage `json:"-"`
}

// Source is a source of candidate posts for one user on one platform.
type Source interface {
	Platform() string
	// PostType is the kind of content the platform produces, such as "video".
	PostType() string
	ListCandidates(ctx context.Context, accessToken string) ([]CandidatePost, error)
}

// APIError is returned when the platform answers with a non-success status.
type APIError struct {
	Platform   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API returned status %d: %s", e.Platform, e.StatusCode, e.Body)
}
