package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ifuryst/amplify/internal/models"
	"github.com/ifuryst/amplify/internal/service/platform"
	"github.com/ifuryst/amplify/internal/testutil"
)

const testTokenKey = "test-token-key"

// fakeSource is a platform source with canned candidates.
type fakeSource struct {
	name       string
	candidates []platform.CandidatePost
	err        error
	panicMsg   string
	calls      []string // access tokens seen
}

func (f *fakeSource) Platform() string { return f.name }
func (f *fakeSource) PostType() string { return "video" }

func (f *fakeSource) ListCandidates(_ context.Context, accessToken string) ([]platform.CandidatePost, error) {
	f.calls = append(f.calls, accessToken)
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.candidates, f.err
}

func newFakeTikTok(candidates ...platform.CandidatePost) *fakeSource {
	return &fakeSource{name: models.PlatformTikTok, candidates: candidates}
}

func candidate(id, description string, views, likes, comments, shares int64) platform.CandidatePost {
	return platform.CandidatePost{
		ID:           id,
		Description:  description,
		URL:          "https://www.tiktok.com/@creator/video/" + id,
		ViewCount:    &views,
		LikeCount:    &likes,
		CommentCount: &comments,
		ShareCount:   &shares,
		Raw:          []byte(`{"id":"` + id + `"}`),
	}
}

type testEnv struct {
	db         *gorm.DB
	cipher     *TokenCipher
	monitoring *MonitoringService
	fetcher    *MetricsFetcher
	scoring    *ScoringService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	cipher, err := NewTokenCipher(testTokenKey)
	require.NoError(t, err)

	logger := zap.NewNop()
	monitoring := NewMonitoringService(db, logger)
	return &testEnv{
		db:         db,
		cipher:     cipher,
		monitoring: monitoring,
		fetcher:    NewMetricsFetcher(db, cipher, monitoring, logger),
		scoring:    NewScoringService(db, monitoring, nil, logger),
	}
}

// linkAccount stores an encrypted token for the user.
func (e *testEnv) linkAccount(t *testing.T, user *models.User, token string) *models.SocialAccount {
	t.Helper()
	enc, err := e.cipher.Encrypt(token)
	require.NoError(t, err)
	return testutil.CreateSocialAccount(t, e.db, user, models.PlatformTikTok, enc)
}
