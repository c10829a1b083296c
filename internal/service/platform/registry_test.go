package platform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubSource struct{ name string }

func (s stubSource) Platform() string { return s.name }
func (s stubSource) PostType() string { return "video" }
func (s stubSource) ListCandidates(context.Context, string) ([]CandidatePost, error) {
	return nil, nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(zap.NewNop())

	require.NoError(t, r.Register(stubSource{name: "tiktok"}))
	require.NoError(t, r.Register(stubSource{name: "instagram"}))
	assert.Error(t, r.Register(stubSource{name: "tiktok"}), "duplicate platform")

	src, err := r.Get("tiktok")
	require.NoError(t, err)
	assert.Equal(t, "tiktok", src.Platform())

	_, err = r.Get("youtube")
	assert.Error(t, err)

	sources := r.Sources()
	require.Len(t, sources, 2)
	assert.Equal(t, "instagram", sources[0].Platform())
	assert.Equal(t, "tiktok", sources[1].Platform())
}

func TestAPIErrorMessage(t *testing.T) {
	err := &APIError{Platform: "tiktok", StatusCode: 401, Body: "access_token_invalid"}
	assert.Equal(t, "tiktok API returned status 401: access_token_invalid", err.Error())
}
