package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestRoleCapabilities(t *testing.T) {
	assert.True(t, RoleAdmin.Can(CapRecalculateScores))
	assert.True(t, RoleAdmin.Can(CapTriggerSync))
	assert.True(t, RoleBrand.Can(CapViewReports))
	assert.False(t, RoleBrand.Can(CapRecalculateScores))
	assert.True(t, RoleInfluencer.Can(CapLinkSocialAccount))
	assert.False(t, RoleInfluencer.Can(CapViewReports))
	assert.False(t, Role("guest").Can(CapViewLeaderboard))
	assert.False(t, Role("guest").Valid())
}

func TestCampaignIsSyncable(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	c := Campaign{
		Status:    CampaignStatusActive,
		StartDate: now.Add(-24 * time.Hour),
		EndDate:   now.Add(24 * time.Hour),
	}
	assert.True(t, c.IsSyncable(now))

	c.Status = CampaignStatusCompleted
	assert.False(t, c.IsSyncable(now))

	c.Status = CampaignStatusActive
	assert.False(t, c.IsSyncable(now.Add(48*time.Hour)), "expired")
	assert.False(t, c.IsSyncable(now.Add(-48*time.Hour)), "not started")
	assert.True(t, c.IsSyncable(c.EndDate), "end date is inclusive")
}

func TestCampaignHashtags(t *testing.T) {
	c := Campaign{Briefing: datatypes.NewJSONType(Briefing{Hashtags: []string{"#Sale", "PROMO", " "}})}
	assert.Equal(t, []string{"sale", "promo"}, c.Hashtags())

	empty := Campaign{}
	assert.Empty(t, empty.Hashtags())
}

func TestCampaignBeforeSaveRejectsInvertedDates(t *testing.T) {
	now := time.Now()
	c := &Campaign{StartDate: now, EndDate: now.Add(-time.Hour)}
	assert.ErrorIs(t, c.BeforeSave(nil), ErrInvalidCampaignDates)

	c.EndDate = now
	assert.NoError(t, c.BeforeSave(nil))
}

func TestMetricsScanAndValue(t *testing.T) {
	m := Metrics{MetricViews: 10, MetricLikes: 2}
	v, err := m.Value()
	require.NoError(t, err)

	var scanned Metrics
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, m, scanned)

	require.NoError(t, scanned.Scan([]byte(`{"shares":4}`)))
	assert.Equal(t, int64(4), scanned.Get(MetricShares))
	assert.Equal(t, int64(0), scanned.Get(MetricViews))

	require.NoError(t, scanned.Scan(nil))
	assert.Empty(t, scanned)

	assert.Error(t, scanned.Scan(42))
}
