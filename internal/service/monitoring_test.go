package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifuryst/amplify/internal/models"
)

func TestMonitoringRunLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	run, err := env.monitoring.StartRun(ctx, TriggerAPI)
	require.NoError(t, err)
	assert.Len(t, run.RunID, 36)
	assert.Equal(t, models.SyncRunStatusRunning, run.Status)

	run.Status = models.SyncRunStatusSucceeded
	run.PostsSaved = 7
	require.NoError(t, env.monitoring.FinishRun(ctx, run))

	runs, err := env.monitoring.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 7, runs[0].PostsSaved)
	assert.NotNil(t, runs[0].FinishedAt)

	last, err := env.monitoring.LastSuccessfulRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, run.RunID, last.RunID)
}

func TestMonitoringRecordError(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.monitoring.RecordError(ctx, LevelWarn, "fetcher", "Token expired", "401",
		WithPlatform(models.PlatformTikTok),
		WithCampaign(3),
		WithUser(4),
		WithRunID("run-1"),
		WithContext(map[string]interface{}{"status_code": 401}))

	errs, err := env.monitoring.GetRecentErrors(ctx, 5)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, LevelWarn, errs[0].Level)
	assert.Equal(t, "run-1", errs[0].RunID)
	assert.EqualValues(t, 3, *errs[0].CampaignID)
	assert.EqualValues(t, 4, *errs[0].UserID)
	assert.JSONEq(t, `{"status_code":401}`, string(errs[0].Context))
}

func TestMonitoringCleanupOldData(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	old := time.Now().AddDate(0, 0, -100)
	require.NoError(t, env.db.Create(&models.SyncRun{RunID: "old", Trigger: TriggerCLI, Status: models.SyncRunStatusSucceeded, StartedAt: old}).Error)
	require.NoError(t, env.db.Create(&models.SyncRun{RunID: "new", Trigger: TriggerCLI, Status: models.SyncRunStatusSucceeded, StartedAt: time.Now()}).Error)

	resolved := &models.ErrorLog{Level: LevelError, Source: "sync", Title: "old", Message: "m", Resolved: true}
	unresolved := &models.ErrorLog{Level: LevelError, Source: "sync", Title: "open", Message: "m"}
	require.NoError(t, env.db.Create(resolved).Error)
	require.NoError(t, env.db.Create(unresolved).Error)
	require.NoError(t, env.db.Model(&models.ErrorLog{}).Where("id IN ?", []uint{resolved.ID, unresolved.ID}).
		UpdateColumn("created_at", old).Error)

	require.NoError(t, env.monitoring.CleanupOldData(ctx, 90))

	var runIDs []string
	require.NoError(t, env.db.Model(&models.SyncRun{}).Pluck("run_id", &runIDs).Error)
	assert.Equal(t, []string{"new"}, runIDs)

	var titles []string
	require.NoError(t, env.db.Model(&models.ErrorLog{}).Pluck("title", &titles).Error)
	assert.Equal(t, []string{"open"}, titles)
}
