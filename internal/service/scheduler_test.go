package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ifuryst/amplify/internal/config"
)

type blockingRunner struct {
	started chan struct{}
	release chan struct{}
	runs    chan string
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{
		started: make(chan struct{}, 10),
		release: make(chan struct{}),
		runs:    make(chan string, 10),
	}
}

func (r *blockingRunner) Run(_ context.Context, trigger string) (*SyncSummary, error) {
	r.started <- struct{}{}
	<-r.release
	r.runs <- trigger
	return &SyncSummary{Trigger: trigger}, nil
}

func TestSchedulerRejectsOverlappingRuns(t *testing.T) {
	runner := newBlockingRunner()
	scheduler := NewScheduler(&config.SyncConfig{Enabled: true, Interval: "1h"}, zap.NewNop(), runner, nil)

	done := make(chan error, 1)
	go func() {
		_, err := scheduler.RunNow(context.Background(), TriggerScheduler)
		done <- err
	}()
	<-runner.started

	_, err := scheduler.RunNow(context.Background(), TriggerAPI)
	assert.ErrorIs(t, err, ErrSyncInProgress)

	close(runner.release)
	require.NoError(t, <-done)

	summary, err := scheduler.RunNow(context.Background(), TriggerAPI)
	require.NoError(t, err)
	assert.Equal(t, TriggerAPI, summary.Trigger)
}

func TestSchedulerRunsOnStart(t *testing.T) {
	runner := newBlockingRunner()
	close(runner.release)

	scheduler := NewScheduler(&config.SyncConfig{Enabled: true, Interval: "1h", RunOnStart: true}, zap.NewNop(), runner, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, scheduler.Start(ctx))
	defer scheduler.Stop()

	select {
	case trigger := <-runner.runs:
		assert.Equal(t, TriggerScheduler, trigger)
	case <-time.After(2 * time.Second):
		t.Fatal("initial sync did not run")
	}
}

func TestSchedulerDisabledOrInvalid(t *testing.T) {
	runner := newBlockingRunner()

	disabled := NewScheduler(&config.SyncConfig{Enabled: false, Interval: "bogus"}, zap.NewNop(), runner, nil)
	assert.NoError(t, disabled.Start(context.Background()))
	disabled.Stop()

	invalid := NewScheduler(&config.SyncConfig{Enabled: true, Interval: "bogus"}, zap.NewNop(), runner, nil)
	assert.Error(t, invalid.Start(context.Background()))
	invalid.Stop()
}
