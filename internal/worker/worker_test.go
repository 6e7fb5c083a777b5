package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dustin/movie-chat-backend/config"
	"github.com/dustin/movie-chat-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(context.Context) error { return nil }

func TestNewWorker(t *testing.T) {
	w, err := NewWorker("test-worker", "5m", time.Hour, noop, logger.Nop())

	require.NoError(t, err)
	assert.Equal(t, "test-worker", w.Name())
	assert.NotNil(t, w.cron)
	assert.NotNil(t, w.job)
	assert.Equal(t, 5*time.Minute, w.interval)
}

func TestNewWorker_InvalidInterval(t *testing.T) {
	_, err := NewWorker("test-worker", "invalid-duration", time.Hour, noop, logger.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid interval")

	_, err = NewWorker("test-worker", "-1m", time.Hour, noop, logger.Nop())
	assert.Error(t, err)
}

func TestNewWorker_ConfigDefaults(t *testing.T) {
	retrain, err := NewRetrainWorker(&config.WorkerConfig{}, noop, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, DefaultRetrainInterval, retrain.interval)
	assert.Equal(t, "retrain", retrain.Name())

	cleanup, err := NewCacheCleanupWorker(nil, noop, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, DefaultCacheCleanupInterval, cleanup.interval)

	cleanup, err = NewCacheCleanupWorker(&config.WorkerConfig{CacheCleanupInterval: "6h"}, noop, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, 6*time.Hour, cleanup.interval)
}

func TestDurationToCronExpression(t *testing.T) {
	w, err := NewWorker("test-worker", "", time.Hour, noop, logger.Nop())
	require.NoError(t, err)

	testCases := []struct {
		in   time.Duration
		want string
	}{
		{5 * time.Minute, "*/5 * * * *"},
		{time.Hour, "0 */1 * * *"},
		{6 * time.Hour, "0 */6 * * *"},
		{24 * time.Hour, "@every 24h0m0s"},
		{90 * time.Minute, "@every 1h30m0s"},
		{30 * time.Second, "@every 30s"},
	}
	for _, tc := range testCases {
		t.Run(tc.in.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, w.durationToCronExpression(tc.in))
		})
	}
}

func TestWorker_StartStop(t *testing.T) {
	w, err := NewWorker("test-worker", "5m", time.Hour, noop, logger.Nop())
	require.NoError(t, err)

	assert.False(t, w.IsRunning())

	require.NoError(t, w.Start())
	assert.True(t, w.IsRunning())
	assert.Error(t, w.Start())

	require.NoError(t, w.Stop())
	assert.False(t, w.IsRunning())
	assert.NoError(t, w.Stop())
}

func TestWorker_TriggerRunsJob(t *testing.T) {
	var runs atomic.Int32
	w, err := NewWorker("test-worker", "1h", time.Hour, func(context.Context) error {
		runs.Add(1)
		return nil
	}, logger.Nop())
	require.NoError(t, err)

	// a trigger before Start waits in the buffer
	w.Trigger()
	require.NoError(t, w.Start())
	defer w.Stop()

	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)

	w.Trigger()
	assert.Eventually(t, func() bool { return runs.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestWorker_TriggersCoalesce(t *testing.T) {
	var runs atomic.Int32
	started := make(chan struct{}, 1)
	release := make(chan struct{})

	w, err := NewWorker("test-worker", "1h", time.Hour, func(context.Context) error {
		if runs.Add(1) == 1 {
			started <- struct{}{}
			<-release
		}
		return nil
	}, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	w.Trigger()
	<-started

	for i := 0; i < 5; i++ {
		w.Trigger()
	}
	close(release)

	assert.Eventually(t, func() bool { return runs.Load() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(2), runs.Load())
}

func TestWorker_FailureKeepsWorkerAlive(t *testing.T) {
	var runs atomic.Int32
	w, err := NewWorker("test-worker", "1h", time.Hour, func(context.Context) error {
		runs.Add(1)
		return errors.New("training failed")
	}, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	w.Trigger()
	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	w.Trigger()
	assert.Eventually(t, func() bool { return runs.Load() == 2 }, time.Second, 5*time.Millisecond)
	assert.True(t, w.IsRunning())
}

func TestWorker_StopCancelsJobContext(t *testing.T) {
	entered := make(chan struct{})
	var cancelled atomic.Bool

	w, err := NewWorker("test-worker", "1h", time.Hour, func(ctx context.Context) error {
		close(entered)
		<-ctx.Done()
		cancelled.Store(true)
		return ctx.Err()
	}, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, w.Start())

	w.Trigger()
	<-entered
	require.NoError(t, w.Stop())
	assert.True(t, cancelled.Load())
}
