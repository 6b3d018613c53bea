package config

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	var maxSleeping atomic.Int64
	w := NewWatcher(path, 50*time.Millisecond, func(cfg Config) {
		maxSleeping.Store(int64(cfg.Sleep.MaxSleepingServices))
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	updated := "runtime:\n  type: memory\nsleep_settings:\n  max_sleeping_services: 7\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0644))

	assert.Eventually(t, func() bool { return maxSleeping.Load() == 7 }, 5*time.Second, 20*time.Millisecond)
}

func TestWatcher_IgnoresInvalidChange(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	var calls atomic.Int32
	w := NewWatcher(path, 20*time.Millisecond, func(Config) { calls.Add(1) })
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("runtime:\n  type: nope\n"), 0644))
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w := NewWatcher(writeConfig(t, sampleConfig), 0, nil)
	require.NoError(t, w.Start(context.Background()))
	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}
