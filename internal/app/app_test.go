package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drowse/internal/api"
	"drowse/internal/client"
	"drowse/internal/config"
)

const memoryConfig = `
server:
  address: "127.0.0.1:0"
  mcp_enabled: true
runtime:
  type: memory
sleep_settings:
  enabled: true
  sleep_check_interval: 1h
  resource_monitoring:
    enabled: false
services:
  translate:
    container: mcp-translate
    port: 8101
    auto_start: true
    sleep_policy:
      enabled: true
      idle_timeout: 300s
      min_sleep_time: 0
      memory_reservation: 128MB
      priority: high
  search:
    container: mcp-search
`

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestApp(t *testing.T, path string) *Application {
	t.Helper()
	cfg := NewConfig(false, path, "test")
	cfg.Silent = true
	a, err := NewApplication(cfg)
	require.NoError(t, err)
	return a
}

func runApp(t *testing.T, a *Application) (cancel func(), done <-chan error) {
	t.Helper()
	ctx, cancelFn := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- a.Run(ctx) }()

	select {
	case <-a.Ready():
	case err := <-errCh:
		cancelFn()
		t.Fatalf("daemon exited early: %v", err)
	case <-time.After(5 * time.Second):
		cancelFn()
		t.Fatal("daemon did not become ready")
	}
	return cancelFn, errCh
}

func TestNewApplication_MissingFileUsesDefaults(t *testing.T) {
	a := newTestApp(t, filepath.Join(t.TempDir(), "missing.yaml"))

	require.NotNil(t, a.config.Drowse)
	assert.Equal(t, config.DefaultListenAddress, a.config.Drowse.Server.Address)
	assert.Empty(t, a.config.Drowse.Services)
	assert.NotNil(t, a.services.Orchestrator)
	assert.NotNil(t, a.services.Watcher)
}

func TestNewApplication_InvalidConfig(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "runtime:\n  type: lxc\n")
	cfg := NewConfig(false, path, "test")
	cfg.Silent = true

	_, err := NewApplication(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "runtime.type")
}

func TestEffectiveSettings_FoldsPolicyPriorities(t *testing.T) {
	path := writeConfig(t, t.TempDir(), memoryConfig)
	a := newTestApp(t, path)

	settings := effectiveSettings(*a.config.Drowse)
	assert.Equal(t, []string{"translate"}, settings.WakePriorities.High)
	assert.Equal(t, time.Hour, settings.SleepCheckInterval.Std())
}

func TestApplication_Run(t *testing.T) {
	path := writeConfig(t, t.TempDir(), memoryConfig)
	a := newTestApp(t, path)
	cancel, done := runApp(t, a)

	c := client.New(a.Addr())
	ctx := context.Background()

	require.Eventually(t, func() bool {
		st, err := c.GetService(ctx, "translate")
		return err == nil && st.State == api.StateRunning
	}, 5*time.Second, 20*time.Millisecond)

	st, err := c.GetService(ctx, "search")
	require.NoError(t, err)
	assert.Equal(t, api.StateStopped, st.State)

	st, err = c.SleepService(ctx, "translate")
	require.NoError(t, err)
	assert.Equal(t, api.StateSleeping, st.State)
	assert.Equal(t, api.PriorityHigh, st.Priority)

	st, err = c.WakeService(ctx, "translate")
	require.NoError(t, err)
	assert.Equal(t, api.StateRunning, st.State)

	report, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, api.HealthHealthy, report.Status)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not shut down")
	}

	list, err := a.services.Orchestrator.ListServices()
	assert.Nil(t, list)
	assert.True(t, api.IsNotInitialized(err))
}

func TestApplication_HotReloadsSleepSettings(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, memoryConfig)
	a := newTestApp(t, path)
	cancel, done := runApp(t, a)
	defer func() {
		cancel()
		<-done
	}()

	require.Equal(t, 0, a.services.Orchestrator.Settings().MaxSleepingServices)

	writeConfig(t, dir, strings.Replace(memoryConfig,
		"  sleep_check_interval: 1h\n", "  sleep_check_interval: 1h\n  max_sleeping_services: 3\n", 1))

	assert.Eventually(t, func() bool {
		return a.services.Orchestrator.Settings().MaxSleepingServices == 3
	}, 5*time.Second, 50*time.Millisecond)
}
