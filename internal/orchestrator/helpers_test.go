package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"drowse/internal/api"
	"drowse/internal/config"
	"drowse/internal/containerizer"
	"drowse/pkg/clock"
)

var epoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeMonitor struct {
	mu         sync.Mutex
	system     api.SystemResources
	err        error
	containers map[string]api.ContainerResources
}

func newFakeMonitor(memPercent float64) *fakeMonitor {
	return &fakeMonitor{
		system:     api.SystemResources{MemoryPercent: memPercent, CPUPercent: 10, MemoryTotalGB: 16},
		containers: make(map[string]api.ContainerResources),
	}
}

func (f *fakeMonitor) setMemory(percent float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.system.MemoryPercent = percent
}

func (f *fakeMonitor) GetSystemResources(ctx context.Context) (api.SystemResources, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.system, f.err
}

func (f *fakeMonitor) GetContainerResources(ctx context.Context, id string) (api.ContainerResources, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.containers[id]
	if !ok {
		return api.ContainerResources{}, fmt.Errorf("no stats for %s", id)
	}
	return res, nil
}

func translatePolicy() *config.SleepPolicy {
	return &config.SleepPolicy{
		Enabled:           true,
		IdleTimeout:       config.Duration(300 * time.Second),
		MinSleepTime:      config.Duration(60 * time.Second),
		MemoryReservation: "128MB",
		Priority:          "normal",
	}
}

func sleepyService(container string) config.ServiceConfig {
	return config.ServiceConfig{Container: container, Port: 8101, SleepPolicy: translatePolicy()}
}

type harness struct {
	o       *Orchestrator
	runtime *containerizer.MemoryRuntime
	clock   *clock.Mock
	monitor *fakeMonitor
}

func newHarness(t *testing.T, services map[string]config.ServiceConfig, tweak ...func(*config.GlobalSleepSettings)) *harness {
	t.Helper()

	settings := config.DefaultSleepSettings()
	for _, fn := range tweak {
		fn(&settings)
	}

	h := &harness{
		runtime: containerizer.NewMemoryRuntime(),
		clock:   clock.NewMock(epoch),
		monitor: newFakeMonitor(40),
	}
	o, err := New(Config{
		Services: services,
		Settings: settings,
		Runtime:  h.runtime,
		Monitor:  h.monitor,
		Clock:    h.clock,
	})
	require.NoError(t, err)
	require.NoError(t, o.Start(context.Background()))
	t.Cleanup(func() { o.Shutdown(context.Background()) })
	h.o = o
	return h
}

// sleepNow starts name if needed, lets it go idle and puts it to sleep.
func (h *harness) sleepNow(t *testing.T, name string) api.ServiceStatus {
	t.Helper()
	ctx := context.Background()
	_, err := h.o.StartService(ctx, name)
	require.NoError(t, err)
	h.clock.Advance(301 * time.Second)
	st, err := h.o.SleepService(ctx, name)
	require.NoError(t, err)
	require.Equal(t, api.StateSleeping, st.State)
	return st
}
