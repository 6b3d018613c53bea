package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drowse/internal/containerizer"
)

// scriptedSampler replays CPU readings in order and repeats the last one.
type scriptedSampler struct {
	mu        sync.Mutex
	cpu       [][2]float64
	calls     int
	total     uint64
	available uint64
	err       error
}

func (s *scriptedSampler) CPUTimes() (float64, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, 0, s.err
	}
	i := s.calls
	if i >= len(s.cpu) {
		i = len(s.cpu) - 1
	}
	s.calls++
	return s.cpu[i][0], s.cpu[i][1], nil
}

func (s *scriptedSampler) Memory() (uint64, uint64, error) {
	return s.total, s.available, nil
}

func TestGetSystemResources(t *testing.T) {
	host := &scriptedSampler{
		cpu:       [][2]float64{{10, 100}, {30, 200}, {30, 300}},
		total:     16 * bytesPerGB,
		available: 4 * bytesPerGB,
	}
	m := New(host, nil)
	m.sampleGap = time.Millisecond

	first, err := m.GetSystemResources(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 20.0, first.CPUPercent, 0.001, "first call samples twice")
	assert.InDelta(t, 75.0, first.MemoryPercent, 0.001)
	assert.InDelta(t, 16.0, first.MemoryTotalGB, 0.001)
	assert.InDelta(t, 12.0, first.MemoryUsedGB, 0.001)
	assert.InDelta(t, 4.0, first.MemoryAvailableGB, 0.001)

	second, err := m.GetSystemResources(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.0, second.CPUPercent, 0.001, "delta against the previous call")
	assert.Equal(t, 3, host.calls)
}

func TestGetSystemResources_Error(t *testing.T) {
	m := New(&scriptedSampler{err: errors.New("no proc")}, nil)
	_, err := m.GetSystemResources(context.Background())
	assert.Error(t, err)
}

func TestGetSystemResources_ContextCancelled(t *testing.T) {
	m := New(&scriptedSampler{cpu: [][2]float64{{1, 10}}}, nil)
	m.sampleGap = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.GetSystemResources(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCPUDeltaPercent(t *testing.T) {
	assert.Equal(t, 0.0, cpuDeltaPercent(cpuSample{1, 10}, cpuSample{1, 10}))
	assert.Equal(t, 50.0, cpuDeltaPercent(cpuSample{0, 0}, cpuSample{5, 10}))
	assert.Equal(t, 100.0, cpuDeltaPercent(cpuSample{0, 0}, cpuSample{20, 10}))
}

func statsWith(total, preTotal, sys, preSys uint64, percpu int, online uint32, usage, limit uint64) containerizer.ContainerStats {
	var s containerizer.ContainerStats
	s.CPUStats.CPUUsage.TotalUsage = total
	s.CPUStats.CPUUsage.PercpuUsage = make([]uint64, percpu)
	s.CPUStats.SystemCPUUsage = sys
	s.CPUStats.OnlineCPUs = online
	s.PreCPUStats.CPUUsage.TotalUsage = preTotal
	s.PreCPUStats.SystemCPUUsage = preSys
	s.MemoryStats.Usage = usage
	s.MemoryStats.Limit = limit
	return s
}

func TestContainerResourcesFromStats(t *testing.T) {
	tests := []struct {
		name    string
		stats   containerizer.ContainerStats
		cpu     float64
		usageMB float64
		limitMB float64
		memPct  float64
	}{
		{
			name:    "percpu length gives cpu count",
			stats:   statsWith(400, 300, 2000, 1000, 4, 8, 50*bytesPerMB, 200*bytesPerMB),
			cpu:     40,
			usageMB: 50,
			limitMB: 200,
			memPct:  25,
		},
		{
			name:    "online cpus when percpu missing",
			stats:   statsWith(400, 300, 2000, 1000, 0, 2, 0, 0),
			cpu:     20,
			usageMB: 0,
			limitMB: 0,
			memPct:  0,
		},
		{
			name:    "no previous sample",
			stats:   statsWith(400, 0, 2000, 0, 0, 0, 128*bytesPerMB, 128*bytesPerMB),
			cpu:     20,
			usageMB: 128,
			limitMB: 128,
			memPct:  100,
		},
		{
			name:    "idle container",
			stats:   statsWith(300, 300, 2000, 1000, 2, 2, bytesPerMB, 4*bytesPerMB),
			cpu:     0,
			usageMB: 1,
			limitMB: 4,
			memPct:  25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ContainerResourcesFromStats(tt.stats)
			assert.InDelta(t, tt.cpu, res.CPUPercent, 0.001)
			assert.InDelta(t, tt.usageMB, res.MemoryUsageMB, 0.001)
			assert.InDelta(t, tt.limitMB, res.MemoryLimitMB, 0.001)
			assert.InDelta(t, tt.memPct, res.MemoryPercent, 0.001)
		})
	}
}

func TestGetContainerResources(t *testing.T) {
	rt := containerizer.NewMemoryRuntime()
	info, err := rt.StartContainer(context.Background(), containerizer.ContainerSpec{Name: "a"})
	require.NoError(t, err)
	rt.SetStats("a", statsWith(400, 300, 2000, 1000, 1, 1, 64*bytesPerMB, 256*bytesPerMB))

	m := New(&scriptedSampler{}, rt)
	res, err := m.GetContainerResources(context.Background(), info.ID)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, res.CPUPercent, 0.001)
	assert.InDelta(t, 25.0, res.MemoryPercent, 0.001)

	_, err = m.GetContainerResources(context.Background(), "missing")
	assert.Error(t, err)
}
