package monitor

import (
	"context"
	"sync"
	"time"

	"drowse/internal/api"
	"drowse/internal/containerizer"
)

const (
	bytesPerGB = 1024 * 1024 * 1024
	bytesPerMB = 1024 * 1024

	defaultSampleGap = 100 * time.Millisecond
)

// Monitor samples host and container resources.
type Monitor struct {
	host    HostSampler
	runtime containerizer.ContainerRuntime

	mu        sync.Mutex
	prev      *cpuSample
	sampleGap time.Duration
}

type cpuSample struct {
	busy  float64
	total float64
}

// New creates a Monitor. runtime may be nil when only host figures are needed.
func New(host HostSampler, runtime containerizer.ContainerRuntime) *Monitor {
	return &Monitor{host: host, runtime: runtime, sampleGap: defaultSampleGap}
}

// GetSystemResources returns host CPU and memory utilisation.
func (m *Monitor) GetSystemResources(ctx context.Context) (api.SystemResources, error) {
	cpu, err := m.cpuPercent(ctx)
	if err != nil {
		return api.SystemResources{}, err
	}

	total, available, err := m.host.Memory()
	if err != nil {
		return api.SystemResources{}, err
	}
	if available > total {
		available = total
	}
	used := total - available

	res := api.SystemResources{
		CPUPercent:        cpu,
		MemoryTotalGB:     float64(total) / bytesPerGB,
		MemoryAvailableGB: float64(available) / bytesPerGB,
		MemoryUsedGB:      float64(used) / bytesPerGB,
		SampledAt:         time.Now(),
	}
	if total > 0 {
		res.MemoryPercent = float64(used) / float64(total) * 100
	}
	return res, nil
}

func (m *Monitor) cpuPercent(ctx context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	busy, total, err := m.host.CPUTimes()
	if err != nil {
		return 0, err
	}
	cur := &cpuSample{busy: busy, total: total}

	if m.prev == nil || cur.total-m.prev.total <= 0 {
		m.prev = cur
		t := time.NewTimer(m.sampleGap)
		select {
		case <-ctx.Done():
			t.Stop()
			return 0, ctx.Err()
		case <-t.C:
		}
		if busy, total, err = m.host.CPUTimes(); err != nil {
			return 0, err
		}
		cur = &cpuSample{busy: busy, total: total}
	}

	pct := cpuDeltaPercent(*m.prev, *cur)
	m.prev = cur
	return pct, nil
}

func cpuDeltaPercent(prev, cur cpuSample) float64 {
	dTotal := cur.total - prev.total
	if dTotal <= 0 {
		return 0
	}
	pct := (cur.busy - prev.busy) / dTotal * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// GetContainerResources returns CPU and memory usage of a single container.
func (m *Monitor) GetContainerResources(ctx context.Context, containerID string) (api.ContainerResources, error) {
	stats, err := m.runtime.Stats(ctx, containerID)
	if err != nil {
		return api.ContainerResources{}, err
	}
	return ContainerResourcesFromStats(stats), nil
}

// ContainerResourcesFromStats converts raw cgroup counters into percentages
// and megabytes. CPU is (Δcontainer / Δsystem) × CPUs × 100, where the CPU
// count is the length of percpu_usage, falling back to online_cpus and then 1.
func ContainerResourcesFromStats(s containerizer.ContainerStats) api.ContainerResources {
	var res api.ContainerResources

	cur, pre := s.CPUStats, s.PreCPUStats
	if cur.CPUUsage.TotalUsage > pre.CPUUsage.TotalUsage && cur.SystemCPUUsage > pre.SystemCPUUsage {
		cpuDelta := float64(cur.CPUUsage.TotalUsage - pre.CPUUsage.TotalUsage)
		sysDelta := float64(cur.SystemCPUUsage - pre.SystemCPUUsage)
		numCPUs := float64(len(cur.CPUUsage.PercpuUsage))
		if numCPUs == 0 {
			numCPUs = float64(cur.OnlineCPUs)
		}
		if numCPUs == 0 {
			numCPUs = 1
		}
		res.CPUPercent = cpuDelta / sysDelta * numCPUs * 100
	}

	res.MemoryUsageMB = float64(s.MemoryStats.Usage) / bytesPerMB
	res.MemoryLimitMB = float64(s.MemoryStats.Limit) / bytesPerMB
	if s.MemoryStats.Limit > 0 {
		res.MemoryPercent = float64(s.MemoryStats.Usage) / float64(s.MemoryStats.Limit) * 100
	}
	return res
}
