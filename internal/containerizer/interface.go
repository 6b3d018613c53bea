package containerizer

import (
	"context"
)

// ContainerRuntime defines the container operations the lifecycle controller needs.
type ContainerRuntime interface {
	// Ping checks that the runtime is reachable
	Ping(ctx context.Context) error

	// StartContainer materializes the container described by spec (creating it
	// from its image if it does not exist yet) and makes sure it is running
	StartContainer(ctx context.Context, spec ContainerSpec) (ContainerInfo, error)

	// StopContainer stops a container
	StopContainer(ctx context.Context, containerID string) error

	// PauseContainer freezes all processes of a running container
	PauseContainer(ctx context.Context, containerID string) error

	// UnpauseContainer resumes a paused container
	UnpauseContainer(ctx context.Context, containerID string) error

	// UpdateResources sets the memory limit and reservation in bytes; 0 means unbounded
	UpdateResources(ctx context.Context, containerID string, memoryLimit, memoryReservation int64) error

	// Stats returns a single raw resource sample for a container
	Stats(ctx context.Context, containerID string) (ContainerStats, error)
}

// ContainerSpec identifies the container backing a service.
type ContainerSpec struct {
	Name  string            // Container name or ID
	Image string            // Image used when the container must be created
	Env   map[string]string // Environment used when the container must be created
	Port  int               // Container port the MCP server listens on
}

// ContainerInfo is the result of StartContainer.
type ContainerInfo struct {
	ID   string
	Port int // Host port, or the container port when not published
}

// ContainerStats carries the cgroup counters of one stats sample together
// with the counters of the previous sample taken by the runtime.
type ContainerStats struct {
	CPUStats    CPUStats    `json:"cpu_stats"`
	PreCPUStats CPUStats    `json:"precpu_stats"`
	MemoryStats MemoryStats `json:"memory_stats"`
}

// CPUStats holds cumulative CPU accounting counters in nanoseconds.
type CPUStats struct {
	CPUUsage struct {
		TotalUsage  uint64   `json:"total_usage"`
		PercpuUsage []uint64 `json:"percpu_usage,omitempty"`
	} `json:"cpu_usage"`
	SystemCPUUsage uint64 `json:"system_cpu_usage"`
	OnlineCPUs     uint32 `json:"online_cpus,omitempty"`
}

// MemoryStats holds memory usage and limit in bytes.
type MemoryStats struct {
	Usage uint64 `json:"usage"`
	Limit uint64 `json:"limit"`
}
