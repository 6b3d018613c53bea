package api

import "time"

// ServiceStatus is a point-in-time view of one managed service.
type ServiceStatus struct {
	Name        string       `json:"name" yaml:"name"`
	State       ServiceState `json:"state" yaml:"state"`
	ContainerID string       `json:"container_id,omitempty" yaml:"container_id,omitempty"`
	Port        int          `json:"port,omitempty" yaml:"port,omitempty"`

	LastAccessed   *time.Time `json:"last_accessed,omitempty" yaml:"last_accessed,omitempty"`
	SleepStartTime *time.Time `json:"sleep_start_time,omitempty" yaml:"sleep_start_time,omitempty"`
	WakeCount      int64      `json:"wake_count" yaml:"wake_count"`
	// TotalSleepTime is the accumulated duration of completed sleep cycles, in seconds.
	TotalSleepTime float64 `json:"total_sleep_time" yaml:"total_sleep_time"`
	ErrorMessage   string  `json:"error_message,omitempty" yaml:"error_message,omitempty"`

	CPUUsage         float64 `json:"cpu_usage" yaml:"cpu_usage"`
	MemoryUsage      float64 `json:"memory_usage" yaml:"memory_usage"`
	WakeTimeMs       float64 `json:"wake_time_ms" yaml:"wake_time_ms"`
	SleepEfficiency  float64 `json:"sleep_efficiency" yaml:"sleep_efficiency"`
	StateTransitions int64   `json:"state_transitions" yaml:"state_transitions"`
	UptimeSeconds    float64 `json:"uptime_seconds" yaml:"uptime_seconds"`

	SleepPolicyEnabled bool     `json:"sleep_policy_enabled" yaml:"sleep_policy_enabled"`
	Priority           Priority `json:"priority" yaml:"priority"`
}

// SystemResources is a host-wide resource sample.
type SystemResources struct {
	CPUPercent        float64   `json:"cpu_percent" yaml:"cpu_percent"`
	MemoryPercent     float64   `json:"memory_percent" yaml:"memory_percent"`
	MemoryAvailableGB float64   `json:"memory_available_gb" yaml:"memory_available_gb"`
	MemoryUsedGB      float64   `json:"memory_used_gb" yaml:"memory_used_gb"`
	MemoryTotalGB     float64   `json:"memory_total_gb" yaml:"memory_total_gb"`
	SampledAt         time.Time `json:"sampled_at" yaml:"sampled_at"`
}

// ContainerResources is a resource sample for a single container.
type ContainerResources struct {
	CPUPercent    float64 `json:"cpu_percent" yaml:"cpu_percent"`
	MemoryUsageMB float64 `json:"memory_usage_mb" yaml:"memory_usage_mb"`
	MemoryLimitMB float64 `json:"memory_limit_mb" yaml:"memory_limit_mb"`
	MemoryPercent float64 `json:"memory_percent" yaml:"memory_percent"`
}

// PressureLevel classifies host memory pressure against the configured thresholds.
type PressureLevel string

const (
	PressureNone     PressureLevel = "none"
	PressureLow      PressureLevel = "low"
	PressureModerate PressureLevel = "moderate"
	PressureHigh     PressureLevel = "high"
)

// SystemMetrics aggregates the state of every managed service.
type SystemMetrics struct {
	TotalServices    int                  `json:"total_services" yaml:"total_services"`
	StateCounts      map[ServiceState]int `json:"state_counts" yaml:"state_counts"`
	RunningServices  int                  `json:"running_services" yaml:"running_services"`
	SleepingServices int                  `json:"sleeping_services" yaml:"sleeping_services"`
	SleepRatio       float64              `json:"sleep_ratio" yaml:"sleep_ratio"`
	RunningRatio     float64              `json:"running_ratio" yaml:"running_ratio"`
	TotalCPUPercent  float64              `json:"total_cpu_percent" yaml:"total_cpu_percent"`
	TotalMemoryMB    float64              `json:"total_memory_mb" yaml:"total_memory_mb"`
	PendingWakes     int                  `json:"pending_wakes" yaml:"pending_wakes"`
	Pressure         PressureLevel        `json:"pressure" yaml:"pressure"`
	System           *SystemResources     `json:"system,omitempty" yaml:"system,omitempty"`
}

// HealthState is the overall controller health.
type HealthState string

const (
	HealthHealthy      HealthState = "healthy"
	HealthUnhealthy    HealthState = "unhealthy"
	HealthInitializing HealthState = "initializing"
)

// HealthReport is returned by the controller health check.
type HealthReport struct {
	Status          HealthState `json:"status" yaml:"status"`
	ServicesRunning int         `json:"services_running" yaml:"services_running"`
	ServicesTotal   int         `json:"services_total" yaml:"services_total"`
	Error           string      `json:"error,omitempty" yaml:"error,omitempty"`
}

// DurationStats summarizes a window of duration samples in milliseconds.
type DurationStats struct {
	Count int     `json:"count" yaml:"count"`
	Avg   float64 `json:"avg_ms" yaml:"avg_ms"`
	Min   float64 `json:"min_ms" yaml:"min_ms"`
	Max   float64 `json:"max_ms" yaml:"max_ms"`
	P50   float64 `json:"p50_ms" yaml:"p50_ms"`
	P95   float64 `json:"p95_ms" yaml:"p95_ms"`
	P99   float64 `json:"p99_ms" yaml:"p99_ms"`
}

// PerformanceSummary is the per-service metrics report.
type PerformanceSummary struct {
	Service          string        `json:"service" yaml:"service"`
	WakeTimes        DurationStats `json:"wake_times" yaml:"wake_times"`
	SleepTimes       DurationStats `json:"sleep_times" yaml:"sleep_times"`
	TotalRequests    int64         `json:"total_requests" yaml:"total_requests"`
	ErrorCount       int64         `json:"error_count" yaml:"error_count"`
	LastError        string        `json:"last_error,omitempty" yaml:"last_error,omitempty"`
	TotalSleepTime   float64       `json:"total_sleep_seconds" yaml:"total_sleep_seconds"`
	TotalWakeTime    float64       `json:"total_wake_seconds" yaml:"total_wake_seconds"`
	StateTransitions int64         `json:"state_transitions" yaml:"state_transitions"`
	UptimeSeconds    float64       `json:"uptime_seconds" yaml:"uptime_seconds"`
	SleepEfficiency  float64       `json:"sleep_efficiency" yaml:"sleep_efficiency"`
}

// WakeSource records who asked for a queued wake.
type WakeSource string

const (
	WakeSourceAPI     WakeSource = "api"
	WakeSourcePrewarm WakeSource = "prewarm"
)

// WakeTicket describes a queued wake request.
type WakeTicket struct {
	ID         string     `json:"request_id" yaml:"request_id"`
	Service    string     `json:"service" yaml:"service"`
	Priority   Priority   `json:"priority" yaml:"priority"`
	Source     WakeSource `json:"source" yaml:"source"`
	EnqueuedAt time.Time  `json:"enqueued_at" yaml:"enqueued_at"`
	Deadline   time.Time  `json:"deadline" yaml:"deadline"`
}

// WakePrediction is the estimated probability that a service will be needed soon.
type WakePrediction struct {
	Service     string  `json:"service" yaml:"service"`
	Probability float64 `json:"probability" yaml:"probability"`
}

// WakeRequestAccepted is the response to an asynchronous wake request.
type WakeRequestAccepted struct {
	Status string `json:"status" yaml:"status"`
	WakeTicket `yaml:",inline"`
}

// ErrorResponse is the body of every REST error.
type ErrorResponse struct {
	Error string `json:"error" yaml:"error"`
	Code  string `json:"code" yaml:"code"`
}
