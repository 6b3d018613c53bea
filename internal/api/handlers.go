package api

import "context"

// LifecycleHandler is the contract the REST and MCP layers use to drive the
// lifecycle controller.
type LifecycleHandler interface {
	StartService(ctx context.Context, name string) (ServiceStatus, error)
	StopService(ctx context.Context, name string) (ServiceStatus, error)
	SleepService(ctx context.Context, name string) (ServiceStatus, error)
	WakeService(ctx context.Context, name string) (ServiceStatus, error)
	RecordAccess(name string) (ServiceStatus, error)

	GetStatus(name string) (ServiceStatus, error)
	ListServices() ([]ServiceStatus, error)

	RequestWake(name string, source WakeSource) (WakeTicket, error)
	PredictWakeNeed(name string) (WakePrediction, error)

	HealthCheck(ctx context.Context) HealthReport
}

// MetricsHandler exposes aggregated and per-service performance data.
type MetricsHandler interface {
	GetSystemMetrics() (SystemMetrics, error)
	GetPerformanceMetrics(name string) (PerformanceSummary, error)
	AllPerformanceMetrics() (map[string]PerformanceSummary, error)
}

// Controller combines both handler contracts.
type Controller interface {
	LifecycleHandler
	MetricsHandler
}
