package orchestrator

import (
	"context"

	"drowse/internal/api"
	"drowse/internal/policy"
)

// GetStatus returns the status of one service.
func (o *Orchestrator) GetStatus(name string) (api.ServiceStatus, error) {
	svc, err := o.lookup(name)
	if err != nil {
		return api.ServiceStatus{}, err
	}
	return o.statusOf(svc), nil
}

// ListServices returns the status of every service, sorted by name.
func (o *Orchestrator) ListServices() ([]api.ServiceStatus, error) {
	if err := o.ready(); err != nil {
		return nil, err
	}
	out := make([]api.ServiceStatus, 0, len(o.names))
	for _, name := range o.names {
		out = append(out, o.statusOf(o.services[name]))
	}
	return out, nil
}

// GetSystemMetrics aggregates service states, resource usage, the wake
// queue depth and the last host sample.
func (o *Orchestrator) GetSystemMetrics() (api.SystemMetrics, error) {
	services, err := o.ListServices()
	if err != nil {
		return api.SystemMetrics{}, err
	}

	m := api.SystemMetrics{
		TotalServices: len(services),
		StateCounts:   make(map[api.ServiceState]int, len(api.AllStates)),
		PendingWakes:  o.queue.len(),
		Pressure:      api.PressureNone,
	}
	for _, st := range api.AllStates {
		m.StateCounts[st] = 0
	}
	for _, s := range services {
		m.StateCounts[s.State]++
		m.TotalCPUPercent += s.CPUUsage
		m.TotalMemoryMB += s.MemoryUsage
	}
	m.RunningServices = m.StateCounts[api.StateRunning]
	m.SleepingServices = m.StateCounts[api.StateSleeping]
	if m.TotalServices > 0 {
		m.SleepRatio = float64(m.SleepingServices) / float64(m.TotalServices)
		m.RunningRatio = float64(m.RunningServices) / float64(m.TotalServices)
	}

	if sys := o.lastSystemSample(); sys != nil {
		m.System = sys
		m.Pressure = policy.PressureLevel(*sys, o.Settings().ResourceThresholds)
	}
	return m, nil
}

// GetPerformanceMetrics returns the performance summary of one service.
func (o *Orchestrator) GetPerformanceMetrics(name string) (api.PerformanceSummary, error) {
	svc, err := o.lookup(name)
	if err != nil {
		return api.PerformanceSummary{}, err
	}
	return svc.metrics.Summary(o.clock.Now()), nil
}

// AllPerformanceMetrics returns the performance summary of every service.
func (o *Orchestrator) AllPerformanceMetrics() (map[string]api.PerformanceSummary, error) {
	if err := o.ready(); err != nil {
		return nil, err
	}
	now := o.clock.Now()
	out := make(map[string]api.PerformanceSummary, len(o.names))
	for _, name := range o.names {
		out[name] = o.services[name].metrics.Summary(now)
	}
	return out, nil
}

// HealthCheck reports whether the controller is up and the container runtime
// answers.
func (o *Orchestrator) HealthCheck(ctx context.Context) api.HealthReport {
	if err := o.ready(); err != nil {
		return api.HealthReport{Status: api.HealthInitializing, ServicesTotal: len(o.names)}
	}

	report := api.HealthReport{
		Status:          api.HealthHealthy,
		ServicesRunning: o.countState(api.StateRunning),
		ServicesTotal:   len(o.names),
	}
	if err := o.runtime.Ping(ctx); err != nil {
		report.Status = api.HealthUnhealthy
		report.Error = err.Error()
	}
	return report
}

// PredictWakeNeed estimates how likely a service is to be needed soon.
// Unknown services get the neutral probability.
func (o *Orchestrator) PredictWakeNeed(name string) (api.WakePrediction, error) {
	if err := o.ready(); err != nil {
		return api.WakePrediction{}, err
	}
	svc, ok := o.services[name]
	if !ok {
		return api.WakePrediction{Service: name, Probability: policy.NeutralProbability}, nil
	}
	return api.WakePrediction{Service: name, Probability: o.predictor.Predict(svc.metrics, o.clock.Now())}, nil
}

// GetPreWarmCandidates returns a prediction for every sleeping service, or
// nothing when wake prediction is disabled.
func (o *Orchestrator) GetPreWarmCandidates() []api.WakePrediction {
	if !o.Settings().PerformanceOptimization.WakePredictionEnabled {
		return nil
	}
	now := o.clock.Now()
	var out []api.WakePrediction
	for _, name := range o.names {
		svc := o.services[name]
		if svc.currentState() != api.StateSleeping {
			continue
		}
		out = append(out, api.WakePrediction{Service: name, Probability: o.predictor.Predict(svc.metrics, now)})
	}
	return out
}

var _ api.Controller = (*Orchestrator)(nil)
