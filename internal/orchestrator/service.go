package orchestrator

import (
	"sync"
	"time"

	"drowse/internal/api"
	"drowse/internal/config"
	"drowse/internal/metrics"
)

// managedService is the controller-owned record of one service.
type managedService struct {
	cfg         config.ServiceConfig
	reservation int64 // bytes applied while sleeping, 0 for none

	// op serializes lifecycle operations on this service
	op sync.Mutex

	// mu guards the fields below for readers that do not hold op
	mu                 sync.RWMutex
	state              api.ServiceState
	containerID        string
	port               int
	lastAccessed       time.Time
	sleepStart         time.Time
	wakeCount          int64
	totalSleep         time.Duration
	errorMessage       string
	cpuPercent         float64
	memoryMB           float64
	reservationApplied bool

	metrics *metrics.PerformanceMetrics
}

func newManagedService(cfg config.ServiceConfig, reservation int64) *managedService {
	return &managedService{
		cfg:         cfg,
		reservation: reservation,
		state:       api.StateStopped,
		port:        cfg.Port,
		metrics:     metrics.NewPerformanceMetrics(cfg.Name),
	}
}

func (s *managedService) currentState() api.ServiceState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *managedService) sleepPolicyEnabled() bool {
	return s.cfg.SleepPolicy != nil && s.cfg.SleepPolicy.Enabled
}

// transitionLocked moves the service to state and records the edge.
// The caller holds s.mu.
func (s *managedService) transitionLocked(to api.ServiceState, at time.Time) {
	from := s.state
	if from == to {
		return
	}
	s.state = to
	s.metrics.RecordTransition(from, to, at)
}

func (s *managedService) transition(to api.ServiceState, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitionLocked(to, at)
}

// status returns a copy of the service's public status.
func (s *managedService) status(now time.Time, priority api.Priority) api.ServiceStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := api.ServiceStatus{
		Name:               s.cfg.Name,
		State:              s.state,
		ContainerID:        s.containerID,
		Port:               s.port,
		WakeCount:          s.wakeCount,
		TotalSleepTime:     s.totalSleep.Seconds(),
		ErrorMessage:       s.errorMessage,
		CPUUsage:           s.cpuPercent,
		MemoryUsage:        s.memoryMB,
		SleepEfficiency:    s.metrics.SleepEfficiency(now),
		StateTransitions:   s.metrics.TransitionCount(),
		UptimeSeconds:      s.metrics.Uptime(now).Seconds(),
		SleepPolicyEnabled: s.sleepPolicyEnabled(),
		Priority:           priority,
	}
	if !s.lastAccessed.IsZero() {
		t := s.lastAccessed
		st.LastAccessed = &t
	}
	if s.state == api.StateSleeping && !s.sleepStart.IsZero() {
		t := s.sleepStart
		st.SleepStartTime = &t
	}
	if last, ok := s.metrics.LastWake(); ok {
		st.WakeTimeMs = float64(last.Duration) / float64(time.Millisecond)
	}
	return st
}
