package metrics

import (
	"math"
	"sort"
	"sync"
	"time"

	"drowse/internal/api"
)

const (
	// DefaultWindowSize bounds the wake and sleep duration windows.
	DefaultWindowSize = 100
	// DefaultTransitionLogSize bounds the transition log.
	DefaultTransitionLogSize = 200
)

// Sample is one recorded operation duration.
type Sample struct {
	Duration time.Duration
	At       time.Time
}

// Transition is one state change.
type Transition struct {
	From api.ServiceState `json:"from"`
	To   api.ServiceState `json:"to"`
	At   time.Time        `json:"at"`
}

// PerformanceMetrics tracks one service.
type PerformanceMetrics struct {
	mu sync.RWMutex

	service    string
	windowSize int
	logSize    int

	wakeTimes  []Sample
	sleepTimes []Sample

	totalRequests int64
	errorCount    int64
	lastError     string
	lastErrorAt   time.Time

	totalSleep time.Duration // time spent asleep, completed cycles only
	totalWake  time.Duration // time spent in wake operations

	transitions     []Transition
	transitionCount int64

	runningSince time.Time
	uptime       time.Duration
}

// NewPerformanceMetrics creates an empty record with the default bounds.
func NewPerformanceMetrics(service string) *PerformanceMetrics {
	return &PerformanceMetrics{
		service:    service,
		windowSize: DefaultWindowSize,
		logSize:    DefaultTransitionLogSize,
	}
}

func appendBounded(s []Sample, v Sample, max int) []Sample {
	s = append(s, v)
	if len(s) > max {
		s = append(s[:0:0], s[len(s)-max:]...)
	}
	return s
}

// RecordWake records the duration of a completed wake operation.
func (m *PerformanceMetrics) RecordWake(d time.Duration, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wakeTimes = appendBounded(m.wakeTimes, Sample{Duration: d, At: at}, m.windowSize)
	m.totalWake += d
}

// RecordSleep records the duration of a completed sleep operation.
func (m *PerformanceMetrics) RecordSleep(d time.Duration, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sleepTimes = appendBounded(m.sleepTimes, Sample{Duration: d, At: at}, m.windowSize)
}

// AddSleepDuration accumulates the length of a completed sleep cycle.
func (m *PerformanceMetrics) AddSleepDuration(d time.Duration) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalSleep += d
}

// RecordRequest counts one request served by the service.
func (m *PerformanceMetrics) RecordRequest() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalRequests++
}

// RecordError counts a failed lifecycle operation.
func (m *PerformanceMetrics) RecordError(err error, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount++
	if err != nil {
		m.lastError = err.Error()
	}
	m.lastErrorAt = at
}

// RecordTransition logs a state change and keeps running-time accounting.
func (m *PerformanceMetrics) RecordTransition(from, to api.ServiceState, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.transitions = append(m.transitions, Transition{From: from, To: to, At: at})
	if len(m.transitions) > m.logSize {
		m.transitions = append(m.transitions[:0:0], m.transitions[len(m.transitions)-m.logSize:]...)
	}
	m.transitionCount++

	if from == api.StateRunning && !m.runningSince.IsZero() {
		m.uptime += at.Sub(m.runningSince)
		m.runningSince = time.Time{}
	}
	if to == api.StateRunning {
		m.runningSince = at
	}
}

// TotalRequests returns the request counter.
func (m *PerformanceMetrics) TotalRequests() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalRequests
}

// TotalSleep returns the accumulated time asleep.
func (m *PerformanceMetrics) TotalSleep() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalSleep
}

// TransitionCount returns the number of transitions ever recorded.
func (m *PerformanceMetrics) TransitionCount() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.transitionCount
}

// Transitions returns a copy of the bounded transition log.
func (m *PerformanceMetrics) Transitions() []Transition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Transition(nil), m.transitions...)
}

// LastWake returns the duration and time of the most recent wake.
func (m *PerformanceMetrics) LastWake() (Sample, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.wakeTimes) == 0 {
		return Sample{}, false
	}
	return m.wakeTimes[len(m.wakeTimes)-1], true
}

// WakesSince counts windowed wakes recorded at or after t.
func (m *PerformanceMetrics) WakesSince(t time.Time) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, s := range m.wakeTimes {
		if !s.At.Before(t) {
			n++
		}
	}
	return n
}

// Uptime returns the accumulated running time including the current stint.
func (m *PerformanceMetrics) Uptime(now time.Time) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.uptimeLocked(now)
}

func (m *PerformanceMetrics) uptimeLocked(now time.Time) time.Duration {
	u := m.uptime
	if !m.runningSince.IsZero() && now.After(m.runningSince) {
		u += now.Sub(m.runningSince)
	}
	return u
}

// SleepEfficiency is the percentage of observed lifetime spent asleep,
// counting only completed sleep cycles and running time.
func (m *PerformanceMetrics) SleepEfficiency(now time.Time) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sleepEfficiencyLocked(now)
}

func (m *PerformanceMetrics) sleepEfficiencyLocked(now time.Time) float64 {
	up := m.uptimeLocked(now)
	total := m.totalSleep + up
	if total <= 0 {
		return 0
	}
	return float64(m.totalSleep) / float64(total) * 100
}

// Summary returns a point-in-time report.
func (m *PerformanceMetrics) Summary(now time.Time) api.PerformanceSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return api.PerformanceSummary{
		Service:          m.service,
		WakeTimes:        Stats(m.wakeTimes),
		SleepTimes:       Stats(m.sleepTimes),
		TotalRequests:    m.totalRequests,
		ErrorCount:       m.errorCount,
		LastError:        m.lastError,
		TotalSleepTime:   m.totalSleep.Seconds(),
		TotalWakeTime:    m.totalWake.Seconds(),
		StateTransitions: m.transitionCount,
		UptimeSeconds:    m.uptimeLocked(now).Seconds(),
		SleepEfficiency:  m.sleepEfficiencyLocked(now),
	}
}

// Stats summarizes samples in milliseconds. Percentiles use the nearest-rank method.
func Stats(samples []Sample) api.DurationStats {
	if len(samples) == 0 {
		return api.DurationStats{}
	}

	ms := make([]float64, len(samples))
	var sum float64
	for i, s := range samples {
		ms[i] = float64(s.Duration) / float64(time.Millisecond)
		sum += ms[i]
	}
	sort.Float64s(ms)

	return api.DurationStats{
		Count: len(ms),
		Avg:   sum / float64(len(ms)),
		Min:   ms[0],
		Max:   ms[len(ms)-1],
		P50:   percentile(ms, 50),
		P95:   percentile(ms, 95),
		P99:   percentile(ms, 99),
	}
}

func percentile(sorted []float64, p float64) float64 {
	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}
