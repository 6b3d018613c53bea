// Package clock abstracts the time source so that idle timeouts, sleep
// durations and wake deadlines can be driven deterministically in tests.
package clock

import (
	"sync"
	"time"
)

// Clock is the time source used by the lifecycle controller.
type Clock interface {
	// Now returns the current time according to this clock
	Now() time.Time
}

// Real implements Clock using the actual system time.
type Real struct{}

// Now returns the current time.
func (Real) Now() time.Time {
	return time.Now()
}

// Mock implements Clock with a controllable time value.
type Mock struct {
	mu      sync.RWMutex
	current time.Time
}

// NewMock creates a mock clock initialized to the given time.
// If t is zero, the clock is initialized to the current time.
func NewMock(t time.Time) *Mock {
	if t.IsZero() {
		t = time.Now()
	}
	return &Mock{current: t}
}

// Now returns the current time according to this mock clock.
func (m *Mock) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Advance moves the clock forward by the given duration.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.current.Add(d)
}

// Set sets the clock to a specific time.
func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = t
}

// Since returns the time elapsed since t according to c.
func Since(c Clock, t time.Time) time.Duration {
	return c.Now().Sub(t)
}
