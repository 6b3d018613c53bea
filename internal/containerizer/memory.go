package containerizer

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Operation names used by MemoryRuntime call counters and failure injection.
const (
	OpStart   = "start"
	OpStop    = "stop"
	OpPause   = "pause"
	OpUnpause = "unpause"
	OpUpdate  = "update"
	OpStats   = "stats"
	OpPing    = "ping"
)

// MemoryContainer is the state MemoryRuntime keeps per container.
type MemoryContainer struct {
	ID                string
	Running           bool
	Paused            bool
	MemoryLimit       int64
	MemoryReservation int64
	Stats             ContainerStats
}

// ResourceUpdate records one UpdateResources call.
type ResourceUpdate struct {
	ContainerID       string
	MemoryLimit       int64
	MemoryReservation int64
}

// MemoryRuntime is an in-memory ContainerRuntime.
type MemoryRuntime struct {
	mu         sync.Mutex
	containers map[string]*MemoryContainer // keyed by container name
	byID       map[string]string           // container ID -> name
	calls      map[string]int
	failures   map[string]error
	updates    []ResourceUpdate
	delay      time.Duration
	nextID     int
}

// NewMemoryRuntime creates an empty in-memory runtime.
func NewMemoryRuntime() *MemoryRuntime {
	return &MemoryRuntime{
		containers: make(map[string]*MemoryContainer),
		byID:       make(map[string]string),
		calls:      make(map[string]int),
		failures:   make(map[string]error),
	}
}

// FailOn makes every subsequent call of op return err. A nil err clears it.
func (m *MemoryRuntime) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

// SetDelay makes every call block for d or until its context is done.
func (m *MemoryRuntime) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// Calls returns how many times op has been invoked.
func (m *MemoryRuntime) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// Updates returns every UpdateResources call in order.
func (m *MemoryRuntime) Updates() []ResourceUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ResourceUpdate(nil), m.updates...)
}

// Container returns a copy of the named container's state.
func (m *MemoryRuntime) Container(name string) (MemoryContainer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.containers[name]
	if !ok {
		return MemoryContainer{}, false
	}
	return *c, true
}

// SetStats sets the sample returned by Stats for the named container.
func (m *MemoryRuntime) SetStats(name string, stats ContainerStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.ensure(name)
	c.Stats = stats
}

func (m *MemoryRuntime) ensure(name string) *MemoryContainer {
	c, ok := m.containers[name]
	if !ok {
		m.nextID++
		c = &MemoryContainer{ID: fmt.Sprintf("mem-%04d-%s", m.nextID, name)}
		m.containers[name] = c
		m.byID[c.ID] = name
	}
	return c
}

// begin counts the call, applies the configured delay and returns any injected failure.
func (m *MemoryRuntime) begin(ctx context.Context, op string) error {
	m.mu.Lock()
	m.calls[op]++
	delay := m.delay
	failure := m.failures[op]
	m.mu.Unlock()

	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return failure
}

func (m *MemoryRuntime) lookup(containerID string) (*MemoryContainer, error) {
	name, ok := m.byID[containerID]
	if !ok {
		return nil, fmt.Errorf("no such container: %s", containerID)
	}
	return m.containers[name], nil
}

// Ping implements ContainerRuntime.
func (m *MemoryRuntime) Ping(ctx context.Context) error {
	return m.begin(ctx, OpPing)
}

// StartContainer implements ContainerRuntime.
func (m *MemoryRuntime) StartContainer(ctx context.Context, spec ContainerSpec) (ContainerInfo, error) {
	if err := m.begin(ctx, OpStart); err != nil {
		return ContainerInfo{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.ensure(spec.Name)
	c.Running = true
	c.Paused = false
	return ContainerInfo{ID: c.ID, Port: spec.Port}, nil
}

// StopContainer implements ContainerRuntime.
func (m *MemoryRuntime) StopContainer(ctx context.Context, containerID string) error {
	if err := m.begin(ctx, OpStop); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.lookup(containerID)
	if err != nil {
		return err
	}
	c.Running = false
	c.Paused = false
	return nil
}

// PauseContainer implements ContainerRuntime.
func (m *MemoryRuntime) PauseContainer(ctx context.Context, containerID string) error {
	if err := m.begin(ctx, OpPause); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.lookup(containerID)
	if err != nil {
		return err
	}
	if !c.Running || c.Paused {
		return fmt.Errorf("container %s is not running", containerID)
	}
	c.Paused = true
	return nil
}

// UnpauseContainer implements ContainerRuntime.
func (m *MemoryRuntime) UnpauseContainer(ctx context.Context, containerID string) error {
	if err := m.begin(ctx, OpUnpause); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.lookup(containerID)
	if err != nil {
		return err
	}
	if !c.Paused {
		return fmt.Errorf("container %s is not paused", containerID)
	}
	c.Paused = false
	return nil
}

// UpdateResources implements ContainerRuntime.
func (m *MemoryRuntime) UpdateResources(ctx context.Context, containerID string, memoryLimit, memoryReservation int64) error {
	if err := m.begin(ctx, OpUpdate); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.lookup(containerID)
	if err != nil {
		return err
	}
	c.MemoryLimit = memoryLimit
	c.MemoryReservation = memoryReservation
	m.updates = append(m.updates, ResourceUpdate{ContainerID: containerID, MemoryLimit: memoryLimit, MemoryReservation: memoryReservation})
	return nil
}

// Stats implements ContainerRuntime.
func (m *MemoryRuntime) Stats(ctx context.Context, containerID string) (ContainerStats, error) {
	if err := m.begin(ctx, OpStats); err != nil {
		return ContainerStats{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.lookup(containerID)
	if err != nil {
		return ContainerStats{}, err
	}
	return c.Stats, nil
}
