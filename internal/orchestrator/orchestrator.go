package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"drowse/internal/api"
	"drowse/internal/config"
	"drowse/internal/containerizer"
	"drowse/internal/metrics"
	"drowse/internal/policy"
	"drowse/pkg/clock"
	"drowse/pkg/logging"
	"drowse/pkg/units"
)

const subsystem = "Orchestrator"

// ResourceMonitor samples host and container resources.
type ResourceMonitor interface {
	GetSystemResources(ctx context.Context) (api.SystemResources, error)
	GetContainerResources(ctx context.Context, containerID string) (api.ContainerResources, error)
}

// Config holds the dependencies of an Orchestrator.
type Config struct {
	// Services are the managed services keyed by name.
	Services map[string]config.ServiceConfig
	// Settings are the initial process-wide sleep settings. WakePriorities
	// should already include per-service policy priorities.
	Settings config.GlobalSleepSettings

	Runtime containerizer.ContainerRuntime
	// Monitor is optional; without it the pressure gate is skipped.
	Monitor ResourceMonitor
	// Clock defaults to the system clock.
	Clock clock.Clock
}

// Orchestrator is the service lifecycle controller.
type Orchestrator struct {
	runtime   containerizer.ContainerRuntime
	monitor   ResourceMonitor
	clock     clock.Clock
	predictor *policy.Predictor

	// services is fixed after New
	services map[string]*managedService
	names    []string

	wakeGroup singleflight.Group
	queue     *wakeQueue

	// sleepGate makes the max_sleeping_services check and the transition
	// into sleeping atomic across services
	sleepGate sync.Mutex

	mu          sync.RWMutex
	settings    config.GlobalSleepSettings
	lastSystem  *api.SystemResources
	initialized bool
	closed      bool

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// New creates an Orchestrator. Every service starts in the stopped state.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Runtime == nil {
		return nil, fmt.Errorf("container runtime is required")
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real{}
	}

	o := &Orchestrator{
		runtime:   cfg.Runtime,
		monitor:   cfg.Monitor,
		clock:     clk,
		predictor: policy.NewPredictor(),
		services:  make(map[string]*managedService, len(cfg.Services)),
		queue:     newWakeQueue(),
		settings:  cfg.Settings,
	}

	for name, sc := range cfg.Services {
		sc.Name = name
		if sc.Container == "" {
			sc.Container = name
		}
		var reservation int64
		if sc.SleepPolicy != nil && sc.SleepPolicy.MemoryReservation != "" {
			r, err := units.ParseMemorySize(sc.SleepPolicy.MemoryReservation)
			if err != nil {
				return nil, fmt.Errorf("service %s: memory_reservation: %w", name, err)
			}
			reservation = r
		}
		o.services[name] = newManagedService(sc, reservation)
		o.names = append(o.names, name)
	}
	sort.Strings(o.names)

	return o, nil
}

// Start checks the container runtime, launches the background loops and
// starts every auto_start service in the background.
func (o *Orchestrator) Start(ctx context.Context) error {
	if err := o.runtime.Ping(ctx); err != nil {
		return fmt.Errorf("container runtime unavailable: %w", err)
	}

	o.mu.Lock()
	if o.initialized {
		o.mu.Unlock()
		return nil
	}
	o.ctx, o.cancelFunc = context.WithCancel(context.WithoutCancel(ctx))
	o.initialized = true
	settings := o.settings
	o.mu.Unlock()

	wakes := int64(settings.MaxConcurrentWakes)
	if wakes < 1 {
		wakes = 1
	}
	slots := semaphore.NewWeighted(wakes)

	o.goLoop(func() { o.runWakeProcessor(slots) })
	o.goLoop(o.runScanner)
	o.goLoop(o.runResourceRefresh)
	o.goLoop(o.runPreWarm)

	autoStarted := 0
	for _, name := range o.names {
		svc := o.services[name]
		if !svc.cfg.AutoStart {
			continue
		}
		autoStarted++
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			if _, err := o.start(o.ctx, svc); err != nil {
				logging.Error(subsystem, err, "Failed to auto-start service %s", svc.cfg.Name)
			}
		}()
	}

	logging.Info(subsystem, "Lifecycle controller started (services: %d, auto-start: %d, max concurrent wakes: %d)",
		len(o.names), autoStarted, wakes)
	return nil
}

func (o *Orchestrator) goLoop(fn func()) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		fn()
	}()
}

// Shutdown cancels queued wake requests and background loops, then stops
// every service. It is safe to call more than once.
func (o *Orchestrator) Shutdown(ctx context.Context) {
	o.mu.Lock()
	if !o.initialized || o.closed {
		o.closed = true
		o.mu.Unlock()
		return
	}
	o.closed = true
	cancel := o.cancelFunc
	o.mu.Unlock()

	if n := o.queue.shutdown(); n > 0 {
		logging.Info(subsystem, "Cancelled %d queued wake requests", n)
	}
	cancel()
	o.wg.Wait()

	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
	for _, name := range o.names {
		svc := o.services[name]
		g.Go(func() error {
			if svc.currentState() == api.StateStopped {
				return nil
			}
			if _, err := o.stop(gctx, svc); err != nil {
				logging.Error(subsystem, err, "Failed to stop service %s during shutdown", svc.cfg.Name)
			}
			return nil
		})
	}
	_ = g.Wait()

	logging.Info(subsystem, "Lifecycle controller stopped")
}

// UpdateSettings replaces the process-wide sleep settings. Loop intervals
// change on their next tick; max_concurrent_wakes applies after a restart.
func (o *Orchestrator) UpdateSettings(settings config.GlobalSleepSettings) {
	o.mu.Lock()
	o.settings = settings
	o.mu.Unlock()
	logging.Info(subsystem, "Sleep settings updated (enabled: %t, check interval: %s, wake timeout: %s)",
		settings.Enabled, settings.SleepCheckInterval.Std(), settings.WakeTimeout.Std())
}

// Settings returns the current process-wide sleep settings.
func (o *Orchestrator) Settings() config.GlobalSleepSettings {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.settings
}

func (o *Orchestrator) ready() error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if !o.initialized || o.closed {
		return api.ErrNotInitialized
	}
	return nil
}

func (o *Orchestrator) lookup(name string) (*managedService, error) {
	if err := o.ready(); err != nil {
		return nil, err
	}
	svc, ok := o.services[name]
	if !ok {
		return nil, api.NewServiceNotFoundError(name)
	}
	return svc, nil
}

func (o *Orchestrator) priorityOf(name string) api.Priority {
	return policy.GetPriority(name, o.Settings().WakePriorities)
}

func (o *Orchestrator) lastSystemSample() *api.SystemResources {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.lastSystem == nil {
		return nil
	}
	s := *o.lastSystem
	return &s
}

func (o *Orchestrator) setLastSystemSample(s api.SystemResources) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastSystem = &s
}

// sampleSystem takes a fresh host sample and caches it. It returns nil when
// no monitor is configured or sampling fails.
func (o *Orchestrator) sampleSystem(ctx context.Context) *api.SystemResources {
	if o.monitor == nil {
		return nil
	}
	s, err := o.monitor.GetSystemResources(ctx)
	if err != nil {
		logging.Warn(subsystem, "Failed to sample system resources: %v", err)
		return nil
	}
	o.setLastSystemSample(s)
	return &s
}

func (o *Orchestrator) countState(state api.ServiceState) int {
	n := 0
	for _, svc := range o.services {
		if svc.currentState() == state {
			n++
		}
	}
	return n
}

// metricsFor exposes a service's performance record to tests.
func (o *Orchestrator) metricsFor(name string) *metrics.PerformanceMetrics {
	if svc, ok := o.services[name]; ok {
		return svc.metrics
	}
	return nil
}

func (o *Orchestrator) wakeTimeout() time.Duration {
	return o.Settings().WakeTimeout.Std()
}
