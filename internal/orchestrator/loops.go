package orchestrator

import (
	"context"
	"time"

	"drowse/internal/api"
	"drowse/internal/config"
	"drowse/internal/policy"
	"drowse/pkg/logging"
)

const scannerSubsystem = "Scanner"

// every runs fn after each interval until the controller context is done.
// The interval is re-read before every wait.
func (o *Orchestrator) every(interval func(config.GlobalSleepSettings) time.Duration, fn func(context.Context)) {
	for {
		d := interval(o.Settings())
		if d <= 0 {
			d = config.DefaultSleepCheckInterval
		}
		t := time.NewTimer(d)
		select {
		case <-o.ctx.Done():
			t.Stop()
			return
		case <-t.C:
			fn(o.ctx)
		}
	}
}

func (o *Orchestrator) runScanner() {
	o.every(func(s config.GlobalSleepSettings) time.Duration {
		return s.SleepCheckInterval.Std()
	}, func(ctx context.Context) {
		if !o.Settings().Enabled {
			return
		}
		o.scanOnce(ctx)
	})
}

// scanOnce samples host resources once and sleeps every idle running service
// the policy allows. It returns the names of the services put to sleep.
func (o *Orchestrator) scanOnce(ctx context.Context) []string {
	snap := o.sampleSystem(ctx)
	now := o.clock.Now()

	var slept []string
	for _, name := range o.names {
		if ctx.Err() != nil {
			break
		}
		svc := o.services[name]

		svc.mu.RLock()
		candidate := policy.IsSleepCandidate(policy.SleepInput{
			State:        svc.state,
			LastAccessed: svc.lastAccessed,
			Policy:       svc.cfg.SleepPolicy,
			Now:          now,
		})
		svc.mu.RUnlock()
		if !candidate {
			continue
		}

		st, err := o.sleep(ctx, svc, snap)
		if err != nil {
			logging.Error(scannerSubsystem, err, "Failed to auto-sleep service %s", name)
			continue
		}
		if st.State == api.StateSleeping {
			slept = append(slept, name)
		}
	}

	if len(slept) > 0 {
		logging.Info(scannerSubsystem, "Auto-sleep pass put %d service(s) to sleep: %v", len(slept), slept)
	}
	return slept
}

func (o *Orchestrator) runResourceRefresh() {
	o.every(func(s config.GlobalSleepSettings) time.Duration {
		return s.ResourceMonitoring.CheckInterval.Std()
	}, func(ctx context.Context) {
		if !o.Settings().ResourceMonitoring.Enabled {
			return
		}
		o.refreshResources(ctx)
	})
}

// refreshResources caches a host sample and updates the CPU and memory
// figures of every running service.
func (o *Orchestrator) refreshResources(ctx context.Context) {
	if o.monitor == nil {
		return
	}
	o.sampleSystem(ctx)

	for _, name := range o.names {
		svc := o.services[name]
		svc.mu.RLock()
		state, id := svc.state, svc.containerID
		svc.mu.RUnlock()
		if state != api.StateRunning || id == "" {
			continue
		}

		res, err := o.monitor.GetContainerResources(ctx, id)
		if err != nil {
			logging.Debug(subsystem, "Failed to sample resources of %s: %v", name, err)
			continue
		}
		svc.mu.Lock()
		svc.cpuPercent = res.CPUPercent
		svc.memoryMB = res.MemoryUsageMB
		svc.mu.Unlock()
	}
}

func (o *Orchestrator) runPreWarm() {
	o.every(func(s config.GlobalSleepSettings) time.Duration {
		if d := s.PerformanceOptimization.PreWarmInterval.Std(); d > 0 {
			return d
		}
		return s.SleepCheckInterval.Std()
	}, func(ctx context.Context) {
		o.preWarmOnce()
	})
}

// preWarmOnce queues wakes for sleeping services whose predicted probability
// reaches the pre-warm threshold. It returns the queued service names.
func (o *Orchestrator) preWarmOnce() []string {
	threshold := o.Settings().PerformanceOptimization.PreWarmThreshold

	var queued []string
	for _, c := range o.GetPreWarmCandidates() {
		if c.Probability < threshold {
			continue
		}
		if _, err := o.enqueueWake(c.Service, api.WakeSourcePrewarm); err != nil {
			logging.Warn(queueSubsystem, "Failed to queue pre-warm of %s: %v", c.Service, err)
			continue
		}
		queued = append(queued, c.Service)
	}
	if len(queued) > 0 {
		logging.Info(queueSubsystem, "Pre-warming %d service(s): %v", len(queued), queued)
	}
	return queued
}
