package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"drowse/internal/api"
	"drowse/internal/containerizer"
	"drowse/internal/policy"
	"drowse/pkg/logging"
	"drowse/pkg/units"
)

// StartService materializes the service's container and marks it running.
// A sleeping service is woken instead.
func (o *Orchestrator) StartService(ctx context.Context, name string) (api.ServiceStatus, error) {
	svc, err := o.lookup(name)
	if err != nil {
		return api.ServiceStatus{}, err
	}
	return o.start(ctx, svc)
}

// StopService stops the service's container.
func (o *Orchestrator) StopService(ctx context.Context, name string) (api.ServiceStatus, error) {
	svc, err := o.lookup(name)
	if err != nil {
		return api.ServiceStatus{}, err
	}
	return o.stop(ctx, svc)
}

// SleepService pauses a running service if its sleep policy and the current
// resource pressure allow it. A refused sleep returns the unchanged status.
func (o *Orchestrator) SleepService(ctx context.Context, name string) (api.ServiceStatus, error) {
	svc, err := o.lookup(name)
	if err != nil {
		return api.ServiceStatus{}, err
	}
	return o.sleep(ctx, svc, nil)
}

// WakeService resumes a sleeping service. Concurrent calls for the same
// service share one wake.
func (o *Orchestrator) WakeService(ctx context.Context, name string) (api.ServiceStatus, error) {
	svc, err := o.lookup(name)
	if err != nil {
		return api.ServiceStatus{}, err
	}

	return o.wake(ctx, svc)
}

// RecordAccess marks a running service as used now.
func (o *Orchestrator) RecordAccess(name string) (api.ServiceStatus, error) {
	svc, err := o.lookup(name)
	if err != nil {
		return api.ServiceStatus{}, err
	}

	svc.op.Lock()
	defer svc.op.Unlock()

	now := o.clock.Now()
	svc.mu.Lock()
	if svc.state == api.StateRunning {
		svc.lastAccessed = now
		svc.metrics.RecordRequest()
	}
	svc.mu.Unlock()
	return svc.status(now, o.priorityOf(name)), nil
}

func (o *Orchestrator) start(ctx context.Context, svc *managedService) (api.ServiceStatus, error) {
	svc.op.Lock()
	defer svc.op.Unlock()

	switch svc.currentState() {
	case api.StateRunning:
		return o.statusOf(svc), nil
	case api.StateSleeping:
		return o.wakeLocked(ctx, svc)
	}

	name := svc.cfg.Name
	svc.transition(api.StateStarting, o.clock.Now())

	info, err := o.runtime.StartContainer(ctx, containerizer.ContainerSpec{
		Name:  svc.cfg.Container,
		Image: svc.cfg.Image,
		Env:   svc.cfg.Environment,
		Port:  svc.cfg.Port,
	})
	if err != nil {
		return o.fail(svc, "start", err, time.Time{})
	}

	// recorded before any follow-up call so a later stop can reach the container
	svc.mu.Lock()
	svc.containerID = info.ID
	applied := svc.reservationApplied
	svc.mu.Unlock()
	if applied {
		if err := o.runtime.UpdateResources(ctx, info.ID, 0, 0); err != nil {
			return o.fail(svc, "restore memory", err, time.Time{})
		}
	}

	now := o.clock.Now()
	svc.mu.Lock()
	svc.port = info.Port
	if svc.port == 0 {
		svc.port = svc.cfg.Port
	}
	svc.reservationApplied = false
	svc.errorMessage = ""
	svc.lastAccessed = now
	svc.metrics.RecordRequest()
	svc.transitionLocked(api.StateRunning, now)
	svc.mu.Unlock()

	logging.Info(subsystem, "Started service %s (container %s)", name, info.ID)
	return o.statusOf(svc), nil
}

func (o *Orchestrator) stop(ctx context.Context, svc *managedService) (api.ServiceStatus, error) {
	svc.op.Lock()
	defer svc.op.Unlock()

	if svc.currentState() == api.StateStopped {
		return o.statusOf(svc), nil
	}

	svc.mu.Lock()
	// an open sleep interval is discarded, only completed cycles count
	svc.sleepStart = time.Time{}
	id := svc.containerID
	svc.transitionLocked(api.StateStopping, o.clock.Now())
	svc.mu.Unlock()

	if id != "" {
		if err := o.runtime.StopContainer(ctx, id); err != nil {
			return o.fail(svc, "stop", err, time.Time{})
		}
	}

	svc.mu.Lock()
	svc.containerID = ""
	svc.port = 0
	svc.cpuPercent = 0
	svc.memoryMB = 0
	svc.errorMessage = ""
	svc.transitionLocked(api.StateStopped, o.clock.Now())
	svc.mu.Unlock()

	logging.Info(subsystem, "Stopped service %s", svc.cfg.Name)
	return o.statusOf(svc), nil
}

// sleep evaluates the sleep gates and pauses the service. snap is the host
// sample to gate on; nil takes a fresh one.
func (o *Orchestrator) sleep(ctx context.Context, svc *managedService, snap *api.SystemResources) (api.ServiceStatus, error) {
	svc.op.Lock()
	defer svc.op.Unlock()

	if !svc.sleepPolicyEnabled() || svc.currentState() != api.StateRunning {
		return o.statusOf(svc), nil
	}
	if snap == nil {
		snap = o.sampleSystem(ctx)
	}

	o.sleepGate.Lock()
	sleeping := o.countState(api.StateSleeping)
	svc.mu.RLock()
	in := policy.SleepInput{
		State:        svc.state,
		LastAccessed: svc.lastAccessed,
		Policy:       svc.cfg.SleepPolicy,
		Snapshot:     snap,
		Sleeping:     sleeping,
		Now:          o.clock.Now(),
	}
	svc.mu.RUnlock()

	decision := policy.EvaluateSleep(in, o.Settings())
	if !decision.Sleep {
		o.sleepGate.Unlock()
		logging.Debug(subsystem, "Not sleeping service %s: %s", svc.cfg.Name, decision.Reason)
		return o.statusOf(svc), nil
	}

	svc.mu.Lock()
	svc.sleepStart = in.Now
	id := svc.containerID
	svc.transitionLocked(api.StateSleeping, in.Now)
	svc.mu.Unlock()
	o.sleepGate.Unlock()

	began := time.Now()
	if err := o.runtime.PauseContainer(ctx, id); err != nil {
		return o.fail(svc, "pause", err, time.Time{})
	}
	if svc.reservation > 0 {
		if err := o.runtime.UpdateResources(ctx, id, svc.reservation, svc.reservation); err != nil {
			return o.fail(svc, "apply memory reservation", err, time.Time{})
		}
		svc.mu.Lock()
		svc.reservationApplied = true
		svc.mu.Unlock()
	}
	svc.metrics.RecordSleep(time.Since(began), o.clock.Now())

	if svc.reservation > 0 {
		logging.Info(subsystem, "Service %s is sleeping (memory reserved: %s)", svc.cfg.Name, units.FormatBytes(svc.reservation))
	} else {
		logging.Info(subsystem, "Service %s is sleeping", svc.cfg.Name)
	}
	return o.statusOf(svc), nil
}

func (o *Orchestrator) wake(ctx context.Context, svc *managedService) (api.ServiceStatus, error) {
	v, err, _ := o.wakeGroup.Do(svc.cfg.Name, func() (interface{}, error) {
		svc.op.Lock()
		defer svc.op.Unlock()
		return o.wakeLocked(ctx, svc)
	})
	st, _ := v.(api.ServiceStatus)
	return st, err
}

// wakeLocked resumes a sleeping service. The caller holds svc.op.
func (o *Orchestrator) wakeLocked(ctx context.Context, svc *managedService) (api.ServiceStatus, error) {
	if svc.currentState() != api.StateSleeping {
		return o.statusOf(svc), nil
	}

	var deadline time.Time
	if timeout := o.wakeTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
		deadline, _ = ctx.Deadline()
	}

	svc.mu.Lock()
	id := svc.containerID
	svc.transitionLocked(api.StateWaking, o.clock.Now())
	svc.mu.Unlock()

	began := time.Now()
	if err := o.runtime.UnpauseContainer(ctx, id); err != nil {
		return o.fail(svc, "unpause", err, deadline)
	}

	now := o.clock.Now()
	svc.mu.Lock()
	slept := now.Sub(svc.sleepStart)
	if slept < 0 {
		slept = 0
	}
	svc.totalSleep += slept
	svc.sleepStart = time.Time{}
	svc.mu.Unlock()
	svc.metrics.AddSleepDuration(slept)

	if err := o.runtime.UpdateResources(ctx, id, 0, 0); err != nil {
		return o.fail(svc, "restore memory", err, deadline)
	}
	elapsed := time.Since(began)

	now = o.clock.Now()
	svc.mu.Lock()
	svc.reservationApplied = false
	svc.lastAccessed = now
	svc.wakeCount++
	svc.metrics.RecordRequest()
	svc.metrics.RecordWake(elapsed, now)
	svc.transitionLocked(api.StateRunning, now)
	svc.mu.Unlock()

	logging.Info(subsystem, "Woke service %s in %dms (slept %s)", svc.cfg.Name, elapsed.Milliseconds(), slept.Round(time.Second))
	return o.statusOf(svc), nil
}

// fail moves the service to error and returns the typed failure. A runtime
// call cut short by the wake deadline is reported as a timeout.
func (o *Orchestrator) fail(svc *managedService, operation string, cause error, deadline time.Time) (api.ServiceStatus, error) {
	var err error = &api.AdapterError{Service: svc.cfg.Name, Operation: operation, Err: cause}
	if !deadline.IsZero() && errors.Is(cause, context.DeadlineExceeded) {
		err = &api.TimeoutError{Service: svc.cfg.Name, Deadline: deadline, Err: fmt.Errorf("%s: %w", operation, cause)}
	}

	now := o.clock.Now()
	svc.mu.Lock()
	svc.errorMessage = err.Error()
	svc.sleepStart = time.Time{}
	svc.transitionLocked(api.StateError, now)
	svc.mu.Unlock()
	svc.metrics.RecordError(err, now)

	logging.Error(subsystem, cause, "Service %s moved to error during %s", svc.cfg.Name, operation)
	return o.statusOf(svc), err
}

func (o *Orchestrator) statusOf(svc *managedService) api.ServiceStatus {
	return svc.status(o.clock.Now(), o.priorityOf(svc.cfg.Name))
}
