package orchestrator

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"drowse/internal/api"
	"drowse/pkg/logging"
)

const queueSubsystem = "WakeQueue"

// RequestWake queues an asynchronous wake of the named service and returns
// immediately. A service with a wake already queued gets the existing ticket.
func (o *Orchestrator) RequestWake(name string, source api.WakeSource) (api.WakeTicket, error) {
	req, err := o.enqueueWake(name, source)
	if err != nil {
		return api.WakeTicket{}, err
	}
	return req.ticket, nil
}

func (o *Orchestrator) enqueueWake(name string, source api.WakeSource) (*wakeRequest, error) {
	if _, err := o.lookup(name); err != nil {
		return nil, err
	}

	now := o.clock.Now()
	req := newWakeRequest(api.WakeTicket{
		ID:         uuid.NewString(),
		Service:    name,
		Priority:   o.priorityOf(name),
		Source:     source,
		EnqueuedAt: now,
		Deadline:   now.Add(o.wakeTimeout()),
	})

	queued, added, err := o.queue.push(req)
	if err != nil {
		return nil, err
	}
	if added {
		logging.Debug(queueSubsystem, "Queued wake of %s (priority: %s, source: %s, request: %s)",
			name, req.ticket.Priority, source, req.ticket.ID)
	}
	return queued, nil
}

// runWakeProcessor drains the wake queue until shutdown, running at most
// slots wakes at a time.
func (o *Orchestrator) runWakeProcessor(slots *semaphore.Weighted) {
	for {
		req, ok := o.queue.pop(o.ctx)
		if !ok {
			return
		}
		if err := slots.Acquire(o.ctx, 1); err != nil {
			req.resolve(api.ErrWakeCancelled)
			return
		}

		if now := o.clock.Now(); now.After(req.ticket.Deadline) {
			slots.Release(1)
			err := &api.TimeoutError{Service: req.ticket.Service, Deadline: req.ticket.Deadline}
			logging.Warn(queueSubsystem, "Wake request %s for %s expired before it started", req.ticket.ID, req.ticket.Service)
			req.resolve(err)
			continue
		}

		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			defer slots.Release(1)
			o.processWake(o.ctx, req)
		}()
	}
}

func (o *Orchestrator) processWake(ctx context.Context, req *wakeRequest) {
	svc, ok := o.services[req.ticket.Service]
	if !ok {
		req.resolve(api.NewServiceNotFoundError(req.ticket.Service))
		return
	}

	// in-flight wakes run to completion, bounded by wake_timeout, so shutdown
	// never cuts a container off half-unpaused
	st, err := o.wake(context.WithoutCancel(ctx), svc)
	if err != nil {
		logging.Error(queueSubsystem, err, "Queued wake of %s failed (request: %s)", req.ticket.Service, req.ticket.ID)
	} else {
		logging.Debug(queueSubsystem, "Processed wake request %s for %s (state: %s)", req.ticket.ID, req.ticket.Service, st.State)
	}
	req.resolve(err)
}
