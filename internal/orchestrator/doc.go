// Package orchestrator implements the service lifecycle controller of drowse.
//
// The Orchestrator owns one status record per configured service and is the
// only component that mutates it. Callers (the REST server, the MCP tools and
// the background loops) drive services through the operations below; every
// container side effect goes through a containerizer.ContainerRuntime.
//
// # State Machine
//
// Each service is in exactly one of the states stopped, starting, running,
// sleeping, waking, stopping or error. The allowed edges are defined by
// api.CanTransition:
//
//	stopped -> starting -> running
//	running -> sleeping -> waking -> running
//	running|sleeping|starting|waking -> stopping -> stopped
//	any active state -> error           (container runtime failure)
//	error -> starting | stopping         (explicit recovery only)
//
// Operations are idempotent: asking a running service to start, a stopped
// service to stop, a non-running service to sleep or a non-sleeping service
// to wake returns the unchanged status with a nil error. A refused sleep
// (policy disabled, too recently active, resource pressure) is not an error
// either.
//
// # Serialization
//
// A per-service mutex is held for the whole read-decide-mutate-runtime
// sequence of StartService, StopService, SleepService and WakeService, so two
// operations on the same service never interleave while different services
// proceed in parallel. Concurrent WakeService calls on the same service are
// additionally collapsed with singleflight; all callers observe the single
// result and the container is unpaused once.
//
// # Sleeping and Waking
//
// Sleeping pauses the container and, when the service's sleep policy names a
// memory_reservation, lowers the container memory limit and reservation to
// that value. Waking unpauses the container, always restores unbounded memory
// (limit and reservation 0), adds the completed sleep interval to the total
// sleep time and records the wake latency.
//
// There are no automatic retries. A runtime failure moves the service to
// error with the cause in error_message; it stays there until an explicit
// start or stop. A wake that exceeds wake_timeout fails with api.TimeoutError.
//
// # Background Loops
//
// Start launches:
//
//   - the auto-sleep scanner, which every sleep_check_interval samples host
//     resources and sleeps each idle running service the policy allows
//   - the wake-request processor, which drains the priority wake queue with
//     at most max_concurrent_wakes wakes in flight
//   - the resource refresh loop, which caches the host sample and per
//     container CPU and memory figures (resource_monitoring.enabled)
//   - the pre-warm loop, which queues wakes for sleeping services whose
//     predicted wake probability reaches pre_warm_threshold
//     (performance_optimization.wake_prediction_enabled)
//
// Intervals are re-read on every tick, so UpdateSettings takes effect without
// a restart.
//
// # Shutdown
//
// Shutdown resolves every queued wake request as cancelled, stops the loops
// and then stops all services in parallel. Failures while stopping are
// logged, never returned.
package orchestrator
