// Package app bootstraps the drowse daemon.
//
// NewApplication loads the configuration file, initializes logging and wires
// the long lived components together:
//
//   - the container runtime adapter selected by runtime.type
//   - the procfs based resource monitor
//   - the lifecycle orchestrator
//   - the REST/MCP HTTP server
//   - a config file watcher that hot reloads sleep_settings
//
// Run starts the orchestrator and the HTTP server, reports readiness to
// systemd when running under a notify unit, and blocks until the context is
// cancelled or SIGINT/SIGTERM is received. Shutdown stops the HTTP server
// first so no new lifecycle requests arrive, then cancels queued wakes and
// stops every managed container.
//
// Service definitions are read once at startup; only sleep_settings are
// applied on reload.
package app
