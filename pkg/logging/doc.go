// Package logging provides the structured logger used throughout drowse.
//
// It is a thin layer over log/slog that tags every entry with a subsystem
// name, so that lifecycle events from the controller, the auto-sleep scanner
// and the HTTP layer can be filtered independently.
//
// # Usage
//
//	logging.Init(logging.LevelInfo, logging.FormatJSON, os.Stderr)
//
//	logging.Info("Orchestrator", "service %s is now %s", name, state)
//	logging.Debug("Scanner", "sampled memory at %.1f%%", pct)
//	logging.Warn("Monitor", "container stats unavailable for %s", name)
//	logging.Error("WakeQueue", err, "wake request %s failed", id)
//
// # Subsystems
//
//   - Bootstrap: application initialization and shutdown
//   - Config: configuration loading, validation and hot reload
//   - Orchestrator: service lifecycle transitions
//   - Scanner: auto-sleep and pre-warm passes
//   - WakeQueue: queued wake request processing
//   - Monitor: host and container resource sampling
//   - Docker: container runtime calls
//   - HTTP and MCP: request handling
//
// Messages below the configured level are dropped before formatting.
// Calls made before Init only surface warnings and errors, on stderr.
package logging
