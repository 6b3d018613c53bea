// Package api holds the types shared between the lifecycle controller and
// the layers that expose it: service states and their allowed transitions,
// status snapshots, resource samples, metrics summaries, typed errors and
// the handler interfaces the REST and MCP front doors depend on.
//
// The package imports nothing from internal/, so every other package can
// depend on it without cycles. Implementations are passed explicitly to
// their consumers; there is no package-level registry.
package api
