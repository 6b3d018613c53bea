// Package containerizer abstracts the container runtime the lifecycle
// controller drives.
//
// ContainerRuntime is deliberately narrow: materialize or resume a container,
// stop it, pause and unpause it, change its memory limits and read its raw
// resource counters. Everything else about the container (image, network,
// volumes) is owned by whoever created it.
//
// # Implementations
//
//   - DockerRuntime talks to the Docker Engine API over its unix socket.
//     Podman's Docker-compatible API is served by the same client.
//   - MemoryRuntime keeps containers in memory. It records every call and can
//     inject failures and latency, which makes it the runtime of choice for
//     controller tests and dry runs.
//
// # Memory limits
//
// UpdateResources takes byte counts for the memory limit and the memory
// reservation. Zero means "unbounded"; each implementation translates that
// into its own convention.
package containerizer
