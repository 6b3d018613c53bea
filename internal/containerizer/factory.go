package containerizer

import (
	"fmt"
	"strings"
)

// RuntimeType defines the type of container runtime
type RuntimeType string

const (
	RuntimeTypeDocker RuntimeType = "docker"
	RuntimeTypePodman RuntimeType = "podman"
	RuntimeTypeMemory RuntimeType = "memory"
)

// NewContainerRuntime creates a new container runtime based on the specified type.
// socket is the Engine API unix socket for docker and podman.
func NewContainerRuntime(runtimeType, socket string) (ContainerRuntime, error) {
	rt := RuntimeType(strings.ToLower(runtimeType))

	switch rt {
	case RuntimeTypeDocker, "":
		return NewDockerRuntime(socket, "Docker"), nil
	case RuntimeTypePodman:
		// Podman serves the Docker-compatible API on its own socket.
		return NewDockerRuntime(socket, "Podman"), nil
	case RuntimeTypeMemory:
		return NewMemoryRuntime(), nil
	default:
		return nil, fmt.Errorf("unsupported container runtime: %s", runtimeType)
	}
}
