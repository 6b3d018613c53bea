package api

import (
	"fmt"
	"strings"
)

// ServiceState represents the lifecycle state of a managed container.
type ServiceState string

const (
	StateStopped  ServiceState = "stopped"
	StateStarting ServiceState = "starting"
	StateRunning  ServiceState = "running"
	StateSleeping ServiceState = "sleeping"
	StateWaking   ServiceState = "waking"
	StateStopping ServiceState = "stopping"
	StateError    ServiceState = "error"
)

// AllStates lists every state in display order.
var AllStates = []ServiceState{
	StateStopped,
	StateStarting,
	StateRunning,
	StateSleeping,
	StateWaking,
	StateStopping,
	StateError,
}

// allowedTransitions is the edge set of the lifecycle state machine.
// Transitions into StateError are allowed from every active state.
var allowedTransitions = map[ServiceState][]ServiceState{
	StateStopped:  {StateStarting},
	StateStarting: {StateRunning, StateStopping, StateError},
	StateRunning:  {StateSleeping, StateStopping, StateError},
	StateSleeping: {StateWaking, StateStopping, StateError},
	StateWaking:   {StateRunning, StateStopping, StateError},
	StateStopping: {StateStopped, StateError},
	StateError:    {StateStarting, StateStopping},
}

// IsValid reports whether s is one of the known states.
func (s ServiceState) IsValid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// CanTransition reports whether from -> to is an edge of the state machine.
func CanTransition(from, to ServiceState) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Priority orders wake requests. Lower values are served first.
type Priority int

const (
	PriorityHigh Priority = iota
	PriorityNormal
	PriorityLow
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	case PriorityLow:
		return "low"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// ParsePriority converts "high", "normal" or "low" into a Priority.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return PriorityHigh, nil
	case "normal":
		return PriorityNormal, nil
	case "low":
		return PriorityLow, nil
	default:
		return PriorityLow, fmt.Errorf("unknown priority %q", s)
	}
}

// MarshalText renders the priority by name in JSON and YAML output.
func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a priority name.
func (p *Priority) UnmarshalText(b []byte) error {
	v, err := ParsePriority(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
