package policy

import (
	"time"

	"drowse/internal/api"
	"drowse/internal/config"
)

// Reason explains a sleep decision.
type Reason string

const (
	ReasonEligible       Reason = "eligible"
	ReasonPolicyDisabled Reason = "policy_disabled"
	ReasonNotRunning     Reason = "not_running"
	ReasonMinSleepTime   Reason = "min_sleep_time"
	ReasonPressure       Reason = "resource_pressure"
	ReasonSleepLimit     Reason = "max_sleeping_services"
)

// Decision is the outcome of EvaluateSleep.
type Decision struct {
	Sleep  bool
	Reason Reason
}

// SleepInput is everything EvaluateSleep looks at for one service.
type SleepInput struct {
	State        api.ServiceState
	LastAccessed time.Time
	Policy       *config.SleepPolicy
	// Snapshot is the latest host sample; nil skips the pressure gate.
	Snapshot *api.SystemResources
	// Sleeping is the number of services currently asleep.
	Sleeping int
	Now      time.Time
}

// ShouldSkipSleepDueToPressure reports whether the host is under enough
// memory or CPU pressure that sleeping should be deferred.
func ShouldSkipSleepDueToPressure(snap api.SystemResources, t config.ResourceThresholds) bool {
	return snap.MemoryPercent/100 > t.HighMemoryPressure ||
		snap.CPUPercent/100 > t.CPUPressureThreshold
}

// PressureLevel classifies host memory utilisation against the thresholds.
func PressureLevel(snap api.SystemResources, t config.ResourceThresholds) api.PressureLevel {
	mem := snap.MemoryPercent / 100
	switch {
	case mem > t.HighMemoryPressure:
		return api.PressureHigh
	case mem > t.ModerateMemoryPressure:
		return api.PressureModerate
	case mem > t.LowMemoryPressure:
		return api.PressureLow
	default:
		return api.PressureNone
	}
}

// IsIdle reports whether idleTimeout has elapsed since lastAccessed.
// A service that was never accessed is idle.
func IsIdle(lastAccessed time.Time, idleTimeout time.Duration, now time.Time) bool {
	if lastAccessed.IsZero() {
		return true
	}
	return now.Sub(lastAccessed) >= idleTimeout
}

// IsSleepCandidate reports whether the auto-sleep scanner should propose
// the service. Candidates still go through EvaluateSleep.
func IsSleepCandidate(in SleepInput) bool {
	if in.State != api.StateRunning || in.Policy == nil || !in.Policy.Enabled {
		return false
	}
	return IsIdle(in.LastAccessed, in.Policy.IdleTimeout.Std(), in.Now)
}

// EvaluateSleep applies the sleep gates in order: policy, state, minimum
// active time, sleeping-service limit and resource pressure.
func EvaluateSleep(in SleepInput, settings config.GlobalSleepSettings) Decision {
	if in.Policy == nil || !in.Policy.Enabled {
		return Decision{Reason: ReasonPolicyDisabled}
	}
	if in.State != api.StateRunning {
		return Decision{Reason: ReasonNotRunning}
	}
	if !in.LastAccessed.IsZero() && in.Now.Sub(in.LastAccessed) < in.Policy.MinSleepTime.Std() {
		return Decision{Reason: ReasonMinSleepTime}
	}
	if settings.MaxSleepingServices > 0 && in.Sleeping >= settings.MaxSleepingServices {
		return Decision{Reason: ReasonSleepLimit}
	}
	if in.Snapshot != nil && ShouldSkipSleepDueToPressure(*in.Snapshot, settings.ResourceThresholds) {
		return Decision{Reason: ReasonPressure}
	}
	return Decision{Sleep: true, Reason: ReasonEligible}
}
