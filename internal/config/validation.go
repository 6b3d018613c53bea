package config

import (
	"fmt"
	"strings"

	"drowse/pkg/units"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// ValidateOneOf checks if a value is in a list of allowed values
func ValidateOneOf(field, value string, allowed []string) error {
	for _, allowedValue := range allowed {
		if value == allowedValue {
			return nil
		}
	}
	return ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

func validateFraction(errs *ValidationErrors, field string, v float64) {
	if v < 0 || v > 1 {
		errs.Add(field, "must be a fraction between 0 and 1", v)
	}
}

// Validate checks the whole configuration and returns ValidationErrors when
// anything is wrong.
func (c Config) Validate() error {
	var errs ValidationErrors

	if err := ValidateOneOf("runtime.type", c.Runtime.Type, []string{RuntimeDocker, RuntimePodman, RuntimeMemory}); err != nil {
		errs = append(errs, err.(ValidationError))
	}
	if err := ValidateOneOf("logging.format", c.Logging.Format, []string{"text", "json"}); err != nil {
		errs = append(errs, err.(ValidationError))
	}

	c.Sleep.validate(&errs)

	for _, name := range c.ServiceNames() {
		svc := c.Services[name]
		prefix := "services." + name
		if strings.TrimSpace(svc.Container) == "" {
			errs.Add(prefix+".container", "is required")
		}
		if svc.Port < 0 || svc.Port > 65535 {
			errs.Add(prefix+".port", "must be between 0 and 65535", svc.Port)
		}
		if p := svc.SleepPolicy; p != nil {
			if p.IdleTimeout < 0 {
				errs.Add(prefix+".sleep_policy.idle_timeout", "must not be negative")
			}
			if p.MinSleepTime < 0 {
				errs.Add(prefix+".sleep_policy.min_sleep_time", "must not be negative")
			}
			if p.MemoryReservation != "" {
				if _, err := units.ParseMemorySize(p.MemoryReservation); err != nil {
					errs.Add(prefix+".sleep_policy.memory_reservation", err.Error(), p.MemoryReservation)
				}
			}
			if p.Priority != "" {
				if err := ValidateOneOf(prefix+".sleep_policy.priority", strings.ToLower(p.Priority), []string{"high", "normal", "low"}); err != nil {
					errs = append(errs, err.(ValidationError))
				}
			}
		}
	}

	seen := make(map[string]string)
	tiers := []struct {
		name  string
		names []string
	}{
		{"high", c.Sleep.WakePriorities.High},
		{"normal", c.Sleep.WakePriorities.Normal},
		{"low", c.Sleep.WakePriorities.Low},
	}
	for _, tier := range tiers {
		for _, name := range tier.names {
			field := "sleep_settings.wake_priorities." + tier.name
			if _, ok := c.Services[name]; !ok {
				errs.Add(field, fmt.Sprintf("references unknown service %q", name), name)
			}
			if prev, ok := seen[name]; ok && prev != tier.name {
				errs.Add(field, fmt.Sprintf("service %q is already listed as %s", name, prev), name)
			}
			seen[name] = tier.name
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// Validate checks sleep settings on their own, for hot reload.
func (s GlobalSleepSettings) Validate() error {
	var errs ValidationErrors
	s.validate(&errs)
	if errs.HasErrors() {
		return errs
	}
	return nil
}

func (s GlobalSleepSettings) validate(errs *ValidationErrors) {
	if s.MaxSleepingServices < 0 {
		errs.Add("sleep_settings.max_sleeping_services", "must not be negative", s.MaxSleepingServices)
	}
	if s.SleepCheckInterval <= 0 {
		errs.Add("sleep_settings.sleep_check_interval", "must be positive")
	}
	if s.WakeTimeout <= 0 {
		errs.Add("sleep_settings.wake_timeout", "must be positive")
	}
	if s.MaxConcurrentWakes < 1 {
		errs.Add("sleep_settings.max_concurrent_wakes", "must be at least 1", s.MaxConcurrentWakes)
	}
	validateFraction(errs, "sleep_settings.performance_optimization.pre_warm_threshold", s.PerformanceOptimization.PreWarmThreshold)

	t := s.ResourceThresholds
	validateFraction(errs, "sleep_settings.resource_thresholds.high_memory_pressure", t.HighMemoryPressure)
	validateFraction(errs, "sleep_settings.resource_thresholds.moderate_memory_pressure", t.ModerateMemoryPressure)
	validateFraction(errs, "sleep_settings.resource_thresholds.low_memory_pressure", t.LowMemoryPressure)
	validateFraction(errs, "sleep_settings.resource_thresholds.cpu_pressure_threshold", t.CPUPressureThreshold)
	if t.LowMemoryPressure > t.ModerateMemoryPressure || t.ModerateMemoryPressure > t.HighMemoryPressure {
		d := DefaultSleepSettings().ResourceThresholds
		errs.Add("sleep_settings.resource_thresholds", fmt.Sprintf(
			"memory thresholds must satisfy low <= moderate <= high, got low=%g moderate=%g high=%g (unset thresholds default to low=%g moderate=%g high=%g)",
			t.LowMemoryPressure, t.ModerateMemoryPressure, t.HighMemoryPressure,
			d.LowMemoryPressure, d.ModerateMemoryPressure, d.HighMemoryPressure))
	}
}
