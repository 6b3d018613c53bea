package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration structure for drowse.
type Config struct {
	Server   ServerConfig             `yaml:"server"`
	Logging  LoggingConfig            `yaml:"logging"`
	Runtime  RuntimeConfig            `yaml:"runtime"`
	Sleep    GlobalSleepSettings      `yaml:"sleep_settings"`
	Services map[string]ServiceConfig `yaml:"services"`
}

// ServerConfig configures the REST and MCP listener.
type ServerConfig struct {
	Address    string `yaml:"address"`
	MCPEnabled bool   `yaml:"mcp_enabled"`
}

// LoggingConfig configures pkg/logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Runtime types.
const (
	RuntimeDocker = "docker"
	RuntimePodman = "podman"
	RuntimeMemory = "memory"
)

// RuntimeConfig selects the container runtime adapter.
type RuntimeConfig struct {
	Type   string `yaml:"type"`
	Socket string `yaml:"socket,omitempty"` // Unix socket of the Engine API; derived from Type when empty
}

// ServiceConfig describes one managed MCP server container.
type ServiceConfig struct {
	Name        string             `yaml:"-"`
	Container   string             `yaml:"container"` // container name or ID
	Image       string             `yaml:"image,omitempty"`
	Port        int                `yaml:"port,omitempty"`
	Environment map[string]string  `yaml:"environment,omitempty"`
	AutoStart   bool               `yaml:"auto_start"`
	HealthCheck *HealthCheckConfig `yaml:"health_check,omitempty"`
	SleepPolicy *SleepPolicy       `yaml:"sleep_policy,omitempty"`
}

// HealthCheckConfig is carried for display; probing is left to the container runtime.
type HealthCheckConfig struct {
	Path     string   `yaml:"path,omitempty"`
	Interval Duration `yaml:"interval,omitempty"`
	Timeout  Duration `yaml:"timeout,omitempty"`
}

// SleepPolicy controls when a running service may be put to sleep.
type SleepPolicy struct {
	Enabled     bool     `yaml:"enabled"`
	IdleTimeout Duration `yaml:"idle_timeout"`
	// MinSleepTime is how long a service must have been active before it may sleep again.
	MinSleepTime      Duration `yaml:"min_sleep_time"`
	MemoryReservation string   `yaml:"memory_reservation,omitempty"`
	Priority          string   `yaml:"priority,omitempty"`
}

// GlobalSleepSettings is the process-wide sleep/wake tuning.
type GlobalSleepSettings struct {
	Enabled             bool     `yaml:"enabled"`
	MaxSleepingServices int      `yaml:"max_sleeping_services"` // 0 means unlimited
	SleepCheckInterval  Duration `yaml:"sleep_check_interval"`
	WakeTimeout         Duration `yaml:"wake_timeout"`
	MaxConcurrentWakes  int      `yaml:"max_concurrent_wakes"`

	ResourceMonitoring      ResourceMonitoring      `yaml:"resource_monitoring"`
	PerformanceOptimization PerformanceOptimization `yaml:"performance_optimization"`
	WakePriorities          WakePriorities          `yaml:"wake_priorities"`
	ResourceThresholds      ResourceThresholds      `yaml:"resource_thresholds"`
}

// ResourceMonitoring controls the periodic resource refresh loop.
type ResourceMonitoring struct {
	Enabled       bool     `yaml:"enabled"`
	CheckInterval Duration `yaml:"check_interval"`
}

// PerformanceOptimization controls wake prediction and pre-warming.
type PerformanceOptimization struct {
	WakePredictionEnabled bool     `yaml:"wake_prediction_enabled"`
	PreWarmThreshold      float64  `yaml:"pre_warm_threshold"`
	PreWarmInterval       Duration `yaml:"pre_warm_interval,omitempty"`
}

// WakePriorities lists service names per priority tier.
type WakePriorities struct {
	High   []string `yaml:"high,omitempty"`
	Normal []string `yaml:"normal,omitempty"`
	Low    []string `yaml:"low,omitempty"`
}

// ResourceThresholds are fractions in [0,1].
type ResourceThresholds struct {
	HighMemoryPressure     float64 `yaml:"high_memory_pressure"`
	ModerateMemoryPressure float64 `yaml:"moderate_memory_pressure"`
	LowMemoryPressure      float64 `yaml:"low_memory_pressure"`
	CPUPressureThreshold   float64 `yaml:"cpu_pressure_threshold"`
}

// Duration is a time.Duration that unmarshals from "300s" style strings
// or from an integer number of seconds.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ParseDuration parses a duration string or integer seconds.
func ParseDuration(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Duration(time.Duration(secs) * time.Second), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return Duration(d), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", value.Line)
	}
	parsed, err := ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// EffectiveWakePriorities merges the explicit wake_priorities lists with
// services whose sleep policy names a priority but that are not listed in
// any tier. Explicit list entries win.
func (c Config) EffectiveWakePriorities() WakePriorities {
	out := WakePriorities{
		High:   append([]string(nil), c.Sleep.WakePriorities.High...),
		Normal: append([]string(nil), c.Sleep.WakePriorities.Normal...),
		Low:    append([]string(nil), c.Sleep.WakePriorities.Low...),
	}

	listed := make(map[string]bool)
	for _, tier := range [][]string{out.High, out.Normal, out.Low} {
		for _, name := range tier {
			listed[name] = true
		}
	}

	for _, name := range c.ServiceNames() {
		svc := c.Services[name]
		if listed[name] || svc.SleepPolicy == nil {
			continue
		}
		switch strings.ToLower(svc.SleepPolicy.Priority) {
		case "high":
			out.High = append(out.High, name)
		case "normal":
			out.Normal = append(out.Normal, name)
		case "low":
			out.Low = append(out.Low, name)
		}
	}
	return out
}
