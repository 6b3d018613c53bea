package config

import (
	"sort"
	"time"
)

const (
	DefaultListenAddress      = ":8080"
	DefaultSleepCheckInterval = 30 * time.Second
	DefaultWakeTimeout        = 30 * time.Second
	DefaultIdleTimeout        = 300 * time.Second
	DefaultPreWarmThreshold   = 0.7

	DefaultDockerSocket = "/var/run/docker.sock"
	DefaultPodmanSocket = "/run/podman/podman.sock"
)

// GetDefaultConfig returns the built-in configuration with no services.
func GetDefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:    DefaultListenAddress,
			MCPEnabled: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Runtime: RuntimeConfig{
			Type: RuntimeDocker,
		},
		Sleep:    DefaultSleepSettings(),
		Services: map[string]ServiceConfig{},
	}
}

// DefaultSleepSettings returns the default process-wide sleep settings.
func DefaultSleepSettings() GlobalSleepSettings {
	return GlobalSleepSettings{
		Enabled:            true,
		SleepCheckInterval: Duration(DefaultSleepCheckInterval),
		WakeTimeout:        Duration(DefaultWakeTimeout),
		MaxConcurrentWakes: 1,
		ResourceMonitoring: ResourceMonitoring{
			Enabled:       true,
			CheckInterval: Duration(DefaultSleepCheckInterval),
		},
		PerformanceOptimization: PerformanceOptimization{
			PreWarmThreshold: DefaultPreWarmThreshold,
		},
		ResourceThresholds: ResourceThresholds{
			HighMemoryPressure:     0.85,
			ModerateMemoryPressure: 0.70,
			LowMemoryPressure:      0.50,
			CPUPressureThreshold:   0.90,
		},
	}
}

// ApplyDefaults fills zero values left by a partial configuration file.
func (c *Config) ApplyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = DefaultListenAddress
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Runtime.Type == "" {
		c.Runtime.Type = RuntimeDocker
	}
	if c.Runtime.Socket == "" {
		switch c.Runtime.Type {
		case RuntimeDocker:
			c.Runtime.Socket = DefaultDockerSocket
		case RuntimePodman:
			c.Runtime.Socket = DefaultPodmanSocket
		}
	}

	c.Sleep.ApplyDefaults()

	if c.Services == nil {
		c.Services = map[string]ServiceConfig{}
	}
	for name, svc := range c.Services {
		svc.Name = name
		if svc.Container == "" {
			svc.Container = name
		}
		if svc.SleepPolicy != nil && svc.SleepPolicy.IdleTimeout == 0 {
			svc.SleepPolicy.IdleTimeout = Duration(DefaultIdleTimeout)
		}
		c.Services[name] = svc
	}
}

// ApplyDefaults fills zero values of the sleep settings.
func (s *GlobalSleepSettings) ApplyDefaults() {
	d := DefaultSleepSettings()
	if s.SleepCheckInterval <= 0 {
		s.SleepCheckInterval = d.SleepCheckInterval
	}
	if s.WakeTimeout <= 0 {
		s.WakeTimeout = d.WakeTimeout
	}
	if s.MaxConcurrentWakes <= 0 {
		s.MaxConcurrentWakes = d.MaxConcurrentWakes
	}
	if s.ResourceMonitoring.CheckInterval <= 0 {
		s.ResourceMonitoring.CheckInterval = s.SleepCheckInterval
	}
	if s.PerformanceOptimization.PreWarmThreshold <= 0 {
		s.PerformanceOptimization.PreWarmThreshold = d.PerformanceOptimization.PreWarmThreshold
	}
	if s.PerformanceOptimization.PreWarmInterval <= 0 {
		s.PerformanceOptimization.PreWarmInterval = s.SleepCheckInterval
	}

	// resource thresholds are seeded by DefaultSleepSettings before decoding
	// and taken as written, so an explicit 0 stays 0
}

// ServiceNames returns the configured service names in sorted order.
func (c Config) ServiceNames() []string {
	names := make([]string, 0, len(c.Services))
	for name := range c.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
