package app

import (
	"fmt"

	"drowse/internal/config"
	"drowse/internal/containerizer"
	"drowse/internal/monitor"
	"drowse/internal/orchestrator"
	"drowse/internal/server"
	"drowse/pkg/logging"
)

// Services holds the wired components of a daemon.
type Services struct {
	Runtime      containerizer.ContainerRuntime
	Monitor      *monitor.Monitor
	Orchestrator *orchestrator.Orchestrator
	Server       *server.Server
	// Watcher is nil when hot reload could not be set up.
	Watcher *config.Watcher
}

// InitializeServices builds every component from the loaded configuration.
func InitializeServices(cfg *Config) (*Services, error) {
	dc := cfg.Drowse
	if dc == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}

	runtime, err := containerizer.NewContainerRuntime(dc.Runtime.Type, dc.Runtime.Socket)
	if err != nil {
		return nil, err
	}
	logging.Info("Bootstrap", "Using %s container runtime", dc.Runtime.Type)

	s := &Services{Runtime: runtime}

	// Without a host sampler the pressure gate is skipped.
	var resourceMonitor orchestrator.ResourceMonitor
	if dc.Sleep.ResourceMonitoring.Enabled {
		host, err := monitor.NewProcfsSampler()
		if err != nil {
			logging.Warn("Bootstrap", "Host resource sampling unavailable, sleeping without pressure checks: %v", err)
		} else {
			s.Monitor = monitor.New(host, runtime)
			resourceMonitor = s.Monitor
		}
	} else {
		logging.Info("Bootstrap", "Resource monitoring disabled, sleeping without pressure checks")
	}

	orch, err := orchestrator.New(orchestrator.Config{
		Services: dc.Services,
		Settings: effectiveSettings(*dc),
		Runtime:  runtime,
		Monitor:  resourceMonitor,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}
	s.Orchestrator = orch

	s.Server = server.New(server.Config{
		Address:    dc.Server.Address,
		MCPEnabled: dc.Server.MCPEnabled,
		Version:    cfg.Version,
	}, orch)

	s.Watcher = config.NewWatcher(cfg.ConfigPath, 0, func(updated config.Config) {
		logging.Info("Config", "Applying reloaded sleep settings")
		orch.UpdateSettings(effectiveSettings(updated))
	})

	logging.Info("Bootstrap", "Initialized %d managed services", len(dc.Services))
	return s, nil
}

// effectiveSettings folds per-service policy priorities into wake_priorities.
func effectiveSettings(c config.Config) config.GlobalSleepSettings {
	settings := c.Sleep
	settings.WakePriorities = c.EffectiveWakePriorities()
	return settings
}
