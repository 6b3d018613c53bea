package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"drowse/internal/config"
	"drowse/pkg/logging"
)

// Application is the drowse daemon.
//
// It follows a two-phase pattern: NewApplication loads configuration and
// builds every component, Run starts them and blocks until shutdown.
type Application struct {
	config   *Config
	services *Services
	ready    chan struct{}
}

// NewApplication loads the configuration, initializes logging and wires all
// services. Nothing is started yet.
func NewApplication(cfg *Config) (*Application, error) {
	path := cfg.ConfigPath
	if path == "" {
		var err error
		path, err = config.DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		cfg.ConfigPath = path
	}

	var logOutput io.Writer = os.Stdout
	if cfg.LogOutput != nil {
		logOutput = cfg.LogOutput
	}
	if cfg.Silent {
		logOutput = io.Discard
	}
	// Bootstrap logging so config loading can report, then re-init from the file.
	logging.InitForCLI(bootstrapLevel(cfg.Debug), logOutput)

	drowseCfg, err := config.LoadConfig(path)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load drowse configuration from %s", path)
		return nil, fmt.Errorf("failed to load drowse configuration from %s: %w", path, err)
	}
	cfg.Drowse = &drowseCfg

	level := logging.ParseLevel(drowseCfg.Logging.Level)
	if cfg.Debug {
		level = logging.LevelDebug
	}
	logging.Init(level, logging.Format(drowseCfg.Logging.Format), logOutput)

	services, err := InitializeServices(cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
		ready:    make(chan struct{}),
	}, nil
}

func bootstrapLevel(debug bool) logging.LogLevel {
	if debug {
		return logging.LevelDebug
	}
	return logging.LevelInfo
}

// Run starts the daemon and blocks until ctx is cancelled or a termination
// signal arrives.
func (a *Application) Run(ctx context.Context) error {
	return runDaemon(ctx, a.services, a.ready)
}

// Ready is closed once the orchestrator and HTTP server are up.
func (a *Application) Ready() <-chan struct{} {
	return a.ready
}

// Addr returns the bound HTTP address. Valid after Ready is closed.
func (a *Application) Addr() string {
	return a.services.Server.Addr()
}
