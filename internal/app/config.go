package app

import (
	"io"

	"drowse/internal/config"
)

// Config holds the application configuration
type Config struct {
	// Debug forces debug logging regardless of logging.level.
	Debug bool

	// Silent discards all log output.
	Silent bool

	// ConfigPath is the configuration file. Empty means
	// ~/.config/drowse/config.yaml.
	ConfigPath string

	// LogOutput defaults to stdout.
	LogOutput io.Writer

	// Version is reported by the MCP endpoint.
	Version string

	// Drowse is the loaded configuration, filled in by NewApplication.
	Drowse *config.Config
}

// NewConfig creates a new application configuration
func NewConfig(debug bool, configPath, version string) *Config {
	return &Config{
		Debug:      debug,
		ConfigPath: configPath,
		Version:    version,
	}
}
