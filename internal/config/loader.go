package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"drowse/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/drowse"
	configFileName = "config.yaml"
)

// DefaultConfigPath returns ~/.config/drowse/config.yaml.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

// LoadConfig reads the configuration file at path on top of the defaults.
// A missing file is not an error and yields the defaults.
func LoadConfig(path string) (Config, error) {
	config := GetDefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("Config", "No config file found at %s, using defaults", path)
			config.ApplyDefaults()
			return config, nil
		}
		return Config{}, newConfigurationError(path, "io", err)
	}

	config, err = Parse(data)
	if err != nil {
		var verrs ValidationErrors
		if errors.As(err, &verrs) {
			return Config{}, newConfigurationError(path, "validation", err)
		}
		return Config{}, newConfigurationError(path, "parse", err)
	}

	logging.Info("Config", "Loaded configuration from %s (%d services)", path, len(config.Services))
	return config, nil
}

// Parse decodes YAML on top of the defaults, fills remaining defaults and
// validates the result.
func Parse(data []byte) (Config, error) {
	config := GetDefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, err
	}
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}
