package config

import "fmt"

// ConfigurationError describes a configuration file that could not be used.
type ConfigurationError struct {
	FilePath  string `json:"filePath"`
	ErrorType string `json:"errorType"` // io, parse or validation
	Message   string `json:"message"`
	Err       error  `json:"-"`
}

// Error implements the error interface
func (ce *ConfigurationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", ce.ErrorType, ce.FilePath, ce.Message)
}

func (ce *ConfigurationError) Unwrap() error {
	return ce.Err
}

func newConfigurationError(path, errorType string, err error) *ConfigurationError {
	return &ConfigurationError{
		FilePath:  path,
		ErrorType: errorType,
		Message:   err.Error(),
		Err:       err,
	}
}
