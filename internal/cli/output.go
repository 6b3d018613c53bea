package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// OutputFormat represents the supported output formats for CLI commands.
type OutputFormat string

const (
	// OutputFormatTable formats output as a kubectl-style plain table
	OutputFormatTable OutputFormat = "table"
	// OutputFormatWide formats output as a table with additional columns
	OutputFormatWide OutputFormat = "wide"
	// OutputFormatJSON formats output as raw JSON data
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML formats output as YAML data
	OutputFormatYAML OutputFormat = "yaml"
)

// ValidOutputFormats contains all valid output format values.
var ValidOutputFormats = []OutputFormat{
	OutputFormatTable,
	OutputFormatWide,
	OutputFormatJSON,
	OutputFormatYAML,
}

// ValidateOutputFormat validates that the given format string is a supported output format.
func ValidateOutputFormat(format string) error {
	switch OutputFormat(format) {
	case OutputFormatTable, OutputFormatWide, OutputFormatJSON, OutputFormatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format: %q (valid: table, wide, json, yaml)", format)
	}
}

// EndpointEnvVar is the environment variable name for setting the default endpoint.
const EndpointEnvVar = "DROWSE_ENDPOINT"

// GetDefaultEndpoint returns the endpoint from environment variable if set.
func GetDefaultEndpoint() string {
	return os.Getenv(EndpointEnvVar)
}

// Options controls how command results are printed.
type Options struct {
	Format    OutputFormat
	NoHeaders bool
	Quiet     bool
}

// Printer renders command results to a writer.
type Printer struct {
	out     io.Writer
	options Options
}

// NewPrinter creates a printer. An empty format means table.
func NewPrinter(out io.Writer, options Options) *Printer {
	if options.Format == "" {
		options.Format = OutputFormatTable
	}
	return &Printer{out: out, options: options}
}

// Structured reports whether the format is json or yaml.
func (p *Printer) Structured() bool {
	return p.options.Format == OutputFormatJSON || p.options.Format == OutputFormatYAML
}

// Wide reports whether extra table columns were requested.
func (p *Printer) Wide() bool {
	return p.options.Format == OutputFormatWide
}

// encode writes v as JSON or YAML.
func (p *Printer) encode(v interface{}) error {
	switch p.options.Format {
	case OutputFormatYAML:
		enc := yaml.NewEncoder(p.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}
