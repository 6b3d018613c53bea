package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"drowse/internal/cli"
	"drowse/internal/client"
)

var (
	rootEndpoint     string
	rootOutputFormat string
	rootNoHeaders    bool
	rootQuiet        bool
)

// rootCmd represents the base command for the drowse application.
var rootCmd = &cobra.Command{
	Use:   "drowse",
	Short: "Put idle MCP server containers to sleep and wake them on demand",
	Long: `drowse manages the lifecycle of MCP servers running as containers.

Idle services are paused and their memory reservation is lowered; they are
woken again when a request needs them. Run 'drowse serve' to start the
daemon, then use 'drowse service' and 'drowse metrics' to inspect and
control it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return cli.ValidateOutputFormat(rootOutputFormat)
	},
}

// SetVersion sets the version for the root command.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "drowse version %s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err))
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().StringVar(&rootEndpoint, "endpoint", "", fmt.Sprintf("drowse daemon URL (default %s, or $%s)", client.DefaultEndpoint, cli.EndpointEnvVar))
	rootCmd.PersistentFlags().StringVarP(&rootOutputFormat, "output", "o", string(cli.OutputFormatTable), "Output format (table, wide, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&rootNoHeaders, "no-headers", false, "Omit table headers")
	rootCmd.PersistentFlags().BoolVarP(&rootQuiet, "quiet", "q", false, "Suppress progress spinners")
}

func outputOptions() cli.Options {
	return cli.Options{
		Format:    cli.OutputFormat(rootOutputFormat),
		NoHeaders: rootNoHeaders,
		Quiet:     rootQuiet,
	}
}

func newClient() *client.Client {
	endpoint := rootEndpoint
	if endpoint == "" {
		endpoint = cli.GetDefaultEndpoint()
	}
	return client.New(endpoint)
}

func newPrinter(cmd *cobra.Command) *cli.Printer {
	return cli.NewPrinter(cmd.OutOrStdout(), outputOptions())
}

// connErr turns transport failures into a ConnectionError with a hint.
func connErr(c *client.Client, err error) error {
	if ce := cli.ClassifyConnectionError(err, c.Endpoint()); ce != nil {
		return ce
	}
	return err
}

// serviceNameCompletion completes service names from the running daemon.
func serviceNameCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) != 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	services, err := newClient().ListServices(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	names := make([]string, 0, len(services))
	for _, s := range services {
		names = append(names, s.Name)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
