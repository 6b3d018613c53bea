package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"drowse/internal/app"
)

var (
	serveDebug      bool
	serveConfigPath string
)

// serveCmd runs the drowse daemon in the foreground.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the drowse daemon",
	Long: `Starts the lifecycle controller and its REST/MCP server.

The daemon starts services marked auto_start, periodically puts idle
services to sleep and serves wake requests until it receives SIGINT or
SIGTERM. On shutdown queued wake requests are cancelled and every managed
container is stopped.

Configuration is read from --config, or ~/.config/drowse/config.yaml when
the flag is not given. Changes to sleep_settings in that file are applied
without a restart; changes to services require one.

When started by systemd with Type=notify, readiness is reported once the
HTTP listener is up.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.NewConfig(serveDebug, serveConfigPath, GetVersion())

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Configuration file (default ~/.config/drowse/config.yaml)")
}
