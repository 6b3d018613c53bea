package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"drowse/internal/api"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the daemon health",
	Long:  `Prints the daemon health and exits non-zero unless it is healthy.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		report, err := c.Health(cmd.Context())
		if err != nil {
			return connErr(c, err)
		}
		if err := newPrinter(cmd).PrintHealth(report); err != nil {
			return err
		}
		if report.Status != api.HealthHealthy {
			return fmt.Errorf("daemon is %s", report.Status)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
