package cmd

import (
	"github.com/spf13/cobra"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show lifecycle and performance metrics",
	Long: `Show metrics collected by a running drowse daemon.

Prometheus metrics are served separately at /metrics on the daemon's
listen address.`,
}

var metricsSystemCmd = &cobra.Command{
	Use:   "system",
	Short: "Show service state counts, sleep ratio and host resource pressure",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		m, err := c.SystemMetrics(cmd.Context())
		if err != nil {
			return connErr(c, err)
		}
		return newPrinter(cmd).PrintSystemMetrics(m)
	},
}

var metricsPerformanceCmd = &cobra.Command{
	Use:               "performance [name]",
	Short:             "Show wake and sleep latency statistics",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: serviceNameCompletion,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		p := newPrinter(cmd)
		if len(args) == 1 {
			s, err := c.ServiceMetrics(cmd.Context(), args[0])
			if err != nil {
				return connErr(c, err)
			}
			return p.PrintPerformanceSummary(s)
		}
		all, err := c.PerformanceMetrics(cmd.Context())
		if err != nil {
			return connErr(c, err)
		}
		return p.PrintPerformance(all)
	},
}

var metricsPredictionCmd = &cobra.Command{
	Use:               "prediction <name>",
	Short:             "Show how likely a service is to be needed soon",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: serviceNameCompletion,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		pred, err := c.Prediction(cmd.Context(), args[0])
		if err != nil {
			return connErr(c, err)
		}
		return newPrinter(cmd).PrintPrediction(pred)
	},
}

func init() {
	rootCmd.AddCommand(metricsCmd)
	metricsCmd.AddCommand(metricsSystemCmd, metricsPerformanceCmd, metricsPredictionCmd)
}
