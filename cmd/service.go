package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"drowse/internal/api"
	"drowse/internal/cli"
	"drowse/internal/client"
)

var serviceCmd = &cobra.Command{
	Use:     "service",
	Aliases: []string{"services", "svc"},
	Short:   "Inspect and control managed services",
	Long: `Inspect and control the services managed by a running drowse daemon.

Examples:
  drowse service list
  drowse service get translate -o yaml
  drowse service wake translate
  drowse service wake-request translate`,
}

var serviceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List managed services",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		services, err := c.ListServices(cmd.Context())
		if err != nil {
			return connErr(c, err)
		}
		return newPrinter(cmd).PrintServices(services, time.Now())
	},
}

var serviceGetCmd = &cobra.Command{
	Use:               "get <name>",
	Short:             "Show a single service",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: serviceNameCompletion,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		st, err := c.GetService(cmd.Context(), args[0])
		if err != nil {
			return connErr(c, err)
		}
		return newPrinter(cmd).PrintService(st, time.Now())
	},
}

var serviceWakeRequestCmd = &cobra.Command{
	Use:               "wake-request <name>",
	Short:             "Queue an asynchronous wake and return immediately",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: serviceNameCompletion,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		accepted, err := c.RequestWake(cmd.Context(), args[0])
		if err != nil {
			return connErr(c, err)
		}
		return newPrinter(cmd).PrintWakeRequest(accepted)
	},
}

type lifecycleCall func(c *client.Client, ctx context.Context, name string) (api.ServiceStatus, error)

// newLifecycleCmd builds a command that performs one blocking transition.
func newLifecycleCmd(use, short, progress, verb string, call lifecycleCall) *cobra.Command {
	return &cobra.Command{
		Use:               use + " <name>",
		Short:             short,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: serviceNameCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			name := args[0]

			var st api.ServiceStatus
			err := cli.RunWithSpinner(outputOptions(), fmt.Sprintf("%s %s", progress, name), func() error {
				var err error
				st, err = call(c, cmd.Context(), name)
				return err
			})
			if err != nil {
				return connErr(c, err)
			}

			p := newPrinter(cmd)
			if err := p.PrintTransition(verb, st); err != nil {
				return err
			}
			if use == "sleep" && st.State != api.StateSleeping && !p.Structured() {
				fmt.Fprintln(cmd.OutOrStdout(), "  sleep was not allowed by the sleep policy or current resource pressure")
			}
			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(serviceCmd)

	serviceCmd.AddCommand(
		serviceListCmd,
		serviceGetCmd,
		newLifecycleCmd("start", "Start a service, or wake it if it is sleeping", "Starting", "start", (*client.Client).StartService),
		newLifecycleCmd("stop", "Stop a service", "Stopping", "stop", (*client.Client).StopService),
		newLifecycleCmd("sleep", "Put a running service to sleep", "Pausing", "sleep", (*client.Client).SleepService),
		newLifecycleCmd("wake", "Wake a sleeping service and wait until it is running", "Waking", "wake", (*client.Client).WakeService),
		newLifecycleCmd("access", "Mark a running service as recently used", "Recording access for", "access", (*client.Client).RecordAccess),
		serviceWakeRequestCmd,
	)
}
