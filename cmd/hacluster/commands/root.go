// Package commands defines the CLI command structure and flag bindings.
//
// Command execution is delegated to handler functions in the handlers
// package.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/hacluster/cmd/hacluster/handlers"
)

// Root returns the root command for the hacluster CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "hacluster",
		Short:         "Provision and operate a high-availability cluster",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Lifecycle actions
	cmd.AddCommand(Create())
	cmd.AddCommand(Install())
	cmd.AddCommand(Stop())
	cmd.AddCommand(Destroy())

	// Utility commands
	cmd.AddCommand(Plan())
	cmd.AddCommand(Storage())
	cmd.AddCommand(Version())

	return cmd
}

// bindCommonFlags registers the flags every lifecycle command shares.
func bindCommonFlags(cmd *cobra.Command, opts *handlers.Options) {
	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to cluster configuration file (required)")
	cmd.Flags().StringVar(&opts.LogFormat, "log-format", handlers.LogFormatText, "Log output format: text or json")
	_ = cmd.MarkFlagRequired("config")
}

// bindRunFlags registers the flags of commands that change machines.
func bindRunFlags(cmd *cobra.Command, opts *handlers.Options) {
	bindCommonFlags(cmd, opts)
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print the planned commands without running them")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile after the run")
}
