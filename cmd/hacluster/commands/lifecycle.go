package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/hacluster/cmd/hacluster/handlers"
	"github.com/imamik/hacluster/internal/lifecycle"
)

// Create returns the create command.
//
// Create pre-registers machines with providers that need identity and
// address before installation. Only ec2 does; for other providers the
// command does nothing.
func Create() *cobra.Command {
	var opts handlers.Options

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Pre-register cluster machines with the provider",
		Long: `Create launches every machine the node registry does not know yet.

Machines already provisioned are skipped. Each new machine gets the
cluster attributes and the hostname and provider modules as first-boot
user data. Providers other than ec2 need no pre-registration.

Example:
  hacluster create -c hacluster.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Run(cmd.Context(), lifecycle.ActionCreate, opts)
		},
	}

	bindRunFlags(cmd, &opts)
	cmd.Flags().StringVar(&opts.Package, "package", "", "Override the default package for this run")

	return cmd
}

// Install returns the install command.
func Install() *cobra.Command {
	var opts handlers.Options

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install and configure the cluster on every machine",
		Long: `Install brings every machine to its configured state.

For each backend, then each frontend, in the order of the cluster
definition:
  - Ensure the machine exists
  - Set up replicated storage (backends only)
  - Run the configuration engine with the machine's modules

The run stops at the first failure.

Example:
  hacluster install -c hacluster.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Run(cmd.Context(), lifecycle.ActionInstall, opts)
		},
	}

	bindRunFlags(cmd, &opts)
	cmd.Flags().StringVar(&opts.Package, "package", "", "Override the default package for this run")

	return cmd
}

// Stop returns the stop command.
func Stop() *cobra.Command {
	var opts handlers.Options

	cmd := &cobra.Command{
		Use:     "stop",
		Aliases: []string{"stop-except-master"},
		Short:   "Stop the product on every machine except the bootstrap backend",
		Long: `Stop runs the service control stop command on every backend other than
the bootstrap backend, then on every frontend.

The bootstrap backend keeps running. The command refuses to run when no
backend is flagged as bootstrap.

Example:
  hacluster stop -c hacluster.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Run(cmd.Context(), lifecycle.ActionStopExceptMaster, opts)
		},
	}

	bindRunFlags(cmd, &opts)

	return cmd
}

// Destroy returns the destroy command.
func Destroy() *cobra.Command {
	var opts handlers.Options

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Delete every cluster machine",
		Long: `Destroy deletes every backend, then every frontend.

Machines that no longer exist are skipped by the provider.

Example:
  hacluster destroy -c hacluster.yaml

WARNING: This operation is irreversible. All cluster data will be lost.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Run(cmd.Context(), lifecycle.ActionDestroy, opts)
		},
	}

	bindRunFlags(cmd, &opts)

	return cmd
}
