package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/hacluster/cmd/hacluster/handlers"
)

// Storage returns the storage command group.
func Storage() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Manage backend replicated storage",
	}

	cmd.AddCommand(StorageApply())

	return cmd
}

// StorageApply returns the storage apply command.
func StorageApply() *cobra.Command {
	var (
		opts  handlers.Options
		local bool
	)

	cmd := &cobra.Command{
		Use:   "apply <machine>",
		Short: "Select and apply the storage strategy for a backend",
		Long: `Apply decides between the provider-replicated shared volume and local
block replication for a machine, then applies it.

With --local the command runs on the machine itself: the ready marker
is read from the local filesystem and the shared volume is attached to
the instance reported by the metadata service.

Example:
  hacluster storage apply be1 -c hacluster.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.StorageApply(cmd.Context(), args[0], local, opts)
		},
	}

	bindCommonFlags(cmd, &opts)
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print the decision without applying it")
	cmd.Flags().BoolVar(&local, "local", false, "Run on the machine itself")

	return cmd
}
