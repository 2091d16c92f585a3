package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/hacluster/cmd/hacluster/handlers"
	"github.com/imamik/hacluster/internal/lifecycle"
)

// Plan returns the plan command.
func Plan() *cobra.Command {
	var opts handlers.Options

	cmd := &cobra.Command{
		Use:   "plan [action...]",
		Short: "Print the commands an action would run",
		Long: `Plan prints the ordered commands of one or more actions without
running them. Without arguments every action is planned.

Actions: create, install, stop-except-master, destroy.

Example:
  hacluster plan install -c hacluster.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			actions, err := parseActions(args)
			if err != nil {
				return err
			}
			return handlers.Plan(cmd.Context(), actions, opts)
		},
	}

	bindCommonFlags(cmd, &opts)
	cmd.Flags().StringVar(&opts.Package, "package", "", "Override the default package")

	return cmd
}

// parseActions converts arguments to actions. No arguments means all.
func parseActions(args []string) ([]lifecycle.Action, error) {
	if len(args) == 0 {
		return lifecycle.Actions, nil
	}
	actions := make([]lifecycle.Action, 0, len(args))
	for _, arg := range args {
		action, err := lifecycle.ParseAction(arg)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, nil
}
