package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/hacluster/internal/lifecycle"
)

// Run executes a lifecycle action against the cluster in opts.ConfigPath.
//
// With DryRun set, the plan is printed and nothing is provisioned or
// executed. Registry lookups still happen since they decide the plan.
func Run(ctx context.Context, action lifecycle.Action, opts Options) error {
	cfg, observer, err := setup(opts)
	if err != nil {
		return err
	}

	if opts.DryRun {
		planner, err := newPlanner(ctx, cfg, opts, observer)
		if err != nil {
			return err
		}
		cmds, err := planner.Plan(ctx, action)
		if err != nil {
			return fmt.Errorf("%s: failed to plan: %w", action, err)
		}
		_, _ = fmt.Fprint(stdout, renderPlan(cfg.Name, action, cmds))
		return nil
	}

	rt, err := buildRuntime(ctx, cfg, opts, observer)
	if err != nil {
		return err
	}

	err = rt.dispatcher.Run(ctx, action)
	writeMetrics(rt.metrics, opts.MetricsFile, observer)
	return err
}

// Plan prints the commands of each action without running them.
func Plan(ctx context.Context, actions []lifecycle.Action, opts Options) error {
	cfg, observer, err := setup(opts)
	if err != nil {
		return err
	}

	planner, err := newPlanner(ctx, cfg, opts, observer)
	if err != nil {
		return err
	}

	for _, action := range actions {
		cmds, err := planner.Plan(ctx, action)
		if err != nil {
			return fmt.Errorf("%s: failed to plan: %w", action, err)
		}
		_, _ = fmt.Fprint(stdout, renderPlan(cfg.Name, action, cmds))
	}
	return nil
}
