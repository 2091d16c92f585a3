package lifecycle

import (
	"context"
	"fmt"
	"time"
)

// Action is a lifecycle entry point.
type Action string

// Supported actions. They are independent: the dispatcher does not track
// which actions ran before.
const (
	ActionCreate           Action = "create"
	ActionInstall          Action = "install"
	ActionStopExceptMaster Action = "stop-except-master"
	ActionDestroy          Action = "destroy"
)

// Actions lists every supported action.
var Actions = []Action{ActionCreate, ActionInstall, ActionStopExceptMaster, ActionDestroy}

// ParseAction converts a name to an Action. The underscore spelling
// "stop_except_master" is accepted too.
func ParseAction(name string) (Action, error) {
	switch name {
	case "stop_except_master":
		return ActionStopExceptMaster, nil
	}
	for _, a := range Actions {
		if string(a) == name {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, name)
}

// Dispatcher plans and runs lifecycle actions.
type Dispatcher struct {
	planner  *Planner
	executor *Executor
	observer Observer
	metrics  *Metrics
}

// NewDispatcher creates a dispatcher from a planner and an executor.
func NewDispatcher(planner *Planner, executor *Executor, observer Observer, metrics *Metrics) *Dispatcher {
	if observer == nil {
		observer = NewConsoleObserver()
	}
	return &Dispatcher{planner: planner, executor: executor, observer: observer, metrics: metrics}
}

// Plan returns the commands action would run without running them.
func (d *Dispatcher) Plan(ctx context.Context, action Action) ([]Command, error) {
	return d.planner.Plan(ctx, action)
}

// Run plans and executes action.
func (d *Dispatcher) Run(ctx context.Context, action Action) error {
	start := time.Now()
	obs := d.observer.WithFields(map[string]string{"action": string(action)})

	cmds, err := d.planner.Plan(ctx, action)
	if err != nil {
		LogActionFailed(obs, action, err)
		return fmt.Errorf("%s: failed to plan: %w", action, err)
	}

	LogActionStart(obs, action, len(cmds))
	err = d.executor.Run(ctx, action, cmds)
	d.metrics.recordAction(action, time.Since(start).Seconds())
	if err != nil {
		LogActionFailed(obs, action, err)
		return fmt.Errorf("%s failed: %w", action, err)
	}

	LogActionComplete(obs, action, time.Since(start))
	return nil
}

// RunActions runs several actions in order and stops at the first failure.
func (d *Dispatcher) RunActions(ctx context.Context, actions []Action) error {
	for _, action := range actions {
		if err := d.Run(ctx, action); err != nil {
			return err
		}
	}
	return nil
}
