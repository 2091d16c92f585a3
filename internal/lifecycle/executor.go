package lifecycle

import (
	"context"
	"fmt"
	"time"
)

// Executor runs planned commands against the external collaborators.
// Commands run one at a time in order; the first failure stops the run.
type Executor struct {
	provisioner Provisioner
	engine      Engine
	storage     StorageApplier
	observer    Observer
	metrics     *Metrics
}

// NewExecutor creates an executor. Collaborators that an action never
// needs may be nil; a command that needs a missing one fails.
func NewExecutor(provisioner Provisioner, engine Engine, storage StorageApplier, observer Observer, metrics *Metrics) *Executor {
	if observer == nil {
		observer = NewConsoleObserver()
	}
	return &Executor{
		provisioner: provisioner,
		engine:      engine,
		storage:     storage,
		observer:    observer,
		metrics:     metrics,
	}
}

// Run executes cmds for action in order.
func (e *Executor) Run(ctx context.Context, action Action, cmds []Command) error {
	for i, cmd := range cmds {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		LogCommandStarted(e.observer, action, cmd)
		e.observer.Progress(string(action), i+1, len(cmds))

		err := e.execute(ctx, cmd)
		e.metrics.recordCommand(action, cmd.Kind, err)
		if err != nil {
			LogCommandFailed(e.observer, action, cmd, err)
			return fmt.Errorf("%s %s: %w", cmd.Kind, cmd.Machine, err)
		}

		LogCommandCompleted(e.observer, action, cmd, time.Since(start))
	}
	return nil
}

func (e *Executor) execute(ctx context.Context, cmd Command) error {
	switch cmd.Kind {
	case KindCreate:
		if e.provisioner == nil {
			return fmt.Errorf("provisioner: %w", ErrNotConfigured)
		}
		return e.provisioner.CreateMachine(ctx, *cmd.Spec)

	case KindEnsure:
		if e.provisioner == nil {
			return fmt.Errorf("provisioner: %w", ErrNotConfigured)
		}
		exists, err := e.provisioner.MachineExists(ctx, cmd.Machine)
		if err != nil {
			return fmt.Errorf("failed to check machine: %w", err)
		}
		if exists {
			return nil
		}
		e.observer.Printf("[%s] machine %s does not exist, creating", cmd.Kind, cmd.Machine)
		return e.provisioner.CreateMachine(ctx, *cmd.Spec)

	case KindStorage:
		if e.storage == nil {
			return fmt.Errorf("storage: %w", ErrNotConfigured)
		}
		return e.storage.SelectAndApply(ctx, cmd.Machine)

	case KindConverge:
		if e.engine == nil {
			return fmt.Errorf("engine: %w", ErrNotConfigured)
		}
		return e.engine.Converge(ctx, *cmd.Spec)

	case KindExecute:
		if e.provisioner == nil {
			return fmt.Errorf("provisioner: %w", ErrNotConfigured)
		}
		out, err := e.provisioner.ExecuteRemote(ctx, cmd.Machine, cmd.Script)
		if out != "" {
			e.observer.Printf("[%s] %s: %s", cmd.Kind, cmd.Machine, out)
		}
		return err

	case KindDelete:
		if e.provisioner == nil {
			return fmt.Errorf("provisioner: %w", ErrNotConfigured)
		}
		return e.provisioner.DeleteMachine(ctx, cmd.Machine)

	default:
		return fmt.Errorf("unsupported command kind %q", cmd.Kind)
	}
}
