package lifecycle

import "context"

// Provisioner creates, deletes and reaches machines.
type Provisioner interface {
	// CreateMachine creates the machine described by spec.
	CreateMachine(ctx context.Context, spec MachineSpec) error

	// DeleteMachine deletes the machine. Deleting an absent machine succeeds.
	DeleteMachine(ctx context.Context, name string) error

	// ExecuteRemote runs command on the machine and returns its output.
	ExecuteRemote(ctx context.Context, name, command string) (string, error)

	// MachineExists reports whether the provisioner knows the machine.
	MachineExists(ctx context.Context, name string) (bool, error)
}

// Engine applies configuration modules to a machine. Converge blocks until
// the run has finished.
type Engine interface {
	Converge(ctx context.Context, spec MachineSpec) error
}

// StorageApplier sets up replicated storage on a backend host.
type StorageApplier interface {
	SelectAndApply(ctx context.Context, host string) error
}
