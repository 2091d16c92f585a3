package lifecycle

import "errors"

var (
	// ErrUnknownAction is returned for an action name that is not supported.
	ErrUnknownAction = errors.New("unknown action")

	// ErrNotConfigured is returned when a command needs a collaborator that
	// was not provided.
	ErrNotConfigured = errors.New("collaborator not configured")

	// ErrMachineNotFound is returned for a machine name that is not in the
	// cluster definition.
	ErrMachineNotFound = errors.New("machine not found in cluster definition")
)
