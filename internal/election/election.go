// Package election selects the backend that performs first-time cluster setup.
package election

import (
	"errors"

	"github.com/imamik/hacluster/internal/config"
)

// ErrNoBootstrap is returned by Result.Require when no backend is flagged.
var ErrNoBootstrap = errors.New("no backend is flagged as the bootstrap node")

// Result is the outcome of an election. It is either a single machine name
// or empty; callers must decide explicitly how to handle the empty case.
type Result struct {
	name  string
	found bool
}

// Elect returns the first backend, in definition order, whose bootstrap flag
// is set. Further flagged backends are ignored.
func Elect(backends config.Machines) Result {
	for _, m := range backends {
		if m.Bootstrap {
			return Result{name: m.Name, found: true}
		}
	}
	return Result{}
}

// Name returns the elected machine and whether there is one.
func (r Result) Name() (string, bool) {
	return r.name, r.found
}

// Require returns the elected machine or ErrNoBootstrap.
func (r Result) Require() (string, error) {
	if !r.found {
		return "", ErrNoBootstrap
	}
	return r.name, nil
}

// Is reports whether name is the elected machine. It is always false for
// an empty result.
func (r Result) Is(name string) bool {
	return r.found && r.name == name
}

// String implements fmt.Stringer.
func (r Result) String() string {
	if !r.found {
		return "<none>"
	}
	return r.name
}
