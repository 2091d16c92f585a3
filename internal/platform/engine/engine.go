// Package engine runs the configuration engine on cluster machines.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/imamik/hacluster/internal/lifecycle"
)

// Placeholders substituted in the engine command.
const (
	PlaceholderAttributes = "{attributes}"
	PlaceholderModules    = "{modules}"
)

// Runner runs a command on a machine with the given stdin.
type Runner interface {
	ExecuteWithInput(ctx context.Context, machine, command string, stdin []byte) (string, error)
}

// SSHEngine converges machines by uploading their attributes and running
// the engine command over SSH. Converge returns when the engine exits.
type SSHEngine struct {
	runner         Runner
	command        string
	attributesPath string
	timeout        time.Duration
	logger         lifecycle.Logger
}

// Option configures an SSHEngine.
type Option func(*SSHEngine)

// WithTimeout bounds a single engine run.
func WithTimeout(d time.Duration) Option {
	return func(e *SSHEngine) {
		e.timeout = d
	}
}

// WithLogger sets the logger used for engine output.
func WithLogger(logger lifecycle.Logger) Option {
	return func(e *SSHEngine) {
		e.logger = logger
	}
}

// New creates an engine adapter. command may contain the {attributes} and
// {modules} placeholders.
func New(runner Runner, command, attributesPath string, opts ...Option) *SSHEngine {
	e := &SSHEngine{runner: runner, command: command, attributesPath: attributesPath}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Converge implements lifecycle.Engine.
func (e *SSHEngine) Converge(ctx context.Context, spec lifecycle.MachineSpec) error {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	payload, err := json.MarshalIndent(spec.Attributes, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode attributes for %s: %w", spec.Name, err)
	}

	upload := fmt.Sprintf("mkdir -p %s && umask 077 && cat > %s", path.Dir(e.attributesPath), e.attributesPath)
	if _, err := e.runner.ExecuteWithInput(ctx, spec.Name, upload, payload); err != nil {
		return fmt.Errorf("failed to upload attributes to %s: %w", spec.Name, err)
	}

	cmd := e.Command(spec)
	out, err := e.runner.ExecuteWithInput(ctx, spec.Name, cmd, nil)
	if e.logger != nil && out != "" {
		e.logger.Printf("[engine] %s: %s", spec.Name, strings.TrimSpace(out))
	}
	if err != nil {
		return fmt.Errorf("configuration run on %s failed: %w", spec.Name, err)
	}
	return nil
}

// Command returns the engine command for spec with placeholders replaced.
func (e *SSHEngine) Command(spec lifecycle.MachineSpec) string {
	return strings.NewReplacer(
		PlaceholderAttributes, e.attributesPath,
		PlaceholderModules, strings.Join(spec.ModuleNames(), ","),
	).Replace(e.command)
}
