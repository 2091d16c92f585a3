package lifecycle

import (
	"context"
	"fmt"

	"github.com/imamik/hacluster/internal/attributes"
	"github.com/imamik/hacluster/internal/config"
	"github.com/imamik/hacluster/internal/election"
	"github.com/imamik/hacluster/internal/registry"
)

// Planner turns the cluster definition into ordered command lists. It reads
// the registry but never changes anything.
type Planner struct {
	cfg      *config.Config
	composer *attributes.Composer
	registry registry.Client
	observer Observer

	// pkg overrides the default installer package.
	pkg string
}

// NewPlanner creates a planner. reg may be nil for actions that never
// consult the registry.
func NewPlanner(cfg *config.Config, composer *attributes.Composer, reg registry.Client, observer Observer) *Planner {
	if observer == nil {
		observer = NewConsoleObserver()
	}
	return &Planner{cfg: cfg, composer: composer, registry: reg, observer: observer}
}

// WithPackage returns a copy of the planner that installs pkg instead of
// the default package.
func (p *Planner) WithPackage(pkg string) *Planner {
	cp := *p
	cp.pkg = pkg
	return &cp
}

// Plan returns the commands for action.
func (p *Planner) Plan(ctx context.Context, action Action) ([]Command, error) {
	switch action {
	case ActionCreate:
		return p.Create(ctx)
	case ActionInstall:
		return p.Install(ctx)
	case ActionStopExceptMaster:
		return p.StopExceptMaster(ctx)
	case ActionDestroy:
		return p.Destroy(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

// Create pre-registers machines for provisioners that need identity and
// address up front. Only ec2 does; every other provider gets no commands.
// Machines the registry already reports as provisioned are skipped.
func (p *Planner) Create(ctx context.Context) ([]Command, error) {
	if p.cfg.Provider != config.ProviderEC2 {
		p.observer.Printf("[%s] provider %s needs no pre-registration, nothing to do", ActionCreate, p.cfg.Provider)
		return nil, nil
	}
	if p.registry == nil {
		return nil, fmt.Errorf("%s requires a node registry", ActionCreate)
	}

	var cmds []Command
	for _, m := range p.cfg.AllMachines() {
		exists, err := p.registry.Exists(ctx, m.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to look up %s in the node registry: %w", m.Name, err)
		}
		if exists {
			LogMachineSkipped(p.observer, ActionCreate, m.Name, "already provisioned")
			continue
		}

		spec := p.spec(ctx, m.Name, attributes.Options{Package: p.pkg, WithCloud: true},
			[]Module{ModuleHostname, ProviderModule(p.cfg.Provider)})
		cmds = append(cmds, Command{Kind: KindCreate, Machine: m.Name, Role: spec.Role, Spec: &spec})
	}
	return cmds, nil
}

// Install ensures every machine and applies the configuration modules for
// the machine's role. Backends converge in two passes around the storage
// step, so replication is set up on a provisioned host.
func (p *Planner) Install(ctx context.Context) ([]Command, error) {
	bootstrap := election.Elect(p.cfg.VMConfig.Backends)
	if _, ok := bootstrap.Name(); !ok {
		// Install still proceeds; only the bootstrap-only modules are left out.
		LogValidationWarning(p.observer, "vm_config.backends", "no bootstrap backend elected, user setup will not run")
	}

	var cmds []Command
	for _, m := range p.cfg.AllMachines() {
		opts := attributes.Options{Package: p.pkg}
		role := p.cfg.RoleOf(m.Name)

		ensure := p.spec(ctx, m.Name, opts, nil)
		cmds = append(cmds, Command{Kind: KindEnsure, Machine: m.Name, Role: role, Spec: &ensure})

		base, rest := p.installModules(m.Name, bootstrap)
		if role != config.RoleBackend {
			converge := p.spec(ctx, m.Name, opts, append(base, rest...))
			cmds = append(cmds, Command{Kind: KindConverge, Machine: m.Name, Role: role, Spec: &converge})
			continue
		}

		provision := p.spec(ctx, m.Name, opts, base)
		finish := p.spec(ctx, m.Name, opts, rest)
		cmds = append(cmds,
			Command{Kind: KindConverge, Machine: m.Name, Role: role, Spec: &provision},
			Command{Kind: KindStorage, Machine: m.Name, Role: role},
			Command{Kind: KindConverge, Machine: m.Name, Role: role, Spec: &finish},
		)
	}
	return cmds, nil
}

// installModules returns the ordered module list for a machine, split into
// the host setup modules and everything from storage replication onwards.
func (p *Planner) installModules(name string, bootstrap election.Result) (base, rest []Module) {
	base = []Module{ModuleHostsfile, ModuleProvision, ModuleBugfixes}
	if p.cfg.IsBackend(name) {
		rest = append(rest, ModuleStorage)
	}
	rest = append(rest, ModuleProvisionPhase2)
	if bootstrap.Is(name) {
		rest = append(rest, ModuleUsers)
	}
	if p.cfg.Packages.Reporting != "" {
		rest = append(rest, ModuleReporting)
	}
	if p.cfg.Packages.Manage != "" && p.cfg.IsFrontend(name) {
		rest = append(rest, ModuleManage)
	}
	if p.cfg.Packages.PushJobs != "" {
		rest = append(rest, ModulePushJobs)
	}
	return base, rest
}

// StopExceptMaster stops the product on every backend except the
// bootstrap node, then on every frontend. It refuses to plan without a
// bootstrap node, because the result would stop the whole cluster.
func (p *Planner) StopExceptMaster(_ context.Context) ([]Command, error) {
	master, err := election.Elect(p.cfg.VMConfig.Backends).Require()
	if err != nil {
		return nil, fmt.Errorf("cannot determine the machine to keep running: %w", err)
	}

	script := StopScript(p.cfg.Control.Command)

	var cmds []Command
	for _, m := range p.cfg.VMConfig.Backends {
		if m.Name == master {
			LogMachineSkipped(p.observer, ActionStopExceptMaster, m.Name, "bootstrap node keeps running")
			continue
		}
		cmds = append(cmds, Command{Kind: KindExecute, Machine: m.Name, Role: config.RoleBackend, Script: script})
	}
	for _, m := range p.cfg.VMConfig.Frontends {
		cmds = append(cmds, Command{Kind: KindExecute, Machine: m.Name, Role: config.RoleFrontend, Script: script})
	}
	return cmds, nil
}

// Destroy deletes every machine without looking at its current state.
func (p *Planner) Destroy(_ context.Context) ([]Command, error) {
	var cmds []Command
	for _, m := range p.cfg.AllMachines() {
		cmds = append(cmds, Command{Kind: KindDelete, Machine: m.Name, Role: p.cfg.RoleOf(m.Name)})
	}
	return cmds, nil
}

// StopScript returns the stop command for the product. The trailing
// "exit 0" makes the remote command succeed whatever the stop result.
func StopScript(control string) string {
	return control + " stop ; exit 0"
}

func (p *Planner) spec(ctx context.Context, name string, opts attributes.Options, modules []Module) MachineSpec {
	return MachineSpec{
		Name:       name,
		Role:       p.cfg.RoleOf(name),
		Options:    p.cfg.OptionsFor(name),
		Attributes: p.composer.Compose(ctx, opts),
		Modules:    modules,
	}
}
