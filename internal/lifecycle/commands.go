package lifecycle

import (
	"fmt"
	"strings"

	"github.com/imamik/hacluster/internal/attributes"
	"github.com/imamik/hacluster/internal/config"
)

// Kind is the type of a command.
type Kind string

// Command kinds.
const (
	// KindCreate pre-registers a machine with the provisioner.
	KindCreate Kind = "create"
	// KindEnsure creates the machine only if the provisioner does not know it.
	KindEnsure Kind = "ensure"
	// KindStorage selects and applies the backend storage strategy.
	KindStorage Kind = "storage"
	// KindConverge applies configuration modules and waits for completion.
	KindConverge Kind = "converge"
	// KindExecute runs a shell command on the machine.
	KindExecute Kind = "execute"
	// KindDelete deletes the machine.
	KindDelete Kind = "delete"
)

// Module is a named unit of machine setup applied by the configuration engine.
type Module string

// Configuration modules.
const (
	ModuleHostname        Module = "hostname"
	ModuleHostsfile       Module = "hostsfile"
	ModuleProvision       Module = "provision"
	ModuleBugfixes        Module = "bugfixes"
	ModuleStorage         Module = "storage-replication"
	ModuleProvisionPhase2 Module = "provision-phase2"
	ModuleUsers           Module = "users"
	ModuleReporting       Module = "reporting"
	ModuleManage          Module = "manage"
	ModulePushJobs        Module = "push-jobs"
)

// ProviderModule returns the provider-specific bootstrap module.
func ProviderModule(provider string) Module {
	return Module(provider)
}

// MachineSpec is everything a provisioner or engine needs for one machine.
type MachineSpec struct {
	Name       string
	Role       string
	Options    config.MachineOptions
	Attributes attributes.Attributes
	Modules    []Module
}

// ModuleNames returns the modules as plain strings.
func (s MachineSpec) ModuleNames() []string {
	names := make([]string, len(s.Modules))
	for i, m := range s.Modules {
		names[i] = string(m)
	}
	return names
}

// Command is a single step emitted by a planner.
type Command struct {
	Kind    Kind
	Machine string
	Role    string

	// Spec is set for create, ensure and converge commands.
	Spec *MachineSpec

	// Script is set for execute commands.
	Script string
}

// String renders the command for plans and logs.
func (c Command) String() string {
	switch c.Kind {
	case KindCreate, KindConverge:
		var modules []string
		if c.Spec != nil {
			modules = c.Spec.ModuleNames()
		}
		return fmt.Sprintf("%s %s [%s]", c.Kind, c.Machine, strings.Join(modules, ", "))
	case KindExecute:
		return fmt.Sprintf("%s %s: %s", c.Kind, c.Machine, c.Script)
	default:
		return fmt.Sprintf("%s %s", c.Kind, c.Machine)
	}
}

// Machines returns the machine of every command, in order.
func Machines(cmds []Command) []string {
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Machine
	}
	return names
}
