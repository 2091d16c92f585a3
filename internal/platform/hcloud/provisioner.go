package hcloud

import (
	"context"
	"errors"
	"fmt"

	"github.com/imamik/hacluster/internal/lifecycle"
	"github.com/imamik/hacluster/internal/util/labels"
)

// ServerAPI is the subset of RealClient the provisioner uses.
type ServerAPI interface {
	CreateServer(ctx context.Context, spec ServerSpec) (int64, error)
	DeleteServer(ctx context.Context, name string) error
	ServerExists(ctx context.Context, name string) (bool, error)
	GetServerIP(ctx context.Context, name string) (string, error)
}

// UserDataRenderer renders first-boot user data for a machine.
type UserDataRenderer interface {
	UserData(spec lifecycle.MachineSpec) (string, error)
}

// RemoteExecutor runs commands on machines by name.
type RemoteExecutor interface {
	Execute(ctx context.Context, machine, command string) (string, error)
}

// errNoRemote is returned by ExecuteRemote before SetRemote was called.
var errNoRemote = errors.New("remote execution is not configured")

// Provisioner implements lifecycle.Provisioner on Hetzner Cloud.
type Provisioner struct {
	api      ServerAPI
	cluster  string
	userData UserDataRenderer
	remote   RemoteExecutor
}

// NewProvisioner creates a provisioner for cluster. userData may be nil.
func NewProvisioner(api ServerAPI, cluster string, userData UserDataRenderer) *Provisioner {
	return &Provisioner{api: api, cluster: cluster, userData: userData}
}

// SetRemote sets the executor used by ExecuteRemote. Remote executors
// usually resolve addresses through the provisioner itself, so this is set
// after construction.
func (p *Provisioner) SetRemote(remote RemoteExecutor) {
	p.remote = remote
}

// CreateMachine implements lifecycle.Provisioner.
func (p *Provisioner) CreateMachine(ctx context.Context, spec lifecycle.MachineSpec) error {
	var userData string
	if p.userData != nil {
		var err error
		if userData, err = p.userData.UserData(spec); err != nil {
			return err
		}
	}

	_, err := p.api.CreateServer(ctx, ServerSpec{
		Name:       spec.Name,
		Image:      spec.Options.Image,
		ServerType: spec.Options.Type,
		Location:   spec.Options.Location,
		SSHKeys:    spec.Options.SSHKeys,
		Labels: labels.NewLabelBuilder(p.cluster).
			WithRole(spec.Role).
			WithMachine(spec.Name).
			Merge(spec.Options.Labels).
			Build(),
		UserData: userData,
	})
	return err
}

// DeleteMachine implements lifecycle.Provisioner.
func (p *Provisioner) DeleteMachine(ctx context.Context, name string) error {
	return p.api.DeleteServer(ctx, name)
}

// MachineExists implements lifecycle.Provisioner.
func (p *Provisioner) MachineExists(ctx context.Context, name string) (bool, error) {
	return p.api.ServerExists(ctx, name)
}

// ExecuteRemote implements lifecycle.Provisioner.
func (p *Provisioner) ExecuteRemote(ctx context.Context, name, command string) (string, error) {
	if p.remote == nil {
		return "", fmt.Errorf("%s: %w", name, errNoRemote)
	}
	return p.remote.Execute(ctx, name, command)
}

// Address returns the public address of a machine.
func (p *Provisioner) Address(ctx context.Context, name string) (string, error) {
	return p.api.GetServerIP(ctx, name)
}
