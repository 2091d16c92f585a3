package ec2

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/imamik/hacluster/internal/config"
	"github.com/imamik/hacluster/internal/lifecycle"
	"github.com/imamik/hacluster/internal/util/labels"
)

// UserDataRenderer renders first-boot user data for a machine.
type UserDataRenderer interface {
	UserData(spec lifecycle.MachineSpec) (string, error)
}

// RemoteExecutor runs commands on machines by name.
type RemoteExecutor interface {
	Execute(ctx context.Context, machine, command string) (string, error)
}

var errNoRemote = errors.New("remote execution is not configured")

// Provisioner implements lifecycle.Provisioner on EC2.
type Provisioner struct {
	api      API
	cluster  string
	keyPair  string
	userData UserDataRenderer
	remote   RemoteExecutor
	timeouts *config.Timeouts
}

// NewProvisioner creates a provisioner for cluster. keyPair is used for
// machines that do not name their own SSH key. userData may be nil.
func NewProvisioner(api API, cluster, keyPair string, userData UserDataRenderer, opts ...Option) *Provisioner {
	o := applyOptions(opts)
	return &Provisioner{
		api:      api,
		cluster:  cluster,
		keyPair:  keyPair,
		userData: userData,
		timeouts: o.timeouts,
	}
}

// SetRemote sets the executor used by ExecuteRemote.
func (p *Provisioner) SetRemote(remote RemoteExecutor) {
	p.remote = remote
}

// CreateMachine launches an instance and waits until it is running. It does
// nothing when a live instance for the machine already exists.
func (p *Provisioner) CreateMachine(ctx context.Context, spec lifecycle.MachineSpec) error {
	if spec.Options.Image == "" {
		return fmt.Errorf("image is required for machine %s", spec.Name)
	}
	if spec.Options.Type == "" {
		return fmt.Errorf("instance type is required for machine %s", spec.Name)
	}

	input := &ec2.RunInstancesInput{
		ImageId:      aws.String(spec.Options.Image),
		InstanceType: types.InstanceType(spec.Options.Type),
		MinCount:     aws.Int32(1),
		MaxCount:     aws.Int32(1),
		TagSpecifications: []types.TagSpecification{{
			ResourceType: types.ResourceTypeInstance,
			Tags: tags(spec.Name, labels.NewLabelBuilder(p.cluster).
				WithRole(spec.Role).
				WithMachine(spec.Name).
				Merge(spec.Options.Labels).
				Build()),
		}},
	}
	if key := p.keyFor(spec); key != "" {
		input.KeyName = aws.String(key)
	}
	if spec.Options.Location != "" {
		input.Placement = &types.Placement{AvailabilityZone: aws.String(spec.Options.Location)}
	}
	if spec.Options.SubnetID != "" {
		input.SubnetId = aws.String(spec.Options.SubnetID)
	}
	if len(spec.Options.SecurityGroupIDs) > 0 {
		input.SecurityGroupIds = spec.Options.SecurityGroupIDs
	}
	if p.userData != nil {
		data, err := p.userData.UserData(spec)
		if err != nil {
			return err
		}
		input.UserData = aws.String(base64.StdEncoding.EncodeToString([]byte(data)))
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeouts.MachineCreate)
	defer cancel()

	// A live instance with the same Name and cluster tags is this machine.
	existing, err := findInstance(ctx, p.api, p.cluster, spec.Name)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	out, err := p.api.RunInstances(ctx, input)
	if err != nil {
		return wrapAPIError("run instance "+spec.Name, err)
	}
	if len(out.Instances) == 0 {
		return fmt.Errorf("run instance %s: no instance returned", spec.Name)
	}
	id := aws.ToString(out.Instances[0].InstanceId)

	waiter := ec2.NewInstanceRunningWaiter(p.api)
	if err := waiter.Wait(ctx, &ec2.DescribeInstancesInput{InstanceIds: []string{id}}, waitFor(p.timeouts.MachineCreate)); err != nil {
		return fmt.Errorf("instance %s (%s) did not reach running: %w", spec.Name, id, err)
	}
	return nil
}

func (p *Provisioner) keyFor(spec lifecycle.MachineSpec) string {
	if len(spec.Options.SSHKeys) > 0 {
		return spec.Options.SSHKeys[0]
	}
	return p.keyPair
}

// DeleteMachine terminates an instance and waits for it to be gone.
// Deleting a missing machine is not an error.
func (p *Provisioner) DeleteMachine(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeouts.Delete)
	defer cancel()

	inst, err := findInstance(ctx, p.api, p.cluster, name)
	if err != nil {
		return err
	}
	if inst == nil {
		return nil
	}
	id := aws.ToString(inst.InstanceId)

	if _, err := p.api.TerminateInstances(ctx, &ec2.TerminateInstancesInput{InstanceIds: []string{id}}); err != nil {
		if IsNotFound(err) {
			return nil
		}
		return wrapAPIError("terminate instance "+name, err)
	}

	waiter := ec2.NewInstanceTerminatedWaiter(p.api)
	if err := waiter.Wait(ctx, &ec2.DescribeInstancesInput{InstanceIds: []string{id}}, waitFor(p.timeouts.Delete)); err != nil {
		return fmt.Errorf("instance %s (%s) did not terminate: %w", name, id, err)
	}
	return nil
}

// MachineExists implements lifecycle.Provisioner.
func (p *Provisioner) MachineExists(ctx context.Context, name string) (bool, error) {
	inst, err := findInstance(ctx, p.api, p.cluster, name)
	if err != nil {
		return false, err
	}
	return inst != nil, nil
}

// ExecuteRemote implements lifecycle.Provisioner.
func (p *Provisioner) ExecuteRemote(ctx context.Context, name, command string) (string, error) {
	if p.remote == nil {
		return "", fmt.Errorf("%s: %w", name, errNoRemote)
	}
	return p.remote.Execute(ctx, name, command)
}

// Address returns the public IP of a machine, or its private IP when it
// has no public one.
func (p *Provisioner) Address(ctx context.Context, name string) (string, error) {
	inst, err := findInstance(ctx, p.api, p.cluster, name)
	if err != nil {
		return "", err
	}
	if inst == nil {
		return "", fmt.Errorf("instance not found: %s", name)
	}
	if ip := aws.ToString(inst.PublicIpAddress); ip != "" {
		return ip, nil
	}
	if ip := aws.ToString(inst.PrivateIpAddress); ip != "" {
		return ip, nil
	}
	return "", fmt.Errorf("instance %s has no IP address", name)
}
