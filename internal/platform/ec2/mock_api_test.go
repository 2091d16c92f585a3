package ec2

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/imamik/hacluster/internal/lifecycle"
)

// MockAPI is a mock implementation of API for testing.
type MockAPI struct {
	RunInstancesFunc       func(ctx context.Context, params *ec2.RunInstancesInput) (*ec2.RunInstancesOutput, error)
	DescribeInstancesFunc  func(ctx context.Context, params *ec2.DescribeInstancesInput) (*ec2.DescribeInstancesOutput, error)
	TerminateInstancesFunc func(ctx context.Context, params *ec2.TerminateInstancesInput) (*ec2.TerminateInstancesOutput, error)
	DescribeVolumesFunc    func(ctx context.Context, params *ec2.DescribeVolumesInput) (*ec2.DescribeVolumesOutput, error)
	CreateVolumeFunc       func(ctx context.Context, params *ec2.CreateVolumeInput) (*ec2.CreateVolumeOutput, error)
	AttachVolumeFunc       func(ctx context.Context, params *ec2.AttachVolumeInput) (*ec2.AttachVolumeOutput, error)

	mu    sync.Mutex
	calls []string
}

func (m *MockAPI) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

// Calls returns the recorded API operations in order.
func (m *MockAPI) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockAPI) RunInstances(ctx context.Context, params *ec2.RunInstancesInput, _ ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error) {
	m.record("RunInstances")
	if m.RunInstancesFunc != nil {
		return m.RunInstancesFunc(ctx, params)
	}
	return &ec2.RunInstancesOutput{Instances: []types.Instance{{InstanceId: aws.String("i-new")}}}, nil
}

func (m *MockAPI) DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	m.record("DescribeInstances")
	if m.DescribeInstancesFunc != nil {
		return m.DescribeInstancesFunc(ctx, params)
	}
	return &ec2.DescribeInstancesOutput{}, nil
}

func (m *MockAPI) TerminateInstances(ctx context.Context, params *ec2.TerminateInstancesInput, _ ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error) {
	m.record("TerminateInstances")
	if m.TerminateInstancesFunc != nil {
		return m.TerminateInstancesFunc(ctx, params)
	}
	return &ec2.TerminateInstancesOutput{}, nil
}

func (m *MockAPI) DescribeVolumes(ctx context.Context, params *ec2.DescribeVolumesInput, _ ...func(*ec2.Options)) (*ec2.DescribeVolumesOutput, error) {
	m.record("DescribeVolumes")
	if m.DescribeVolumesFunc != nil {
		return m.DescribeVolumesFunc(ctx, params)
	}
	return &ec2.DescribeVolumesOutput{}, nil
}

func (m *MockAPI) CreateVolume(ctx context.Context, params *ec2.CreateVolumeInput, _ ...func(*ec2.Options)) (*ec2.CreateVolumeOutput, error) {
	m.record("CreateVolume")
	if m.CreateVolumeFunc != nil {
		return m.CreateVolumeFunc(ctx, params)
	}
	return &ec2.CreateVolumeOutput{VolumeId: aws.String("vol-new"), AvailabilityZone: params.AvailabilityZone}, nil
}

func (m *MockAPI) AttachVolume(ctx context.Context, params *ec2.AttachVolumeInput, _ ...func(*ec2.Options)) (*ec2.AttachVolumeOutput, error) {
	m.record("AttachVolume")
	if m.AttachVolumeFunc != nil {
		return m.AttachVolumeFunc(ctx, params)
	}
	return &ec2.AttachVolumeOutput{}, nil
}

func instance(id, zone string, state types.InstanceStateName) types.Instance {
	return types.Instance{
		InstanceId: aws.String(id),
		Placement:  &types.Placement{AvailabilityZone: aws.String(zone)},
		State:      &types.InstanceState{Name: state},
	}
}

func reservations(instances ...types.Instance) *ec2.DescribeInstancesOutput {
	if len(instances) == 0 {
		return &ec2.DescribeInstancesOutput{}
	}
	return &ec2.DescribeInstancesOutput{Reservations: []types.Reservation{{Instances: instances}}}
}

// filterValue returns the values of the named filter.
func filterValue(filters []types.Filter, name string) []string {
	for _, f := range filters {
		if aws.ToString(f.Name) == name {
			return f.Values
		}
	}
	return nil
}

type mockUserData struct {
	data string
	err  error
}

func (m *mockUserData) UserData(_ lifecycle.MachineSpec) (string, error) {
	return m.data, m.err
}

type mockRemote struct {
	output string
	err    error
	calls  []string
}

func (m *mockRemote) Execute(_ context.Context, machine, command string) (string, error) {
	m.calls = append(m.calls, fmt.Sprintf("%s: %s", machine, command))
	return m.output, m.err
}

type mockMetadata struct {
	instanceID string
	region     string
	err        error
}

func (m *mockMetadata) GetMetadata(_ context.Context, params *imds.GetMetadataInput, _ ...func(*imds.Options)) (*imds.GetMetadataOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	if params.Path != "instance-id" {
		return nil, fmt.Errorf("unexpected path %s", params.Path)
	}
	return &imds.GetMetadataOutput{Content: io.NopCloser(bytes.NewBufferString(m.instanceID + "\n"))}, nil
}

func (m *mockMetadata) GetRegion(_ context.Context, _ *imds.GetRegionInput, _ ...func(*imds.Options)) (*imds.GetRegionOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &imds.GetRegionOutput{Region: m.region}, nil
}

type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) Printf(format string, v ...interface{}) {
	l.lines = append(l.lines, fmt.Sprintf(format, v...))
}
