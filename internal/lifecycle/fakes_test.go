package lifecycle

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imamik/hacluster/internal/attributes"
	"github.com/imamik/hacluster/internal/config"
)

// recordingObserver records events. Observers derived through WithFields
// share the same record.
type recordingObserver struct {
	mu       *sync.Mutex
	events   *[]Event
	messages *[]string
	fields   map[string]string
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{
		mu:       &sync.Mutex{},
		events:   &[]Event{},
		messages: &[]string{},
		fields:   map[string]string{},
	}
}

func (o *recordingObserver) Printf(format string, _ ...interface{}) {
	o.mu.Lock()
	defer o.mu.Unlock()
	*o.messages = append(*o.messages, format)
}

func (o *recordingObserver) Event(event Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	*o.events = append(*o.events, withContext(event, o.fields))
}

func (o *recordingObserver) Progress(string, int, int) {}

func (o *recordingObserver) WithFields(fields map[string]string) Observer {
	return &recordingObserver{
		mu:       o.mu,
		events:   o.events,
		messages: o.messages,
		fields:   mergeFields(o.fields, fields),
	}
}

func (o *recordingObserver) eventsOfType(t EventType) []Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []Event
	for _, e := range *o.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// mockRegistry implements registry.Client.
type mockRegistry struct {
	ExistsFunc func(ctx context.Context, name string) (bool, error)
	calls      []string
}

func (m *mockRegistry) Exists(ctx context.Context, name string) (bool, error) {
	m.calls = append(m.calls, name)
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, name)
	}
	return false, nil
}

// mockProvisioner implements Provisioner and records every call as
// "<op> <machine>".
type mockProvisioner struct {
	CreateMachineFunc func(ctx context.Context, spec MachineSpec) error
	DeleteMachineFunc func(ctx context.Context, name string) error
	ExecuteRemoteFunc func(ctx context.Context, name, command string) (string, error)
	MachineExistsFunc func(ctx context.Context, name string) (bool, error)

	calls   []string
	created []MachineSpec
	scripts []string
}

func (m *mockProvisioner) CreateMachine(ctx context.Context, spec MachineSpec) error {
	m.calls = append(m.calls, "create "+spec.Name)
	m.created = append(m.created, spec)
	if m.CreateMachineFunc != nil {
		return m.CreateMachineFunc(ctx, spec)
	}
	return nil
}

func (m *mockProvisioner) DeleteMachine(ctx context.Context, name string) error {
	m.calls = append(m.calls, "delete "+name)
	if m.DeleteMachineFunc != nil {
		return m.DeleteMachineFunc(ctx, name)
	}
	return nil
}

func (m *mockProvisioner) ExecuteRemote(ctx context.Context, name, command string) (string, error) {
	m.calls = append(m.calls, "execute "+name)
	m.scripts = append(m.scripts, command)
	if m.ExecuteRemoteFunc != nil {
		return m.ExecuteRemoteFunc(ctx, name, command)
	}
	return "", nil
}

func (m *mockProvisioner) MachineExists(ctx context.Context, name string) (bool, error) {
	m.calls = append(m.calls, "exists "+name)
	if m.MachineExistsFunc != nil {
		return m.MachineExistsFunc(ctx, name)
	}
	return false, nil
}

// mockEngine implements Engine.
type mockEngine struct {
	ConvergeFunc func(ctx context.Context, spec MachineSpec) error
	converged    []MachineSpec
}

func (m *mockEngine) Converge(ctx context.Context, spec MachineSpec) error {
	m.converged = append(m.converged, spec)
	if m.ConvergeFunc != nil {
		return m.ConvergeFunc(ctx, spec)
	}
	return nil
}

// mockStorage implements StorageApplier.
type mockStorage struct {
	SelectAndApplyFunc func(ctx context.Context, host string) error
	hosts              []string
}

func (m *mockStorage) SelectAndApply(ctx context.Context, host string) error {
	m.hosts = append(m.hosts, host)
	if m.SelectAndApplyFunc != nil {
		return m.SelectAndApplyFunc(ctx, host)
	}
	return nil
}

// mockCredentials implements attributes.CredentialSource.
type mockCredentials struct {
	creds attributes.Credentials
	err   error
}

func (m *mockCredentials) LoadDefault(context.Context, string) (attributes.Credentials, error) {
	return m.creds, m.err
}

const testClusterYAML = `
name: ha
provider: ec2
vm_config:
  backends:
    be-a:
      bootstrap: true
    be-b: {}
    be-c: {}
  frontends:
    fe-d: {}
provisioner_options:
  be-a:
    image: ami-1
    type: m5.large
ec2:
  region: us-west-2
  backend_storage_type: ebs
default_package: core.rpm
vm_mountpoint: /mnt/pkgs
registry:
  url: https://inventory.example.com
`

func loadTestConfig(t *testing.T, mutate ...func(*config.Config)) *config.Config {
	t.Helper()
	cfg, err := config.LoadFromBytes([]byte(testClusterYAML))
	require.NoError(t, err)
	for _, m := range mutate {
		m(cfg)
	}
	return cfg
}

func newTestPlanner(t *testing.T, cfg *config.Config, reg *mockRegistry) (*Planner, *recordingObserver) {
	t.Helper()
	obs := newRecordingObserver()
	composer := attributes.NewComposer(cfg, &mockCredentials{
		creds: attributes.Credentials{AccessKeyID: "AKIA", SecretAccessKey: "secret"},
	}, obs)
	if reg == nil {
		reg = &mockRegistry{}
	}
	return NewPlanner(cfg, composer, reg, obs), obs
}

func kinds(cmds []Command) []Kind {
	out := make([]Kind, len(cmds))
	for i, c := range cmds {
		out[i] = c.Kind
	}
	return out
}

func commandsFor(cmds []Command, machine string, kind Kind) []Command {
	var out []Command
	for _, c := range cmds {
		if c.Machine == machine && c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}
