package handlers

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imamik/hacluster/internal/config"
	"github.com/imamik/hacluster/internal/lifecycle"
	"github.com/imamik/hacluster/internal/platform/ssh"
)

const hcloudClusterYAML = `
name: ha
provider: hcloud
vm_config:
  backends:
    be1:
      bootstrap: true
    be2: {}
  frontends:
    fe1: {}
provisioner_options:
  be1:
    image: ubuntu-24.04
    type: cx22
default_package: core.rpm
reporting_package: reporting.rpm
vm_mountpoint: /mnt/packages
hcloud:
  token: test-token
ssh:
  private_key_file: %s
`

// writeConfig writes a cluster definition and a dummy key to a temp dir.
func writeConfig(t *testing.T, tmpl string) Options {
	t.Helper()
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "id_test")
	require.NoError(t, os.WriteFile(keyPath, []byte("KEY"), 0600))

	path := filepath.Join(dir, config.DefaultConfigFilename)
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(tmpl, keyPath)), 0600))
	return Options{ConfigPath: path}
}

// fakeProvisioner implements machineProvider and records every call.
type fakeProvisioner struct {
	mu       sync.Mutex
	calls    []string
	existing map[string]bool
	remote   remoteExecutor
}

func (f *fakeProvisioner) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeProvisioner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeProvisioner) CreateMachine(_ context.Context, spec lifecycle.MachineSpec) error {
	f.record("create " + spec.Name)
	return nil
}

func (f *fakeProvisioner) DeleteMachine(_ context.Context, name string) error {
	f.record("delete " + name)
	return nil
}

func (f *fakeProvisioner) ExecuteRemote(_ context.Context, name, command string) (string, error) {
	f.record("execute " + name + ": " + command)
	return "", nil
}

func (f *fakeProvisioner) MachineExists(_ context.Context, name string) (bool, error) {
	f.record("exists " + name)
	return f.existing[name], nil
}

func (f *fakeProvisioner) Address(_ context.Context, name string) (string, error) {
	return "192.0.2." + fmt.Sprint(len(name)), nil
}

// fakeRunner implements remoteRunner.
type fakeRunner struct {
	mu       sync.Mutex
	commands []string
}

func (f *fakeRunner) Execute(ctx context.Context, machine, command string) (string, error) {
	return f.ExecuteWithInput(ctx, machine, command, nil)
}

func (f *fakeRunner) ExecuteWithInput(_ context.Context, machine, command string, _ []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, machine+": "+command)
	return "", nil
}

func (f *fakeRunner) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

// stubFactories replaces the provider and SSH factories with fakes and
// captures stdout. Everything is restored when the test ends.
func stubFactories(t *testing.T) (*fakeProvisioner, *fakeRunner, *bytes.Buffer) {
	t.Helper()
	origProvider := newProvider
	origSSH := newSSHClient
	origStdout := stdout
	t.Cleanup(func() {
		newProvider = origProvider
		newSSHClient = origSSH
		stdout = origStdout
	})

	prov := &fakeProvisioner{existing: map[string]bool{"be1": true, "be2": true, "fe1": true}}
	runner := &fakeRunner{}
	out := &bytes.Buffer{}

	newProvider = func(_ context.Context, _ *config.Config, _ userDataRenderer, _ *config.Timeouts, _ lifecycle.Logger) (*providerSet, error) {
		return &providerSet{
			provisioner: prov,
			setRemote:   func(remote remoteExecutor) { prov.remote = remote },
		}, nil
	}
	newSSHClient = func(_ ssh.Config, _ ssh.Resolver) (remoteRunner, error) {
		return runner, nil
	}
	stdout = out
	return prov, runner, out
}

func filterPrefix(items []string, prefix string) []string {
	var out []string
	for _, item := range items {
		if strings.HasPrefix(item, prefix) {
			out = append(out, item)
		}
	}
	return out
}
