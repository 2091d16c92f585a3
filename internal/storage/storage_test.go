package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/hacluster/internal/config"
)

type mockExecutor struct {
	ExecuteRemoteFunc func(ctx context.Context, host, command string) (string, error)
	commands          []string
}

func (m *mockExecutor) ExecuteRemote(ctx context.Context, host, command string) (string, error) {
	m.commands = append(m.commands, host+": "+command)
	if m.ExecuteRemoteFunc != nil {
		return m.ExecuteRemoteFunc(ctx, host, command)
	}
	return "", nil
}

type mockMarker struct {
	present map[string]bool
	err     error
	checked []string
}

func (m *mockMarker) Present(_ context.Context, host string) (bool, error) {
	m.checked = append(m.checked, host)
	return m.present[host], m.err
}

type mockVolumes struct {
	EnsureFunc func(ctx context.Context, host string) error
	hosts      []string
}

func (m *mockVolumes) EnsureSharedVolume(ctx context.Context, host string) error {
	m.hosts = append(m.hosts, host)
	if m.EnsureFunc != nil {
		return m.EnsureFunc(ctx, host)
	}
	return nil
}

const storageYAML = `
name: ha
provider: ec2
vm_config:
  backends:
    be1:
      bootstrap: true
    be2: {}
  frontends:
    fe1: {}
ec2:
  region: eu-central-1
  backend_storage_type: ebs
default_package: core.rpm
vm_mountpoint: /mnt
registry:
  url: https://inventory.example.com
`

func storageConfig(t *testing.T, mutate func(*config.Config)) *config.Config {
	t.Helper()
	cfg, err := config.LoadFromBytes([]byte(storageYAML))
	require.NoError(t, err)
	if mutate != nil {
		mutate(cfg)
	}
	return cfg
}

func TestSelect(t *testing.T) {
	t.Parallel()
	ec2EBS := config.CloudConfig{Provider: config.ProviderEC2, BackendStorageType: config.StorageEBS}
	ec2DRBD := config.CloudConfig{Provider: config.ProviderEC2, BackendStorageType: config.StorageDRBD}
	hcloudEBS := config.CloudConfig{Provider: config.ProviderHCloud, BackendStorageType: config.StorageEBS}

	tests := []struct {
		name          string
		cloud         config.CloudConfig
		isBackend     bool
		markerPresent bool
		expected      Decision
	}{
		{
			name:      "ec2 ebs backend without marker",
			cloud:     ec2EBS,
			isBackend: true,
			expected:  Decision{Path: PathCloudReplicated, ProvisionVolume: true, InstallHelper: true},
		},
		{
			name:          "ec2 ebs backend with marker",
			cloud:         ec2EBS,
			isBackend:     true,
			markerPresent: true,
			expected:      Decision{Path: PathCloudReplicated, InstallHelper: true},
		},
		{
			name:     "ec2 ebs non-backend",
			cloud:    ec2EBS,
			expected: Decision{Path: PathCloudReplicated, InstallHelper: true},
		},
		{
			name:      "ec2 drbd",
			cloud:     ec2DRBD,
			isBackend: true,
			expected:  Decision{Path: PathTraditional},
		},
		{
			name:      "ebs requested on another provider",
			cloud:     hcloudEBS,
			isBackend: true,
			expected:  Decision{Path: PathTraditional},
		},
		{
			name:      "no storage type",
			cloud:     config.CloudConfig{Provider: config.ProviderEC2},
			isBackend: true,
			expected:  Decision{Path: PathTraditional},
		},
	}

	for _, tt := range tests {

		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, Select(tt.cloud, tt.isBackend, tt.markerPresent))
		})
	}
}

// The shared volume is provisioned exactly when all four conditions hold.
func TestSelect_ProvisionVolumeIffAllConditions(t *testing.T) {
	t.Parallel()
	for _, provider := range []string{config.ProviderEC2, config.ProviderHCloud} {
		for _, storageType := range []string{config.StorageEBS, config.StorageDRBD} {
			for _, isBackend := range []bool{true, false} {
				for _, marker := range []bool{true, false} {
					cloud := config.CloudConfig{Provider: provider, BackendStorageType: storageType}
					d := Select(cloud, isBackend, marker)
					want := provider == config.ProviderEC2 && storageType == config.StorageEBS && isBackend && !marker
					assert.Equal(t, want, d.ProvisionVolume, "%s/%s backend=%v marker=%v", provider, storageType, isBackend, marker)
				}
			}
		}
	}
}

func TestDecision_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "traditional", Decision{Path: PathTraditional}.String())
	assert.Equal(t, "cloud-replicated+volume+helper",
		Decision{Path: PathCloudReplicated, ProvisionVolume: true, InstallHelper: true}.String())
}

func TestSelector_CloudPathProvisionsAndInstallsHelper(t *testing.T) {
	t.Parallel()
	cfg := storageConfig(t, nil)
	exec := &mockExecutor{}
	marker := &mockMarker{}
	volumes := &mockVolumes{}
	sel := NewSelector(cfg, marker, volumes, exec, nil)

	require.NoError(t, sel.SelectAndApply(context.Background(), "be2"))

	assert.Equal(t, []string{"be2"}, marker.checked)
	assert.Equal(t, []string{"be2"}, volumes.hosts)
	require.Len(t, exec.commands, 1)
	assert.Contains(t, exec.commands[0], "cat > "+HelperPath)
	assert.Contains(t, exec.commands[0], "chmod 0700 "+HelperPath)
	assert.Contains(t, exec.commands[0], `REGION="eu-central-1"`)
}

func TestSelector_MarkerSkipsVolume(t *testing.T) {
	t.Parallel()
	cfg := storageConfig(t, nil)
	exec := &mockExecutor{}
	volumes := &mockVolumes{}
	sel := NewSelector(cfg, &mockMarker{present: map[string]bool{"be1": true}}, volumes, exec, nil)

	require.NoError(t, sel.SelectAndApply(context.Background(), "be1"))

	assert.Empty(t, volumes.hosts)
	assert.Len(t, exec.commands, 1, "helper is still installed")
}

func TestSelector_NonBackendDoesNotReadMarker(t *testing.T) {
	t.Parallel()
	cfg := storageConfig(t, nil)
	marker := &mockMarker{err: errors.New("must not be called")}
	volumes := &mockVolumes{}
	sel := NewSelector(cfg, marker, volumes, &mockExecutor{}, nil)

	require.NoError(t, sel.SelectAndApply(context.Background(), "fe1"))
	assert.Empty(t, marker.checked)
	assert.Empty(t, volumes.hosts)
}

func TestSelector_TraditionalPathAlwaysReapplies(t *testing.T) {
	t.Parallel()
	cfg := storageConfig(t, func(c *config.Config) {
		c.EC2.BackendStorageType = config.StorageDRBD
	})
	exec := &mockExecutor{}
	marker := &mockMarker{present: map[string]bool{"be1": true}}
	sel := NewSelector(cfg, marker, nil, exec, nil)

	require.NoError(t, sel.SelectAndApply(context.Background(), "be1"))
	require.NoError(t, sel.SelectAndApply(context.Background(), "be1"))

	want := "be1: " + TraditionalSetupCommand(cfg.Control.Command)
	assert.Equal(t, []string{want, want}, exec.commands)
	assert.Empty(t, marker.checked)
}

func TestSelector_Errors(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")

	t.Run("marker", func(t *testing.T) {
		t.Parallel()
		sel := NewSelector(storageConfig(t, nil), &mockMarker{err: boom}, &mockVolumes{}, &mockExecutor{}, nil)
		assert.ErrorIs(t, sel.SelectAndApply(context.Background(), "be1"), boom)
	})

	t.Run("volume", func(t *testing.T) {
		t.Parallel()
		exec := &mockExecutor{}
		volumes := &mockVolumes{EnsureFunc: func(context.Context, string) error { return boom }}
		sel := NewSelector(storageConfig(t, nil), &mockMarker{}, volumes, exec, nil)

		err := sel.SelectAndApply(context.Background(), "be1")
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, exec.commands, "helper must not be installed after a failed volume")
	})

	t.Run("missing volume provisioner", func(t *testing.T) {
		t.Parallel()
		sel := NewSelector(storageConfig(t, nil), &mockMarker{}, nil, &mockExecutor{}, nil)
		err := sel.SelectAndApply(context.Background(), "be1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no volume provisioner")
	})

	t.Run("traditional", func(t *testing.T) {
		t.Parallel()
		cfg := storageConfig(t, func(c *config.Config) { c.Provider = config.ProviderHCloud })
		exec := &mockExecutor{ExecuteRemoteFunc: func(context.Context, string, string) (string, error) { return "", boom }}
		sel := NewSelector(cfg, &mockMarker{}, nil, exec, nil)
		assert.ErrorIs(t, sel.SelectAndApply(context.Background(), "be1"), boom)
	})
}

func TestRenderHelper(t *testing.T) {
	t.Parallel()
	script, err := RenderHelper(storageConfig(t, nil))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(script, "#!/bin/bash"))
	assert.Contains(t, script, `DEVICE="/dev/xvdf"`)
	assert.Contains(t, script, `VOLUME_TAG="ha-backend-storage"`)
	assert.Contains(t, script, `MARKER="`+MarkerPath+`"`)
	assert.NotContains(t, script, "{{")
}

func TestRemoteMarker(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		output  string
		err     error
		present bool
		wantErr string
	}{
		{name: "present", output: "present\n", present: true},
		{name: "absent", output: "absent\n"},
		{name: "garbage", output: "permission denied", wantErr: "unexpected storage marker probe output"},
		{name: "exec error", err: errors.New("ssh: handshake failed"), wantErr: "handshake failed"},
	}

	for _, tt := range tests {

		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			exec := &mockExecutor{ExecuteRemoteFunc: func(context.Context, string, string) (string, error) {
				return tt.output, tt.err
			}}
			present, err := NewRemoteMarker(exec).Present(context.Background(), "be1")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.present, present)
			assert.Contains(t, exec.commands[0], "test -e "+MarkerPath)
		})
	}
}

func TestLocalMarker(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "storage_ready")
	marker := NewLocalMarker(path)

	present, err := marker.Present(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, present)

	require.NoError(t, os.WriteFile(path, nil, 0600))
	present, err = marker.Present(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, present)

	assert.Equal(t, MarkerPath, NewLocalMarker("").path)
}

func TestLocalExecutor(t *testing.T) {
	t.Parallel()
	out, err := LocalExecutor{}.ExecuteRemote(context.Background(), "ignored", "echo hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)

	_, err = LocalExecutor{}.ExecuteRemote(context.Background(), "ignored", "echo oops >&2; exit 3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oops")
}
