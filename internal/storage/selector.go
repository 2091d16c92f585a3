package storage

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"path"
	"text/template"

	"github.com/imamik/hacluster/internal/config"
	"github.com/imamik/hacluster/internal/util/naming"
)

//go:embed scripts/*.sh
var scripts embed.FS

const helperScript = "scripts/custom_backend_storage.ebs.sh"

// VolumeProvisioner makes sure a host has the shared backend volume.
type VolumeProvisioner interface {
	EnsureSharedVolume(ctx context.Context, host string) error
}

// Logger is the printf-style logger used by the selector.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Selector chooses and applies the storage strategy for backend hosts.
type Selector struct {
	cfg     *config.Config
	marker  MarkerChecker
	volumes VolumeProvisioner
	exec    Executor
	logger  Logger
}

// NewSelector creates a selector. volumes may be nil when the cluster never
// uses the cloud path.
func NewSelector(cfg *config.Config, marker MarkerChecker, volumes VolumeProvisioner, exec Executor, logger Logger) *Selector {
	return &Selector{cfg: cfg, marker: marker, volumes: volumes, exec: exec, logger: logger}
}

// Decide returns the decision for host without applying it. The marker is
// only read when it can change the outcome.
func (s *Selector) Decide(ctx context.Context, host string) (Decision, error) {
	cloud := s.cfg.Cloud()
	isBackend := s.cfg.IsBackend(host)

	markerPresent := false
	if UsesCloudStorage(cloud) && isBackend {
		present, err := s.marker.Present(ctx, host)
		if err != nil {
			return Decision{}, err
		}
		markerPresent = present
	}
	return Select(cloud, isBackend, markerPresent), nil
}

// SelectAndApply decides the strategy for host and applies it. It never
// writes the ready marker.
func (s *Selector) SelectAndApply(ctx context.Context, host string) error {
	decision, err := s.Decide(ctx, host)
	if err != nil {
		return err
	}
	s.printf("[storage] %s: %s", host, decision)

	if decision.Path == PathTraditional {
		if _, err := s.exec.ExecuteRemote(ctx, host, TraditionalSetupCommand(s.cfg.Control.Command)); err != nil {
			return fmt.Errorf("failed to set up local replication on %s: %w", host, err)
		}
		return nil
	}

	if decision.ProvisionVolume {
		if s.volumes == nil {
			return fmt.Errorf("no volume provisioner configured for %s storage", s.cfg.Provider)
		}
		if err := s.volumes.EnsureSharedVolume(ctx, host); err != nil {
			return fmt.Errorf("failed to provision shared volume for %s: %w", host, err)
		}
	}

	if decision.InstallHelper {
		cmd, err := s.helperInstallCommand()
		if err != nil {
			return err
		}
		if _, err := s.exec.ExecuteRemote(ctx, host, cmd); err != nil {
			return fmt.Errorf("failed to install storage helper on %s: %w", host, err)
		}
	}
	return nil
}

// TraditionalSetupCommand returns the command that (re)applies local block
// replication on a backend.
func TraditionalSetupCommand(control string) string {
	return control + " setup-replication"
}

type helperInputs struct {
	Region    string
	Device    string
	VolumeTag string
	Marker    string
}

// RenderHelper renders the failover helper script for the cluster.
func RenderHelper(cfg *config.Config) (string, error) {
	raw, err := scripts.ReadFile(helperScript)
	if err != nil {
		return "", err
	}
	t, err := template.New("custom_backend_storage").Parse(string(raw))
	if err != nil {
		return "", err
	}

	cloud := cfg.Cloud()
	var out bytes.Buffer
	if err := t.Execute(&out, helperInputs{
		Region:    cloud.Region,
		Device:    cloud.Device,
		VolumeTag: naming.SharedVolume(cfg.Name),
		Marker:    MarkerPath,
	}); err != nil {
		return "", fmt.Errorf("failed to render storage helper: %w", err)
	}
	return out.String(), nil
}

func (s *Selector) helperInstallCommand() (string, error) {
	script, err := RenderHelper(s.cfg)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("mkdir -p %s && cat > %s <<'HACLUSTER_HELPER'\n%sHACLUSTER_HELPER\nchmod %s %s",
		path.Dir(HelperPath), HelperPath, script, HelperMode, HelperPath), nil
}

func (s *Selector) printf(format string, v ...interface{}) {
	if s.logger != nil {
		s.logger.Printf(format, v...)
	}
}
