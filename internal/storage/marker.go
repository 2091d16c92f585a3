package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// MarkerChecker reports whether the storage-ready marker exists on a host.
type MarkerChecker interface {
	Present(ctx context.Context, host string) (bool, error)
}

// Executor runs a shell command on a host.
type Executor interface {
	ExecuteRemote(ctx context.Context, host, command string) (string, error)
}

// RemoteMarker checks the marker through remote execution.
type RemoteMarker struct {
	exec Executor
	path string
}

// NewRemoteMarker creates a checker for MarkerPath.
func NewRemoteMarker(exec Executor) *RemoteMarker {
	return &RemoteMarker{exec: exec, path: MarkerPath}
}

// Present implements MarkerChecker.
func (m *RemoteMarker) Present(ctx context.Context, host string) (bool, error) {
	out, err := m.exec.ExecuteRemote(ctx, host, markerProbe(m.path))
	if err != nil {
		return false, fmt.Errorf("failed to check storage marker on %s: %w", host, err)
	}
	switch strings.TrimSpace(out) {
	case "present":
		return true, nil
	case "absent":
		return false, nil
	default:
		return false, fmt.Errorf("unexpected storage marker probe output on %s: %q", host, out)
	}
}

func markerProbe(path string) string {
	return fmt.Sprintf("if test -e %s; then echo present; else echo absent; fi", path)
}

// LocalMarker checks the marker on the local filesystem. It is used when
// storage is applied on the host itself.
type LocalMarker struct {
	path string
}

// NewLocalMarker creates a checker for path. An empty path means MarkerPath.
func NewLocalMarker(path string) *LocalMarker {
	if path == "" {
		path = MarkerPath
	}
	return &LocalMarker{path: path}
}

// Present implements MarkerChecker. The host argument is ignored.
func (m *LocalMarker) Present(_ context.Context, _ string) (bool, error) {
	_, err := os.Stat(m.path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check storage marker %s: %w", m.path, err)
}
