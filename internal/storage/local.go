package storage

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// LocalExecutor runs commands on the local host through /bin/sh. It is
// used when storage is applied on the backend itself.
type LocalExecutor struct{}

// ExecuteRemote implements Executor. The host argument is ignored.
func (LocalExecutor) ExecuteRemote(ctx context.Context, _ string, command string) (string, error) {
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.String(), fmt.Errorf("%w: %s", err, stderr.String())
	}
	return stdout.String(), nil
}
