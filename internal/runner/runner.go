// Package runner wraps subprocess execution behind a narrow interface so
// every external command the orchestrator issues is context-bounded and
// replaceable in tests.
package runner

import (
	"context"
	"os"
	"os/exec"
)

// Runner executes external commands. Implementations must honor context
// cancellation; callers are responsible for attaching timeouts.
type Runner interface {
	// Run executes the command and returns its combined output.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	// RunEnv is Run with extra environment entries appended to the
	// inherited environment.
	RunEnv(ctx context.Context, extraEnv []string, name string, args ...string) ([]byte, error)
	// LookPath reports where the named binary resolves, or an error when
	// it is not installed.
	LookPath(name string) (string, error)
}

type execRunner struct{}

// New returns a Runner backed by os/exec.
func New() Runner {
	return execRunner{}
}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return execRunner{}.RunEnv(ctx, nil, name, args...)
}

func (execRunner) RunEnv(ctx context.Context, extraEnv []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}
	return cmd.CombinedOutput()
}

func (execRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
