package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stackpilot/stackpilot/internal/config"
	"github.com/stackpilot/stackpilot/internal/logger"
	"github.com/stackpilot/stackpilot/internal/runner"
	"github.com/stackpilot/stackpilot/internal/sysinfo"
)

type fakeSys struct {
	disk uint64
	mem  uint64
}

func (f fakeSys) FreeDisk(string) (uint64, error)  { return f.disk, nil }
func (f fakeSys) AvailableMemory() (uint64, error) { return f.mem, nil }

type exitRecorder struct {
	codes []int
}

func (r *exitRecorder) last(t *testing.T) int {
	t.Helper()
	require.NotEmpty(t, r.codes, "command never set an exit code")
	return r.codes[len(r.codes)-1]
}

// restoreDeps snapshots every seam and restores it when the test ends.
// Tests mutating package state must not run in parallel.
func restoreDeps(t *testing.T) {
	t.Helper()

	origLoad := loadConfigFunc
	origLogger := newLoggerFunc
	origRunner := newRunnerFunc
	origSys := newSysProbeFunc
	origStdout := stdoutWriter
	origStderr := stderrWriter
	origExit := exitFunc
	origTerminal := isTerminalFunc

	t.Cleanup(func() {
		loadConfigFunc = origLoad
		newLoggerFunc = origLogger
		newRunnerFunc = origRunner
		newSysProbeFunc = origSys
		stdoutWriter = origStdout
		stderrWriter = origStderr
		exitFunc = origExit
		isTerminalFunc = origTerminal
	})
}

// wireApp points every seam at test doubles: the given config and runner, a
// discarded logger, generous fake system metrics, and captured writers.
func wireApp(t *testing.T, cfg *config.Config, fake *runner.Fake) (*bytes.Buffer, *bytes.Buffer, *exitRecorder) {
	t.Helper()
	restoreDeps(t)

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	rec := &exitRecorder{}

	loadConfigFunc = func(string) (*config.Config, error) { return cfg, nil }
	newLoggerFunc = func(opts logger.Options) (*logger.Logger, error) {
		opts.Writer = io.Discard
		return logger.New(opts)
	}
	newRunnerFunc = func() runner.Runner { return fake }
	newSysProbeFunc = func() sysinfo.Probe { return fakeSys{disk: 64 << 30, mem: 16 << 30} }
	stdoutWriter = stdout
	stderrWriter = stderr
	exitFunc = func(code int) { rec.codes = append(rec.codes, code) }
	isTerminalFunc = func() bool { return false }

	return stdout, stderr, rec
}

// testConfig builds a minimal valid stack definition backed by real temp
// files so environment-file handling takes the already-present path.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	envTemplate := filepath.Join(dir, ".env.example")
	require.NoError(t, os.WriteFile(envTemplate, []byte("LOG_LEVEL=info\n"), 0o600))
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("LOG_LEVEL=info\n"), 0o600))

	return &config.Config{
		Version:      "1",
		Name:         "demo",
		Compose:      config.ComposeConfig{File: "docker-compose.yml"},
		Env:          config.EnvConfig{File: envFile, Template: envTemplate},
		WorkspaceDir: dir,
		Prereq: config.PrereqConfig{
			MinDiskGB:    1,
			MinMemoryGB:  1,
			MinBashMajor: 4,
			DiskPath:     dir,
		},
		Verify: config.VerifyConfig{
			ProbeTimeout: config.Duration(time.Second),
			MinDiskGB:    1,
		},
		Services: []config.ServiceDescriptor{
			{
				Name:          "gateway",
				Match:         config.MatchSpec{Kind: "exact", Pattern: "demo-gateway"},
				ExpectedState: "running",
			},
		},
		Endpoints: []config.Endpoint{
			{Name: "gateway", URL: "tcp://localhost:8811"},
		},
	}
}

// healthyFake scripts the prerequisite battery's command lines.
func healthyFake() *runner.Fake {
	fake := runner.NewFake()
	fake.Script("docker info --format {{.ServerVersion}}", "27.0.3\n", nil)
	fake.Script("docker compose version --short", "2.27.0\n", nil)
	fake.Script("bash --version", "GNU bash, version 5.2.21(1)-release (x86_64-pc-linux-gnu)\n", nil)
	return fake
}
