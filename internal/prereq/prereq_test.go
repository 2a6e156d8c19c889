package prereq

import (
	"context"
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stackpilot/stackpilot/internal/compose"
	"github.com/stackpilot/stackpilot/internal/config"
	"github.com/stackpilot/stackpilot/internal/model"
	"github.com/stackpilot/stackpilot/internal/runner"
	"github.com/stackpilot/stackpilot/internal/sysinfo"
)

type fakeSys struct {
	disk    uint64
	diskErr error
	mem     uint64
	memErr  error
}

func (f fakeSys) FreeDisk(string) (uint64, error)  { return f.disk, f.diskErr }
func (f fakeSys) AvailableMemory() (uint64, error) { return f.mem, f.memErr }

const gb = 1 << 30

func healthyFake() *runner.Fake {
	fake := runner.NewFake()
	fake.Script("docker info --format {{.ServerVersion}}", "27.1.1\n", nil)
	fake.Script("docker compose version --short", "2.29.0\n", nil)
	fake.Script("bash --version", "GNU bash, version 5.2.21(1)-release\n", nil)
	return fake
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	// Pick ports that are almost certainly free so the advisory port checks
	// pass in the healthy scenarios.
	cfg.Prereq.RequiredPorts = freePorts(t, 4)
	return cfg
}

func freePorts(t *testing.T, n int) []int {
	t.Helper()
	ports := make([]int, 0, n)
	listeners := make([]net.Listener, 0, n)
	for len(ports) < n {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		listeners = append(listeners, ln)
		ports = append(ports, ln.Addr().(*net.TCPAddr).Port)
	}
	for _, ln := range listeners {
		require.NoError(t, ln.Close())
	}
	return ports
}

func newValidator(cfg *config.Config, fake *runner.Fake, sys sysinfo.Probe) *Validator {
	docker := compose.New(fake, nil, cfg.Compose.File, "")
	return New(cfg, docker, sys, fake, nil)
}

func TestValidateHealthyEnvironment(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	v := newValidator(cfg, healthyFake(), fakeSys{disk: 10 * gb, mem: 8 * gb})

	report := v.Validate(context.Background())

	require.Equal(t, model.PhasePrerequisites, report.Phase)
	require.False(t, report.HasBlocking())
	// 3 fixed checks + one per port + disk + memory.
	require.Equal(t, 3+len(cfg.Prereq.RequiredPorts)+2, report.Len())
	for _, res := range report.Results() {
		require.True(t, res.Passed, "check %q failed: %s", res.Name, res.Message)
	}
}

func TestValidateRuntimeUnreachableStillRunsEverything(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	fake := runner.NewFake()
	fake.MarkMissing("docker")
	fake.Script("docker compose version --short", "2.29.0\n", nil)
	fake.Script("bash --version", "GNU bash, version 5.2.21(1)-release\n", nil)

	report := newValidator(cfg, fake, fakeSys{disk: 10 * gb, mem: 8 * gb}).Validate(context.Background())

	require.True(t, report.HasBlocking())
	require.Equal(t, 3+len(cfg.Prereq.RequiredPorts)+2, report.Len(), "no check may be skipped")

	var blocking []model.ProbeResult
	for _, res := range report.Results() {
		if res.Blocking() {
			blocking = append(blocking, res)
		}
	}
	require.Len(t, blocking, 1)
	require.Equal(t, "container runtime", blocking[0].Name)
	require.Equal(t, model.CategoryPrerequisite, blocking[0].Category)
}

func TestValidateComposeToolMissing(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	fake := runner.NewFake()
	fake.Script("docker info --format {{.ServerVersion}}", "27.1.1\n", nil)
	fake.Script("docker compose version --short", "unknown command", errors.New("exit status 125"))
	fake.Script("bash --version", "GNU bash, version 5.2.21(1)-release\n", nil)

	report := newValidator(cfg, fake, fakeSys{disk: 10 * gb, mem: 8 * gb}).Validate(context.Background())

	require.True(t, report.HasBlocking())
	for _, res := range report.Results() {
		if res.Name == "compose tool" {
			require.False(t, res.Passed)
			require.Equal(t, model.SeverityBlocking, res.Severity)
		}
	}
}

func TestValidateOldShellIsAdvisory(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	fake := runner.NewFake()
	fake.Script("docker info --format {{.ServerVersion}}", "27.1.1\n", nil)
	fake.Script("docker compose version --short", "2.29.0\n", nil)
	fake.Script("bash --version", "GNU bash, version 3.2.57(1)-release\n", nil)

	report := newValidator(cfg, fake, fakeSys{disk: 10 * gb, mem: 8 * gb}).Validate(context.Background())

	require.False(t, report.HasBlocking(), "old shell must not block")
	found := false
	for _, res := range report.Results() {
		if res.Name == "shell version" {
			found = true
			require.False(t, res.Passed)
			require.Equal(t, model.SeverityAdvisory, res.Severity)
		}
	}
	require.True(t, found)
}

func TestValidateBoundPortIsAdvisory(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	busy := ln.Addr().(*net.TCPAddr).Port
	cfg.Prereq.RequiredPorts = append(cfg.Prereq.RequiredPorts, busy)

	report := newValidator(cfg, healthyFake(), fakeSys{disk: 10 * gb, mem: 8 * gb}).Validate(context.Background())

	require.False(t, report.HasBlocking())
	conflictName := "port " + strconv.Itoa(busy)
	for _, res := range report.Results() {
		if res.Name == conflictName {
			require.False(t, res.Passed)
			require.Equal(t, model.SeverityAdvisory, res.Severity)
			require.Contains(t, res.Message, "already bound")
		}
	}
}

func TestValidateLowDiskBlocks(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	report := newValidator(cfg, healthyFake(), fakeSys{disk: 1 * gb, mem: 8 * gb}).Validate(context.Background())

	require.True(t, report.HasBlocking())
	for _, res := range report.Results() {
		if res.Name == "free disk space" {
			require.False(t, res.Passed)
			require.Equal(t, model.SeverityBlocking, res.Severity)
			require.Equal(t, model.CategoryResource, res.Category)
		}
	}
}

func TestValidateLowMemoryIsAdvisory(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	report := newValidator(cfg, healthyFake(), fakeSys{disk: 10 * gb, mem: 2 * gb}).Validate(context.Background())

	require.False(t, report.HasBlocking())
	for _, res := range report.Results() {
		if res.Name == "available memory" {
			require.False(t, res.Passed)
			require.Equal(t, model.SeverityAdvisory, res.Severity)
		}
	}
}

// hangingRunner blocks every command until its context expires, like a
// daemon that accepts the subprocess but never answers.
type hangingRunner struct{}

func (hangingRunner) Run(ctx context.Context, _ string, _ ...string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (hangingRunner) RunEnv(ctx context.Context, _ []string, _ string, _ ...string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (hangingRunner) LookPath(name string) (string, error) { return "/usr/bin/" + name, nil }

func TestValidateWedgedDaemonTimesOut(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Prereq.CheckTimeout = config.Duration(25 * time.Millisecond)

	run := hangingRunner{}
	docker := compose.New(run, nil, cfg.Compose.File, "")
	v := New(cfg, docker, fakeSys{disk: 10 * gb, mem: 8 * gb}, run, nil)

	start := time.Now()
	report := v.Validate(context.Background())
	require.Less(t, time.Since(start), 2*time.Second, "checks must not hang on a wedged daemon")

	require.True(t, report.HasBlocking())
	require.Equal(t, 3+len(cfg.Prereq.RequiredPorts)+2, report.Len(), "every check still reports")

	for _, res := range report.Results() {
		switch res.Name {
		case "container runtime", "compose tool", "shell version":
			require.False(t, res.Passed, "%s must fail when its call times out", res.Name)
		}
	}
}

func TestValidateUnknownMetricsDoNotFail(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	sys := fakeSys{diskErr: sysinfo.ErrUnavailable, memErr: sysinfo.ErrUnavailable}
	report := newValidator(cfg, healthyFake(), sys).Validate(context.Background())

	require.False(t, report.HasBlocking())
	for _, res := range report.Results() {
		if res.Category == model.CategoryResource {
			require.True(t, res.Passed)
			require.Contains(t, res.Message, "could not be determined")
		}
	}
}
