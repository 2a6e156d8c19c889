// Package prereq implements the pre-flight battery: read-only checks that
// decide whether the host can run the stack at all. Every check always runs;
// a fatal condition never suppresses diagnostics about the rest of the
// environment.
package prereq

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"time"

	"github.com/stackpilot/stackpilot/internal/compose"
	"github.com/stackpilot/stackpilot/internal/config"
	"github.com/stackpilot/stackpilot/internal/logger"
	"github.com/stackpilot/stackpilot/internal/model"
	"github.com/stackpilot/stackpilot/internal/runner"
	"github.com/stackpilot/stackpilot/internal/sysinfo"
)

const gigabyte = 1 << 30

var bashVersionRegex = regexp.MustCompile(`version (\d+)\.`)

// Validator runs the fixed battery of environment checks.
type Validator struct {
	cfg    *config.Config
	docker *compose.Client
	sys    sysinfo.Probe
	run    runner.Runner
	log    *logger.Logger
}

// New creates a Validator.
func New(cfg *config.Config, docker *compose.Client, sys sysinfo.Probe, run runner.Runner, log *logger.Logger) *Validator {
	return &Validator{cfg: cfg, docker: docker, sys: sys, run: run, log: log}
}

// Validate runs every check and returns the prerequisites report. The
// overall verdict is the report's HasBlocking; advisory findings never gate
// progression.
func (v *Validator) Validate(ctx context.Context) *model.RunReport {
	report := model.NewRunReport(model.PhasePrerequisites)

	report.Append(v.checkRuntime(ctx))
	report.Append(v.checkComposeTool(ctx))
	report.Append(v.checkShellVersion(ctx))
	report.Append(v.checkPorts()...)
	report.Append(v.checkDisk())
	report.Append(v.checkMemory())

	v.log.WithFields(map[string]any{
		"checks":   report.Len(),
		"blocking": report.HasBlocking(),
	}).Info("prerequisite checks complete")

	return report
}

func (v *Validator) checkRuntime(ctx context.Context) model.ProbeResult {
	start := time.Now()
	res := model.ProbeResult{
		Category:    model.CategoryPrerequisite,
		Name:        "container runtime",
		Severity:    model.SeverityBlocking,
		Passed:      true,
		Message:     "daemon reachable",
		Remediation: "start the container runtime daemon (e.g. Docker Desktop or dockerd)",
	}

	checkCtx, cancel := v.boundedCtx(ctx)
	defer cancel()

	if _, err := v.docker.BinaryPath(); err != nil {
		res.Passed = false
		res.Message = "runtime binary not installed"
	} else if err := v.docker.Ping(checkCtx); err != nil {
		res.Passed = false
		res.Message = err.Error()
	}

	return finish(res, start)
}

func (v *Validator) checkComposeTool(ctx context.Context) model.ProbeResult {
	start := time.Now()
	res := model.ProbeResult{
		Category:    model.CategoryPrerequisite,
		Name:        "compose tool",
		Severity:    model.SeverityBlocking,
		Passed:      true,
		Remediation: "install the docker compose plugin",
	}

	checkCtx, cancel := v.boundedCtx(ctx)
	defer cancel()

	version, err := v.docker.ComposeVersion(checkCtx)
	if err != nil {
		res.Passed = false
		res.Message = err.Error()
	} else {
		res.Message = fmt.Sprintf("compose %s", version)
	}

	return finish(res, start)
}

func (v *Validator) checkShellVersion(ctx context.Context) model.ProbeResult {
	start := time.Now()
	res := model.ProbeResult{
		Category:    model.CategoryPrerequisite,
		Name:        "shell version",
		Severity:    model.SeverityAdvisory,
		Passed:      true,
		Remediation: fmt.Sprintf("upgrade bash to version %d or newer", v.cfg.Prereq.MinBashMajor),
	}

	checkCtx, cancel := v.boundedCtx(ctx)
	defer cancel()

	out, err := v.run.Run(checkCtx, "bash", "--version")
	if err != nil {
		res.Passed = false
		res.Message = "bash not available"
		return finish(res, start)
	}

	matches := bashVersionRegex.FindSubmatch(out)
	if len(matches) != 2 {
		res.Passed = false
		res.Message = "could not determine bash version"
		return finish(res, start)
	}

	major, _ := strconv.Atoi(string(matches[1]))
	if major < v.cfg.Prereq.MinBashMajor {
		res.Passed = false
		res.Message = fmt.Sprintf("bash %d is below required major version %d", major, v.cfg.Prereq.MinBashMajor)
	} else {
		res.Message = fmt.Sprintf("bash %d", major)
	}

	return finish(res, start)
}

func (v *Validator) checkPorts() []model.ProbeResult {
	results := make([]model.ProbeResult, 0, len(v.cfg.Prereq.RequiredPorts))
	for _, port := range v.cfg.Prereq.RequiredPorts {
		start := time.Now()
		res := model.ProbeResult{
			Category:    model.CategoryPrerequisite,
			Name:        fmt.Sprintf("port %d", port),
			Severity:    model.SeverityAdvisory,
			Passed:      true,
			Message:     "free",
			Remediation: fmt.Sprintf("stop the process bound to port %d or reconfigure the stack", port),
		}

		ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
		if err != nil {
			res.Passed = false
			res.Message = "already bound"
		} else {
			_ = ln.Close()
		}

		results = append(results, finish(res, start))
	}
	return results
}

func (v *Validator) checkDisk() model.ProbeResult {
	start := time.Now()
	res := model.ProbeResult{
		Category:    model.CategoryResource,
		Name:        "free disk space",
		Severity:    model.SeverityBlocking,
		Passed:      true,
		Remediation: "free disk space or prune unused images and volumes",
	}

	free, err := v.sys.FreeDisk(v.cfg.Prereq.DiskPath)
	switch {
	case errors.Is(err, sysinfo.ErrUnavailable):
		res.Message = "free disk space could not be determined on this platform"
	case err != nil:
		res.Passed = false
		res.Message = fmt.Sprintf("disk inspection failed: %v", err)
	case float64(free) < v.cfg.Prereq.MinDiskGB*gigabyte:
		res.Passed = false
		res.Message = fmt.Sprintf("%.1f GB free, %.1f GB required", float64(free)/gigabyte, v.cfg.Prereq.MinDiskGB)
	default:
		res.Message = fmt.Sprintf("%.1f GB free", float64(free)/gigabyte)
	}

	return finish(res, start)
}

func (v *Validator) checkMemory() model.ProbeResult {
	start := time.Now()
	res := model.ProbeResult{
		Category:    model.CategoryResource,
		Name:        "available memory",
		Severity:    model.SeverityAdvisory,
		Passed:      true,
		Remediation: "close other applications or raise the runtime's memory allocation",
	}

	available, err := v.sys.AvailableMemory()
	switch {
	case errors.Is(err, sysinfo.ErrUnavailable):
		res.Message = "available memory could not be determined on this platform"
	case err != nil:
		res.Passed = false
		res.Message = fmt.Sprintf("memory inspection failed: %v", err)
	case float64(available) < v.cfg.Prereq.MinMemoryGB*gigabyte:
		res.Passed = false
		res.Message = fmt.Sprintf("%.1f GB available, %.1f GB recommended", float64(available)/gigabyte, v.cfg.Prereq.MinMemoryGB)
	default:
		res.Message = fmt.Sprintf("%.1f GB available", float64(available)/gigabyte)
	}

	return finish(res, start)
}

// boundedCtx caps one subprocess call at the configured check timeout. Every
// external call made during pre-flight must carry a deadline: a wedged daemon
// is one of the conditions these checks exist to diagnose.
func (v *Validator) boundedCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := v.cfg.Prereq.CheckTimeout.Std()
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func finish(res model.ProbeResult, start time.Time) model.ProbeResult {
	res.Duration = time.Since(start)
	res.Timestamp = time.Now()
	return res
}
