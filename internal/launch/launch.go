// Package launch sequences cluster bring-up: the prerequisite gate, optional
// teardown and rebuild, environment-file materialization, compose start, and
// the settle delay before verification.
package launch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/joho/godotenv"

	"github.com/stackpilot/stackpilot/internal/compose"
	"github.com/stackpilot/stackpilot/internal/config"
	"github.com/stackpilot/stackpilot/internal/logger"
	"github.com/stackpilot/stackpilot/internal/model"
	pilotErrors "github.com/stackpilot/stackpilot/pkg/errors"
)

// ErrBlocked is returned when failed prerequisite checks stop the launch
// before any cluster state is touched.
var ErrBlocked = errors.New("launch blocked by failed prerequisite checks")

// Options carries the recognized launch flags.
type Options struct {
	// Build rebuilds all images without cache before starting.
	Build bool
	// Clean tears down existing containers and volumes and prunes runtime
	// state before starting.
	Clean bool
	// Profile selects a named set of environment overrides.
	Profile string
}

// PrereqValidator is the gate consulted before anything mutates.
type PrereqValidator interface {
	Validate(ctx context.Context) *model.RunReport
}

// Launcher drives the bring-up state machine.
type Launcher struct {
	cfg    *config.Config
	docker *compose.Client
	prereq PrereqValidator
	log    *logger.Logger
}

// New creates a Launcher.
func New(cfg *config.Config, docker *compose.Client, prereq PrereqValidator, log *logger.Logger) *Launcher {
	return &Launcher{cfg: cfg, docker: docker, prereq: prereq, log: log}
}

// Launch runs the state machine and returns the prerequisite and launch
// reports. A non-nil error means the pipeline aborted: failed prerequisites
// (ErrBlocked) or a fatal start failure. Advisory findings along the way are
// collected in the reports, never returned as errors.
func (l *Launcher) Launch(ctx context.Context, opts Options) ([]*model.RunReport, error) {
	l.transition(model.ClusterInit)
	report := model.NewRunReport(model.PhaseLaunch)

	l.transition(model.ClusterPrereqCheck)
	prereqReport := l.prereq.Validate(ctx)
	reports := []*model.RunReport{prereqReport, report}
	if prereqReport.HasBlocking() {
		l.transition(model.ClusterFailed)
		return reports, ErrBlocked
	}

	if opts.Clean {
		l.transition(model.ClusterClean)
		if err := l.docker.Down(ctx, true); err != nil {
			l.transition(model.ClusterFailed)
			return reports, err
		}
		if err := l.docker.Prune(ctx); err != nil {
			l.transition(model.ClusterFailed)
			return reports, err
		}
	}

	env, err := l.profileEnv(opts.Profile)
	if err != nil {
		l.transition(model.ClusterFailed)
		return reports, err
	}

	if opts.Build {
		l.transition(model.ClusterBuild)
		if err := l.docker.Build(ctx, env); err != nil {
			l.transition(model.ClusterFailed)
			return reports, err
		}
	}

	l.transition(model.ClusterConfigEnsure)
	report.Append(l.ensureConfig()...)

	l.transition(model.ClusterStart)
	start := time.Now()
	if err := l.docker.Up(ctx, env); err != nil {
		report.Append(model.ProbeResult{
			Category:    model.CategoryContainer,
			Name:        "cluster start",
			Severity:    model.SeverityBlocking,
			Passed:      false,
			Message:     err.Error(),
			Remediation: "inspect the compose logs and confirm the container runtime is healthy",
			Duration:    time.Since(start),
			Timestamp:   time.Now(),
		})
		l.transition(model.ClusterFailed)
		return reports, err
	}
	report.Append(model.ProbeResult{
		Category:  model.CategoryContainer,
		Name:      "cluster start",
		Severity:  model.SeverityBlocking,
		Passed:    true,
		Message:   "compose up completed",
		Duration:  time.Since(start),
		Timestamp: time.Now(),
	})

	l.transition(model.ClusterSettle)
	if err := l.settle(ctx); err != nil {
		return reports, err
	}

	return reports, nil
}

// ensureConfig materializes the environment file from its template when
// absent and creates the workspace directory. Both remediations are
// auto-applied and surface as advisory findings, never as errors.
func (l *Launcher) ensureConfig() []model.ProbeResult {
	var results []model.ProbeResult

	if _, err := os.Stat(l.cfg.Env.File); os.IsNotExist(err) {
		results = append(results, l.materializeEnvFile())
	}

	if _, err := os.Stat(l.cfg.WorkspaceDir); os.IsNotExist(err) {
		res := model.ProbeResult{
			Category:  model.CategoryPrerequisite,
			Name:      "workspace directory",
			Severity:  model.SeverityAdvisory,
			Passed:    true,
			Message:   fmt.Sprintf("created %s", l.cfg.WorkspaceDir),
			Timestamp: time.Now(),
		}
		if err := os.MkdirAll(l.cfg.WorkspaceDir, 0o755); err != nil {
			res.Passed = false
			res.Message = fmt.Sprintf("could not create %s: %v", l.cfg.WorkspaceDir, err)
			res.Remediation = "create the workspace directory manually"
		}
		results = append(results, res)
	}

	return results
}

func (l *Launcher) materializeEnvFile() model.ProbeResult {
	res := model.ProbeResult{
		Category:    model.CategoryPrerequisite,
		Name:        "environment file",
		Severity:    model.SeverityAdvisory,
		Passed:      false,
		Remediation: fmt.Sprintf("review %s and replace the template defaults", l.cfg.Env.File),
		Timestamp:   time.Now(),
	}

	// Parse before copying so a broken template is reported instead of
	// propagated into the active file.
	if _, err := godotenv.Read(l.cfg.Env.Template); err != nil {
		res.Message = fmt.Sprintf("environment file missing and template %s unusable: %v", l.cfg.Env.Template, err)
		res.Remediation = fmt.Sprintf("create %s by hand", l.cfg.Env.File)
		return res
	}

	data, err := os.ReadFile(l.cfg.Env.Template)
	if err == nil {
		err = os.WriteFile(l.cfg.Env.File, data, 0o600)
	}
	if err != nil {
		res.Message = fmt.Sprintf("could not materialize %s: %v", l.cfg.Env.File, err)
		return res
	}

	res.Message = fmt.Sprintf("created %s from %s; edit it before relying on this stack", l.cfg.Env.File, l.cfg.Env.Template)
	l.log.WithField("file", l.cfg.Env.File).Info("materialized environment file from template")
	return res
}

// profileEnv assembles the environment handed to compose: the active env
// file (when present), overlaid with the selected profile's overrides.
func (l *Launcher) profileEnv(profile string) ([]string, error) {
	values := map[string]string{}
	if fileValues, err := godotenv.Read(l.cfg.Env.File); err == nil {
		values = fileValues
	}

	if profile != "" {
		overrides, ok := l.cfg.Profiles[profile]
		if !ok {
			return nil, pilotErrors.NewValidationError("profile", fmt.Sprintf("unknown profile %q", profile), nil)
		}
		for k, v := range overrides {
			values[k] = v
		}
		values["STACKPILOT_PROFILE"] = profile
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+values[k])
	}
	return env, nil
}

// settle waits the configured grace delay so services can initialize before
// verification. A fixed delay is deliberately simple; polling with backoff
// remains an operator-visible tunable via settle_delay.
func (l *Launcher) settle(ctx context.Context) error {
	delay := l.cfg.Launch.SettleDelay.Std()
	if delay <= 0 {
		return nil
	}

	l.log.WithField("delay", delay.String()).Info("waiting for services to settle")
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (l *Launcher) transition(phase model.ClusterPhase) {
	l.log.WithField("phase", phase.String()).Debug("launcher state")
}
