package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/stackpilot/stackpilot/internal/compose"
	"github.com/stackpilot/stackpilot/internal/config"
	"github.com/stackpilot/stackpilot/internal/logger"
	"github.com/stackpilot/stackpilot/internal/runner"
	"github.com/stackpilot/stackpilot/internal/sysinfo"
)

// Dependency seams. Tests replace these to run commands against scripted
// runners and in-memory writers.
var (
	loadConfigFunc  = config.LoadOrDefault
	newLoggerFunc   = logger.New
	newRunnerFunc   = runner.New
	newSysProbeFunc = sysinfo.New

	stdoutWriter io.Writer = os.Stdout
	stderrWriter io.Writer = os.Stderr
	exitFunc               = os.Exit

	isTerminalFunc = func() bool {
		return term.IsTerminal(int(os.Stdout.Fd()))
	}
)

// appContext bundles the wiring every command shares.
type appContext struct {
	cfg    *config.Config
	log    *logger.Logger
	run    runner.Runner
	docker *compose.Client
	sys    sysinfo.Probe
}

func newAppContext(configPath string, verbose, jsonOutput bool) (*appContext, error) {
	cfg, err := loadConfigFunc(configPath)
	if err != nil {
		return nil, err
	}

	level := "info"
	if verbose {
		level = "debug"
	}
	log, err := newLoggerFunc(logger.Options{Level: level, HumanReadable: !jsonOutput})
	if err != nil {
		return nil, err
	}

	run := newRunnerFunc()
	return &appContext{
		cfg:    cfg,
		log:    log,
		run:    run,
		docker: compose.New(run, log, cfg.Compose.File, cfg.Compose.Project),
		sys:    newSysProbeFunc(),
	}, nil
}

// signalContext cancels on interrupt so in-flight probes are abandoned.
// Probes are observational, so abandoning them has no side effects.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
