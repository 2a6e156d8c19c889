// Package compose is the container-runtime boundary: daemon status, typed
// container listings, and compose stack lifecycle commands, all driven
// through the docker CLI.
package compose

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stackpilot/stackpilot/internal/logger"
	"github.com/stackpilot/stackpilot/internal/runner"
	pilotErrors "github.com/stackpilot/stackpilot/pkg/errors"
)

// Container is one entry of the runtime's container listing. Name and State
// are the required field set; a listing entry without them is treated as an
// environment error rather than silently skipped.
type Container struct {
	Name  string `json:"Names"`
	State string `json:"State"`
}

// Running reports whether the container is in the running state.
func (c Container) Running() bool {
	return c.State == "running"
}

// Client drives the docker CLI for one compose project.
type Client struct {
	run     runner.Runner
	log     *logger.Logger
	bin     string
	file    string
	project string
}

// New creates a Client for the compose file. project may be empty, in which
// case compose derives its own project name.
func New(run runner.Runner, log *logger.Logger, composeFile, project string) *Client {
	return &Client{
		run:     run,
		log:     log,
		bin:     "docker",
		file:    composeFile,
		project: project,
	}
}

// BinaryPath resolves the runtime binary, reporting whether it is installed.
func (c *Client) BinaryPath() (string, error) {
	return c.run.LookPath(c.bin)
}

// Ping checks that the runtime daemon is reachable.
func (c *Client) Ping(ctx context.Context) error {
	out, err := c.run.Run(ctx, c.bin, "info", "--format", "{{.ServerVersion}}")
	if err != nil {
		return pilotErrors.NewEnvironmentError(c.bin, "daemon unreachable", fmt.Errorf("%w: %s", err, bytes.TrimSpace(out)))
	}
	return nil
}

// ComposeVersion queries the compose plugin version, confirming the compose
// tool is present.
func (c *Client) ComposeVersion(ctx context.Context) (string, error) {
	out, err := c.run.Run(ctx, c.bin, "compose", "version", "--short")
	if err != nil {
		return "", pilotErrors.NewEnvironmentError("compose", "version query failed", err)
	}
	return string(bytes.TrimSpace(out)), nil
}

// ListContainers returns all containers the runtime reports, running or not.
func (c *Client) ListContainers(ctx context.Context) ([]Container, error) {
	out, err := c.run.Run(ctx, c.bin, "ps", "--all", "--format", "{{json .}}")
	if err != nil {
		return nil, pilotErrors.NewEnvironmentError(c.bin, "container listing failed", err)
	}

	var containers []Container
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry Container
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, pilotErrors.NewEnvironmentError(c.bin, "unexpected container listing shape", err)
		}
		if entry.Name == "" || entry.State == "" {
			return nil, pilotErrors.NewEnvironmentError(c.bin,
				fmt.Sprintf("container listing entry missing name or state: %s", line), nil)
		}
		containers = append(containers, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, pilotErrors.NewEnvironmentError(c.bin, "container listing unreadable", err)
	}

	return containers, nil
}

// Up brings the stack up detached. extraEnv entries (KEY=VALUE) are passed
// through to compose for variable interpolation.
func (c *Client) Up(ctx context.Context, extraEnv []string) error {
	args := append(c.composeArgs(), "up", "-d")
	c.log.WithField("args", strings.Join(args, " ")).Debug("compose up")
	if out, err := c.run.RunEnv(ctx, extraEnv, c.bin, args...); err != nil {
		return pilotErrors.NewExecutionError("compose up", fmt.Errorf("%w: %s", err, bytes.TrimSpace(out)))
	}
	return nil
}

// Build rebuilds all images without cache.
func (c *Client) Build(ctx context.Context, extraEnv []string) error {
	args := append(c.composeArgs(), "build", "--no-cache")
	c.log.WithField("args", strings.Join(args, " ")).Debug("compose build")
	if out, err := c.run.RunEnv(ctx, extraEnv, c.bin, args...); err != nil {
		return pilotErrors.NewExecutionError("compose build", fmt.Errorf("%w: %s", err, bytes.TrimSpace(out)))
	}
	return nil
}

// Down stops the stack. With removeVolumes it also discards named volumes
// and orphaned containers.
func (c *Client) Down(ctx context.Context, removeVolumes bool) error {
	args := append(c.composeArgs(), "down")
	if removeVolumes {
		args = append(args, "--volumes", "--remove-orphans")
	}
	if out, err := c.run.Run(ctx, c.bin, args...); err != nil {
		return pilotErrors.NewExecutionError("compose down", fmt.Errorf("%w: %s", err, bytes.TrimSpace(out)))
	}
	return nil
}

// Prune removes dangling runtime state after a teardown.
func (c *Client) Prune(ctx context.Context) error {
	if out, err := c.run.Run(ctx, c.bin, "system", "prune", "--force"); err != nil {
		return pilotErrors.NewExecutionError("prune", fmt.Errorf("%w: %s", err, bytes.TrimSpace(out)))
	}
	return nil
}

// Exec runs a command inside the named compose service without a TTY.
func (c *Client) Exec(ctx context.Context, service string, command ...string) ([]byte, error) {
	args := append(c.composeArgs(), "exec", "-T", service)
	args = append(args, command...)
	out, err := c.run.Run(ctx, c.bin, args...)
	if err != nil {
		return out, pilotErrors.NewExecutionError("compose exec "+service, err)
	}
	return out, nil
}

func (c *Client) composeArgs() []string {
	args := []string{"compose", "-f", c.file}
	if c.project != "" {
		args = append(args, "-p", c.project)
	}
	return args
}
