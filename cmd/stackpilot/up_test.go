package main

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stackpilot/stackpilot/internal/config"
)

func TestRunUp_ConfigError(t *testing.T) {
	_, stderr, rec := wireApp(t, nil, healthyFake())
	loadConfigFunc = func(string) (*config.Config, error) {
		return nil, errors.New("yaml exploded")
	}

	require.NoError(t, runUp(&upOptions{root: &rootFlags{configPath: "broken.yaml"}}))
	require.Equal(t, 2, rec.last(t))
	require.Contains(t, stderr.String(), "Error loading stack definition")
}

func TestRunUp_HappyPath(t *testing.T) {
	cfg := testConfig(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	cfg.Services[0].TCP = &config.TCPProbe{Address: ln.Addr().String()}

	fake := healthyFake()
	fake.Script("docker compose -f docker-compose.yml up -d", "", nil)
	fake.Script("docker ps --all --format {{json .}}",
		`{"Names":"demo-gateway","State":"running"}`+"\n", nil)

	stdout, stderr, rec := wireApp(t, cfg, fake)

	require.NoError(t, runUp(&upOptions{root: &rootFlags{}}))
	require.Equal(t, 0, rec.last(t))
	require.Empty(t, stderr.String())
	require.Contains(t, stdout.String(), "Stack report: SUCCESS")
	require.Contains(t, stdout.String(), "Endpoints:")
	require.Contains(t, fake.Calls(), "docker compose -f docker-compose.yml up -d")
}

func TestRunUp_BlockedPrerequisitesSkipLaunch(t *testing.T) {
	cfg := testConfig(t)
	fake := healthyFake()
	fake.MarkMissing("docker")

	stdout, _, rec := wireApp(t, cfg, fake)

	require.NoError(t, runUp(&upOptions{root: &rootFlags{}}))
	require.Equal(t, 1, rec.last(t))
	require.Contains(t, stdout.String(), "Stack report: FAILED")
	require.NotContains(t, fake.Calls(), "docker compose -f docker-compose.yml up -d")
}

func TestRunUp_UnknownProfile(t *testing.T) {
	cfg := testConfig(t)
	fake := healthyFake()

	_, stderr, rec := wireApp(t, cfg, fake)

	require.NoError(t, runUp(&upOptions{root: &rootFlags{}, profile: "staging"}))
	require.Equal(t, 2, rec.last(t))
	require.Contains(t, stderr.String(), "Configuration error")
}

func TestRunUp_StartFailureExitsNonZero(t *testing.T) {
	cfg := testConfig(t)
	fake := healthyFake()
	fake.Script("docker compose -f docker-compose.yml up -d", "port already allocated", errors.New("exit status 1"))

	stdout, stderr, rec := wireApp(t, cfg, fake)

	require.NoError(t, runUp(&upOptions{root: &rootFlags{}}))
	require.Equal(t, 1, rec.last(t))
	require.Contains(t, stderr.String(), "Launch error")
	require.Contains(t, stdout.String(), "Stack report: FAILED")
	// Verification never ran against the broken stack.
	require.NotContains(t, fake.Calls(), "docker ps --all --format {{json .}}")
}

func TestRunUp_BuildFlagRebuildsImages(t *testing.T) {
	cfg := testConfig(t)
	fake := healthyFake()
	fake.Script("docker compose -f docker-compose.yml build --no-cache", "", nil)
	fake.Script("docker compose -f docker-compose.yml up -d", "", nil)
	fake.Script("docker ps --all --format {{json .}}",
		`{"Names":"demo-gateway","State":"running"}`+"\n", nil)

	_, _, rec := wireApp(t, cfg, fake)

	require.NoError(t, runUp(&upOptions{root: &rootFlags{}, build: true}))
	require.Equal(t, 0, rec.last(t))
	require.Contains(t, fake.Calls(), "docker compose -f docker-compose.yml build --no-cache")
}
