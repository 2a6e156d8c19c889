package config

import "time"

// Default returns the conventional stack topology: gateway on the raw
// message port, tools backend and debug UI over HTTP, Postgres, and a
// metrics sidecar. Used when no stackpilot.yaml is present.
func Default() *Config {
	cfg := &Config{
		Version: "1",
		Name:    "local stack",
		Services: []ServiceDescriptor{
			{
				Name:  "gateway",
				Match: MatchSpec{Kind: "prefix", Pattern: "gateway"},
				TCP:   &TCPProbe{Address: "127.0.0.1:8811"},
			},
			{
				Name:  "tools",
				Match: MatchSpec{Kind: "prefix", Pattern: "tools"},
				HTTP:  &HTTPProbe{URL: "http://127.0.0.1:9090/health"},
			},
			{
				Name:  "ui",
				Match: MatchSpec{Kind: "prefix", Pattern: "ui"},
				HTTP:  &HTTPProbe{URL: "http://127.0.0.1:5173"},
			},
			{
				Name:  "postgres",
				Match: MatchSpec{Kind: "prefix", Pattern: "postgres"},
			},
		},
		Database: &DatabaseConfig{
			Service: "postgres",
			User:    "postgres",
			Name:    "stack",
		},
		Endpoints: []Endpoint{
			{Name: "debug UI", URL: "http://localhost:5173"},
			{Name: "gateway", URL: "tcp://localhost:8811"},
			{Name: "metrics", URL: "http://localhost:9090"},
			{Name: "postgres", URL: "postgres://localhost:5432/stack"},
		},
	}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills unset tunables so downstream code never handles zero
// values.
func applyDefaults(cfg *Config) {
	if cfg.Compose.File == "" {
		cfg.Compose.File = "docker-compose.yml"
	}
	if cfg.Env.File == "" {
		cfg.Env.File = ".env"
	}
	if cfg.Env.Template == "" {
		cfg.Env.Template = ".env.example"
	}
	if cfg.WorkspaceDir == "" {
		cfg.WorkspaceDir = "workspace"
	}

	if len(cfg.Prereq.RequiredPorts) == 0 {
		cfg.Prereq.RequiredPorts = []int{5173, 8811, 9090, 5432}
	}
	if cfg.Prereq.MinDiskGB == 0 {
		cfg.Prereq.MinDiskGB = 2
	}
	if cfg.Prereq.MinMemoryGB == 0 {
		cfg.Prereq.MinMemoryGB = 4
	}
	if cfg.Prereq.MinBashMajor == 0 {
		cfg.Prereq.MinBashMajor = 4
	}
	if cfg.Prereq.DiskPath == "" {
		cfg.Prereq.DiskPath = "."
	}
	if cfg.Prereq.CheckTimeout == 0 {
		cfg.Prereq.CheckTimeout = Duration(5 * time.Second)
	}

	if cfg.Launch.SettleDelay == 0 {
		cfg.Launch.SettleDelay = Duration(10 * time.Second)
	}

	if cfg.Verify.ProbeTimeout == 0 {
		cfg.Verify.ProbeTimeout = Duration(5 * time.Second)
	}
	if cfg.Verify.MinDiskGB == 0 {
		cfg.Verify.MinDiskGB = 1
	}

	for i := range cfg.Services {
		if cfg.Services[i].ExpectedState == "" {
			cfg.Services[i].ExpectedState = "running"
		}
	}

	if cfg.Database != nil && cfg.Database.Schema == "" {
		cfg.Database.Schema = "public"
	}
}
