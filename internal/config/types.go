package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks for the stack definition when the
// operator does not pass --config.
const DefaultPath = "stackpilot.yaml"

// Duration wraps time.Duration so YAML values can use Go duration strings
// such as "5s" or "1m30s".
type Duration time.Duration

// UnmarshalYAML decodes a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML encodes the duration as a Go duration string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the full stack definition: which services make up the cluster,
// how to recognize and health-check them, and the thresholds the
// prerequisite and verification phases enforce.
type Config struct {
	Version      string               `yaml:"version" validate:"required"`
	Name         string               `yaml:"name,omitempty" validate:"omitempty,max=100"`
	Compose      ComposeConfig        `yaml:"compose,omitempty"`
	Env          EnvConfig            `yaml:"env,omitempty"`
	WorkspaceDir string               `yaml:"workspace_dir,omitempty"`
	Prereq       PrereqConfig         `yaml:"prereq,omitempty"`
	Launch       LaunchConfig         `yaml:"launch,omitempty"`
	Verify       VerifyConfig         `yaml:"verify,omitempty"`
	Services     []ServiceDescriptor  `yaml:"services" validate:"required,min=1,dive"`
	Database     *DatabaseConfig      `yaml:"database,omitempty"`
	Endpoints    []Endpoint           `yaml:"endpoints,omitempty" validate:"omitempty,dive"`
	Profiles     map[string]EnvValues `yaml:"profiles,omitempty"`
}

// EnvValues is a flat set of environment overrides contributed by a profile.
type EnvValues map[string]string

// ComposeConfig locates the compose definition the launcher drives.
type ComposeConfig struct {
	File    string `yaml:"file,omitempty"`
	Project string `yaml:"project,omitempty"`
}

// EnvConfig locates the active environment file and the template it is
// materialized from when absent.
type EnvConfig struct {
	File     string `yaml:"file,omitempty"`
	Template string `yaml:"template,omitempty"`
}

// PrereqConfig carries the thresholds for pre-flight checks.
type PrereqConfig struct {
	RequiredPorts []int   `yaml:"required_ports,omitempty" validate:"omitempty,dive,min=1,max=65535"`
	MinDiskGB     float64 `yaml:"min_disk_gb,omitempty" validate:"omitempty,gt=0"`
	MinMemoryGB   float64 `yaml:"min_memory_gb,omitempty" validate:"omitempty,gt=0"`
	MinBashMajor  int     `yaml:"min_bash_major,omitempty" validate:"omitempty,min=1"`
	DiskPath      string  `yaml:"disk_path,omitempty"`
	// CheckTimeout bounds each pre-flight subprocess call so a wedged
	// daemon surfaces as a failed check instead of a hang.
	CheckTimeout Duration `yaml:"check_timeout,omitempty"`
}

// LaunchConfig carries bring-up tunables.
type LaunchConfig struct {
	// SettleDelay is the grace period between compose up and verification.
	// Fixed-delay settling is deliberate; see the verify package for the
	// reasoning.
	SettleDelay Duration `yaml:"settle_delay,omitempty"`
}

// VerifyConfig carries post-start probe tunables.
type VerifyConfig struct {
	ProbeTimeout Duration `yaml:"probe_timeout,omitempty"`
	MinDiskGB    float64  `yaml:"min_disk_gb,omitempty" validate:"omitempty,gt=0"`
}

// ServiceDescriptor describes one expected cluster member: how to recognize
// its running container and, optionally, how to health-check it. Loaded once
// and read-only thereafter.
type ServiceDescriptor struct {
	Name          string     `yaml:"name" validate:"required,min=1"`
	Match         MatchSpec  `yaml:"match" validate:"required"`
	ExpectedState string     `yaml:"expected_state,omitempty" validate:"omitempty,oneof=running"`
	HTTP          *HTTPProbe `yaml:"http,omitempty"`
	TCP           *TCPProbe  `yaml:"tcp,omitempty"`
}

// MatchSpec says how to recognize a service's container by name.
type MatchSpec struct {
	Kind    string `yaml:"kind" validate:"required,oneof=exact prefix regex"`
	Pattern string `yaml:"pattern" validate:"required,min=1"`
}

// Matches reports whether the container name satisfies the spec. Regex
// patterns are validated at config load, so a compile failure here means the
// config was never validated.
func (m MatchSpec) Matches(containerName string) (bool, error) {
	switch m.Kind {
	case "exact":
		return containerName == m.Pattern, nil
	case "prefix":
		return strings.HasPrefix(containerName, m.Pattern), nil
	case "regex":
		re, err := regexp.Compile(m.Pattern)
		if err != nil {
			return false, fmt.Errorf("compile match pattern %q: %w", m.Pattern, err)
		}
		return re.MatchString(containerName), nil
	default:
		return false, fmt.Errorf("unknown match kind %q", m.Kind)
	}
}

// HTTPProbe is a best-effort health endpoint check.
type HTTPProbe struct {
	URL     string   `yaml:"url" validate:"required,url"`
	Timeout Duration `yaml:"timeout,omitempty"`
}

// TCPProbe is a raw connect-and-close reachability check against the
// service's primary port. Unlike HTTP probes it is load-bearing: there is no
// higher-level health signal for raw-port services.
type TCPProbe struct {
	Address string   `yaml:"address" validate:"required,hostport"`
	Timeout Duration `yaml:"timeout,omitempty"`
}

// DatabaseConfig describes the relational database member and what schema
// objects verification expects to find.
type DatabaseConfig struct {
	Service string `yaml:"service" validate:"required"`
	User    string `yaml:"user" validate:"required"`
	Name    string `yaml:"name" validate:"required"`
	Schema  string `yaml:"schema,omitempty"`
}

// Endpoint is an operator-facing access point listed on healthy outcomes.
type Endpoint struct {
	Name string `yaml:"name" validate:"required"`
	URL  string `yaml:"url" validate:"required"`
}
