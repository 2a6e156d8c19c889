package model

import (
	"time"
)

// Category identifies which aspect of the environment a probe inspected.
type Category string

const (
	// CategoryPrerequisite covers host-environment capability checks.
	CategoryPrerequisite Category = "prerequisite"
	// CategoryContainer covers container liveness and state checks.
	CategoryContainer Category = "container"
	// CategoryNetwork covers HTTP and raw TCP reachability checks.
	CategoryNetwork Category = "network"
	// CategoryDatabase covers database readiness and schema checks.
	CategoryDatabase Category = "database"
	// CategoryResource covers disk and memory headroom checks.
	CategoryResource Category = "resource"
)

// Severity is the classification tier a probe assigns at creation time.
// It is fixed by the producing probe and never reinterpreted downstream.
type Severity string

const (
	// SeverityBlocking prevents a success outcome and may abort the pipeline.
	SeverityBlocking Severity = "blocking"
	// SeverityAdvisory is reported but never gates progression.
	SeverityAdvisory Severity = "advisory"
)

// IsValid reports whether the severity is one of the known tiers.
func (s Severity) IsValid() bool {
	return s == SeverityBlocking || s == SeverityAdvisory
}

// ProbeResult captures the outcome of a single bounded-time observation.
// Values are immutable once created; probes hand them to a RunReport and
// never touch them again.
type ProbeResult struct {
	Category    Category
	Name        string
	Severity    Severity
	Passed      bool
	Message     string
	Remediation string
	Duration    time.Duration
	Timestamp   time.Time
}

// Blocking reports whether this result is a failed blocking check.
func (r ProbeResult) Blocking() bool {
	return !r.Passed && r.Severity == SeverityBlocking
}

// Advisory reports whether this result is a failed advisory check.
func (r ProbeResult) Advisory() bool {
	return !r.Passed && r.Severity == SeverityAdvisory
}
