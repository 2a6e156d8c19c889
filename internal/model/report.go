package model

import (
	"sync"
	"time"
)

// Phase tags a RunReport with the pipeline stage that produced it.
type Phase string

const (
	// PhasePrerequisites marks reports from pre-flight environment checks.
	PhasePrerequisites Phase = "prerequisites"
	// PhaseLaunch marks reports from the cluster bring-up sequence.
	PhaseLaunch Phase = "launch"
	// PhaseVerification marks reports from post-start health probes.
	PhaseVerification Phase = "verification"
)

// Outcome is the overall classification of one invocation.
type Outcome string

const (
	// OutcomeSuccess means no probe failed.
	OutcomeSuccess Outcome = "success"
	// OutcomeDegraded means only advisory probes failed.
	OutcomeDegraded Outcome = "degraded"
	// OutcomeFailed means at least one blocking probe failed.
	OutcomeFailed Outcome = "failed"
)

// RunReport is an ordered collection of probe results for one phase.
// Verification probes run concurrently and share a single report, so
// Append is safe for concurrent use. Reads take a snapshot copy.
type RunReport struct {
	Phase     Phase
	StartedAt time.Time

	mu      sync.Mutex
	results []ProbeResult
}

// NewRunReport creates an empty report for the given phase.
func NewRunReport(phase Phase) *RunReport {
	return &RunReport{Phase: phase, StartedAt: time.Now()}
}

// Append records one or more probe results.
func (r *RunReport) Append(results ...ProbeResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, results...)
}

// Results returns a copy of the collected results in append order.
func (r *RunReport) Results() []ProbeResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ProbeResult, len(r.results))
	copy(out, r.results)
	return out
}

// Len returns the number of collected results.
func (r *RunReport) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

// HasBlocking reports whether any failed blocking result has been collected.
func (r *RunReport) HasBlocking() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.results {
		if res.Blocking() {
			return true
		}
	}
	return false
}
