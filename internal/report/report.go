// Package report folds probe results from every phase into one outcome and
// renders the operator-facing summary. Aggregation is pure: no I/O, fully
// deterministic given its inputs.
package report

import (
	"github.com/stackpilot/stackpilot/internal/model"
)

// Summary is the merged view over all phase reports of one invocation.
type Summary struct {
	Outcome  model.Outcome
	Results  []model.ProbeResult
	Blocking []model.ProbeResult
	Advisory []model.ProbeResult
	Passed   int
}

// Aggregate merges the reports in order. The outcome is a pure function of
// the collected severities: any failed blocking entry means failed, failed
// advisory entries alone mean degraded, otherwise success.
func Aggregate(reports ...*model.RunReport) Summary {
	summary := Summary{Outcome: model.OutcomeSuccess}

	for _, report := range reports {
		if report == nil {
			continue
		}
		for _, res := range report.Results() {
			summary.Results = append(summary.Results, res)
			switch {
			case res.Blocking():
				summary.Blocking = append(summary.Blocking, res)
			case res.Advisory():
				summary.Advisory = append(summary.Advisory, res)
			default:
				summary.Passed++
			}
		}
	}

	switch {
	case len(summary.Blocking) > 0:
		summary.Outcome = model.OutcomeFailed
	case len(summary.Advisory) > 0:
		summary.Outcome = model.OutcomeDegraded
	}

	return summary
}

// ExitCode maps the outcome to the process exit code: degraded warnings are
// surfaced but do not fail the invocation.
func (s Summary) ExitCode() int {
	if s.Outcome == model.OutcomeFailed {
		return 1
	}
	return 0
}
