package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/stackpilot/stackpilot/internal/config"
	"github.com/stackpilot/stackpilot/internal/model"
	"github.com/stackpilot/stackpilot/internal/report"
)

func printSummary(summary report.Summary, endpoints []config.Endpoint, jsonOutput bool) {
	if jsonOutput {
		printJSONSummary(summary, endpoints)
		return
	}

	fmt.Fprint(stdoutWriter, summary.Render(report.RenderOptions{
		Color:     isTerminalFunc(),
		Endpoints: endpoints,
	}))
}

func printJSONSummary(summary report.Summary, endpoints []config.Endpoint) {
	type JSONResult struct {
		Category    string  `json:"category"`
		Name        string  `json:"name"`
		Severity    string  `json:"severity"`
		Passed      bool    `json:"passed"`
		Message     string  `json:"message"`
		Remediation string  `json:"remediation,omitempty"`
		Duration    float64 `json:"duration_seconds"`
		Timestamp   string  `json:"timestamp"`
	}

	type JSONEndpoint struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	}

	type JSONOutput struct {
		Outcome   string         `json:"outcome"`
		Total     int            `json:"total"`
		Passed    int            `json:"passed"`
		Blocking  int            `json:"blocking"`
		Advisory  int            `json:"advisory"`
		Results   []JSONResult   `json:"results"`
		Endpoints []JSONEndpoint `json:"endpoints,omitempty"`
	}

	out := JSONOutput{
		Outcome:  string(summary.Outcome),
		Total:    len(summary.Results),
		Passed:   summary.Passed,
		Blocking: len(summary.Blocking),
		Advisory: len(summary.Advisory),
		Results:  make([]JSONResult, len(summary.Results)),
	}

	for i, res := range summary.Results {
		out.Results[i] = JSONResult{
			Category:    string(res.Category),
			Name:        res.Name,
			Severity:    string(res.Severity),
			Passed:      res.Passed,
			Message:     res.Message,
			Remediation: res.Remediation,
			Duration:    res.Duration.Seconds(),
			Timestamp:   res.Timestamp.Format(time.RFC3339),
		}
	}

	if summary.Outcome != model.OutcomeFailed {
		for _, ep := range endpoints {
			out.Endpoints = append(out.Endpoints, JSONEndpoint{Name: ep.Name, URL: ep.URL})
		}
	}

	encoder := json.NewEncoder(stdoutWriter)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(out)
}
