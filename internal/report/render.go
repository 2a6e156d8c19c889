package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/stackpilot/stackpilot/internal/config"
	"github.com/stackpilot/stackpilot/internal/model"
)

// RenderOptions controls the human-readable summary.
type RenderOptions struct {
	// Color enables ANSI styling; disable when stdout is not a terminal.
	Color bool
	// Endpoints are listed when the stack is usable (success or degraded).
	Endpoints []config.Endpoint
}

type styles struct {
	header   lipgloss.Style
	outcome  map[model.Outcome]lipgloss.Style
	blocking lipgloss.Style
	advisory lipgloss.Style
	pass     lipgloss.Style
	dim      lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{
			header: plain,
			outcome: map[model.Outcome]lipgloss.Style{
				model.OutcomeSuccess:  plain,
				model.OutcomeDegraded: plain,
				model.OutcomeFailed:   plain,
			},
			blocking: plain,
			advisory: plain,
			pass:     plain,
			dim:      plain,
		}
	}

	return styles{
		header: lipgloss.NewStyle().Bold(true),
		outcome: map[model.Outcome]lipgloss.Style{
			model.OutcomeSuccess:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
			model.OutcomeDegraded: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
			model.OutcomeFailed:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		},
		blocking: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		advisory: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		pass:     lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		dim:      lipgloss.NewStyle().Faint(true),
	}
}

// Render produces the operator summary: failures grouped by severity with
// remediation hints, pass counts, and the stack's access endpoints when the
// outcome permits using it.
func (s Summary) Render(opts RenderOptions) string {
	st := newStyles(opts.Color)
	var b strings.Builder

	b.WriteString(st.header.Render("Stack report: "))
	b.WriteString(st.outcome[s.Outcome].Render(strings.ToUpper(string(s.Outcome))))
	b.WriteString("\n")

	if len(s.Blocking) > 0 {
		b.WriteString("\n")
		b.WriteString(st.header.Render("Blocking issues:"))
		b.WriteString("\n")
		for _, res := range s.Blocking {
			writeFinding(&b, st.blocking, "✖", res)
		}
	}

	if len(s.Advisory) > 0 {
		b.WriteString("\n")
		b.WriteString(st.header.Render("Warnings:"))
		b.WriteString("\n")
		for _, res := range s.Advisory {
			writeFinding(&b, st.advisory, "⚠", res)
		}
	}

	b.WriteString("\n")
	b.WriteString(st.pass.Render(fmt.Sprintf("Checks passed: %d/%d", s.Passed, len(s.Results))))
	b.WriteString("\n")

	if s.Outcome != model.OutcomeFailed && len(opts.Endpoints) > 0 {
		b.WriteString("\n")
		b.WriteString(st.header.Render("Endpoints:"))
		b.WriteString("\n")
		width := 0
		for _, ep := range opts.Endpoints {
			if len(ep.Name) > width {
				width = len(ep.Name)
			}
		}
		for _, ep := range opts.Endpoints {
			b.WriteString(fmt.Sprintf("  %-*s  %s\n", width, ep.Name, ep.URL))
		}
	}

	return b.String()
}

func writeFinding(b *strings.Builder, style lipgloss.Style, symbol string, res model.ProbeResult) {
	b.WriteString("  ")
	b.WriteString(style.Render(fmt.Sprintf("%s %s (%s): %s", symbol, res.Name, res.Category, res.Message)))
	b.WriteString("\n")
	if res.Remediation != "" {
		b.WriteString(fmt.Sprintf("      remediation: %s\n", res.Remediation))
	}
}
