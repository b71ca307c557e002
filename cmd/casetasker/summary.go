package main

import (
	"fmt"
	"strings"

	"casetasker/internal/processor"
	"casetasker/internal/workflow"

	"github.com/charmbracelet/lipgloss"
)

var (
	labelStyle = lipgloss.NewStyle().Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#6B7280")).
			Padding(0, 1)
)

var summaryRows = []struct {
	label   string
	outcome processor.Outcome
	style   lipgloss.Style
}{
	{"created", processor.OutcomeCreated, okStyle},
	{"created, not marked", processor.OutcomeUnmarked, warnStyle},
	{"not verified", processor.OutcomeNotVerified, warnStyle},
	{"navigation failed", processor.OutcomeNavigationFailed, errorStyle},
	{"failed", processor.OutcomeFailed, errorStyle},
}

// renderSummary formats the end-of-run report shown to the operator.
func renderSummary(runID string, sum workflow.Summary, runErr error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("run"), runID)
	fmt.Fprintf(&b, "%-20s %d\n", "pending", sum.Fetched)
	for _, row := range summaryRows {
		n := sum.Count(row.outcome)
		if n == 0 {
			continue
		}
		fmt.Fprintf(&b, "%-20s %s\n", row.label, row.style.Render(fmt.Sprint(n)))
	}
	if sum.Reauths > 0 {
		fmt.Fprintf(&b, "%-20s %d\n", "re-authentications", sum.Reauths)
	}
	if sum.Skipped > 0 {
		fmt.Fprintf(&b, "%-20s %s\n", "skipped", warnStyle.Render(fmt.Sprint(sum.Skipped)))
	}
	if runErr != nil {
		fmt.Fprintf(&b, "%s %v\n", errorStyle.Render("aborted:"), runErr)
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}
