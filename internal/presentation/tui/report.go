package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/surveyflow/pkg/flow"
)

// CheckReport formats the findings of a flow check as markdown.
func CheckReport(surveyID string, issues []flow.Issue) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Flow check: %s\n\n", surveyID)

	if len(issues) == 0 {
		sb.WriteString("No issues found.\n")
		return sb.String()
	}

	var errs, warns int
	for _, i := range issues {
		if i.Severity == flow.SeverityError {
			errs++
		} else {
			warns++
		}
	}
	fmt.Fprintf(&sb, "**%d error(s)**, **%d warning(s)**\n\n", errs, warns)

	sb.WriteString("| Severity | Code | Block | Message |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, i := range issues {
		block := i.BlockID
		if block == "" {
			block = "-"
		}
		fmt.Fprintf(&sb, "| %s | `%s` | %s | %s |\n", i.Severity, i.Code, block, cell(i.Message))
	}
	return sb.String()
}

// CycleReport formats detected cycles as a markdown list.
func CycleReport(cycles []string) string {
	if len(cycles) == 0 {
		return "No cycles detected.\n"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %d cycle(s)\n\n", len(cycles))
	for _, c := range cycles {
		fmt.Fprintf(&sb, "- %s\n", c)
	}
	return sb.String()
}

func cell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", "\\|"), "\n", " ")
}
