package tui_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/surveyflow/internal/presentation/tui"
	"github.com/aretw0/surveyflow/pkg/flow"
)

func TestCheckReport(t *testing.T) {
	t.Run("clean", func(t *testing.T) {
		out := tui.CheckReport("s1", nil)
		assert.Contains(t, out, "# Flow check: s1")
		assert.Contains(t, out, "No issues found.")
	})

	t.Run("findings", func(t *testing.T) {
		out := tui.CheckReport("s1", []flow.Issue{
			{Severity: flow.SeverityError, Code: flow.IssueUnresolvedTarget, BlockID: "q1", Message: "target a|b not found"},
			{Severity: flow.SeverityWarning, Code: flow.IssueCycle, Message: "q1 → q2 → q1"},
		})
		assert.Contains(t, out, "**1 error(s)**, **1 warning(s)**")
		assert.Contains(t, out, "| error | `unresolved-target` | q1 | target a\\|b not found |")
		assert.Contains(t, out, "| warning | `cycle` | - | q1 → q2 → q1 |")
	})
}

func TestCycleReport(t *testing.T) {
	assert.Equal(t, "No cycles detected.\n", tui.CycleReport(nil))
	assert.Contains(t, tui.CycleReport([]string{"a → b → a"}), "- a → b → a")
}

func TestNewRenderer(t *testing.T) {
	render, err := tui.NewRenderer("notty", 80)
	require.NoError(t, err)

	out, err := render("# Title\n\nbody text")
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "body text")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|___/")
}
