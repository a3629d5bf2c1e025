package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loopYAML = `
uuid: loop
type: section
nodes:
  - uuid: p1
    type: set
    items:
      - uuid: age
        type: integer
        fieldName: age
        navigationRules:
          - condition: age >= 65
            target: retired
      - uuid: job
        type: text
        fieldName: job
  - uuid: p2
    type: set
    items:
      - uuid: retired
        type: boolean
        fieldName: retired
        navigationRules:
          - condition: retired == false
            target: age
`

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "loop.yaml"), []byte(loopYAML), 0o644))

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--dir", dir, "--log-level", "error"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "surveyflow version")
}

func TestGraph_Formats(t *testing.T) {
	out, err := execute(t, "", "graph", "loop", "--format", "mermaid", "--direction", "TB")
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, `age -- "age >= 65" --> retired`)

	out, err = execute(t, "", "graph", "loop", "--format", "dot", "--direction", "LR")
	require.NoError(t, err)
	assert.Contains(t, out, "rankdir=LR")

	_, err = execute(t, "", "graph", "loop", "--format", "svg")
	assert.Error(t, err)
}

func TestCyclesAndCheck(t *testing.T) {
	out, err := execute(t, "", "cycles", "loop", "--json")
	require.NoError(t, err)
	var res struct {
		Cycles []string `json:"cycles"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []string{"age → retired → age"}, res.Cycles)

	// Cycles are warnings, so the check passes.
	out, err = execute(t, "", "check", "loop", "--json=false")
	require.NoError(t, err)
	assert.Contains(t, out, "# Flow check: loop")
	assert.Contains(t, out, "`cycle`")
}

func TestGraphTreeRoundTrip(t *testing.T) {
	graphJSON, err := execute(t, "", "graph", "loop", "--format", "json", "--layout=false")
	require.NoError(t, err)

	out, err := execute(t, graphJSON, "tree", "-")
	require.NoError(t, err)
	assert.Contains(t, out, `"uuid": "loop"`)
	assert.Contains(t, out, `"navigationRules"`)

	out, err = execute(t, graphJSON, "layout", "-")
	require.NoError(t, err)
	assert.Contains(t, out, `"position"`)
}

func TestResolveAndEval(t *testing.T) {
	out, err := execute(t, "", "resolve", "loop", "age", "--answers", `{"age":70}`)
	require.NoError(t, err)
	assert.Contains(t, out, `"target": "retired"`)

	out, err = execute(t, "", "resolve", "loop", "age", "--answers", `{"age":30}`)
	require.NoError(t, err)
	assert.Contains(t, out, `"destination": null`)

	out, err = execute(t, "", "eval", "age >= 18 and job == 'dev'", "--answers", `{"age":20,"job":"dev"}`)
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)
}

func TestRun_Headless(t *testing.T) {
	out, err := execute(t, "30\ndev\n", "run", "loop", "--headless", "--session", "")
	require.NoError(t, err)
	assert.NotContains(t, out, "Interrupted")
}
