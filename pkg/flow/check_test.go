package flow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/flow"
)

func codes(issues []flow.Issue) []flow.IssueCode {
	out := make([]flow.IssueCode, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Code)
	}
	return out
}

func TestCheck_Consistent(t *testing.T) {
	s := sampleSurvey(t)
	g := flow.ToGraph(s)

	// name is skipped: age always leaves through a rule.
	assert.Equal(t, []flow.IssueCode{flow.IssueUnreachable, flow.IssueUnresolvedTarget}, codes(flow.Check(s, g)))
}

func TestCheck_Drift(t *testing.T) {
	s := sampleSurvey(t)
	g := flow.ToGraph(s)

	// Graph edited without updating the tree.
	g.Edges = append(g.Edges, domain.FlowEdge{
		ID: "extra", Source: "job", Target: domain.SubmitNodeID, Kind: domain.EdgeConditional,
	})
	// Tree edited without updating the graph.
	_ = s.SetRules("intro-block-1", []domain.NavigationRule{
		{Condition: domain.Expr("name.eval()"), Target: "job"},
		{Target: "adult", IsPage: true, IsDefault: true},
		{Target: domain.TargetSubmit, IsDefault: true},
	})

	got := codes(flow.Check(s, g))
	assert.Contains(t, got, flow.IssueEdgeWithoutRule)
	assert.Contains(t, got, flow.IssueRuleWithoutEdge)
	assert.Contains(t, got, flow.IssueInvalidCondition)
	assert.Contains(t, got, flow.IssueMultipleDefaults)
	assert.Contains(t, got, flow.IssueDefaultNotLast)
}

func TestCheck_ReportsCycles(t *testing.T) {
	s := sampleSurvey(t)
	g := flow.ToGraph(s)
	g2, s2, err := flow.ConnectEdge(g, s, "job", "age", domain.Rule("job", "==", "dev"), false)
	assert.NoError(t, err)
	g3, s3, err := flow.ConnectEdge(g2, s2, "age", "job", domain.Rule("age", ">", 60), false)
	assert.NoError(t, err)

	issues := flow.Check(s3, g3)
	assert.Contains(t, codes(issues), flow.IssueCycle)
}

func TestUnreachable(t *testing.T) {
	s := sampleSurvey(t)
	g := flow.ToGraph(s)
	assert.Equal(t, []string{"intro-block-1"}, flow.Unreachable(s, g))

	// Without the default rule, age falls through to name, but nothing leads
	// to the adult page any more and guardian always submits.
	require.NoError(t, s.SetRules("age", []domain.NavigationRule{
		{Condition: domain.Expr("age < 18"), Target: "minor", IsPage: true},
	}))
	assert.Equal(t, []string{"job"}, flow.Unreachable(s, flow.ToGraph(s)))
}
