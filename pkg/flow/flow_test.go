package flow_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/flow"
)

// sampleSurvey: intro(age, name) -> minor(guardian) | adult(job).
func sampleSurvey(t *testing.T) *domain.Survey {
	t.Helper()
	s := domain.NewSurvey("root")
	for _, p := range []struct{ id, name string }{{"intro", "Intro"}, {"minor", "Minor"}, {"adult", "Adult"}} {
		_, err := s.AddPage(p.id, p.name)
		require.NoError(t, err)
	}
	add := func(page string, b domain.Block) {
		_, err := s.AddBlock(page, b)
		require.NoError(t, err)
	}
	add("intro", domain.Block{
		UUID: "age", Type: "number", FieldName: "age", Label: "Age",
		NavigationRules: []domain.NavigationRule{
			{Condition: domain.Expr("age < 18"), Target: "Minor", IsPage: true},
			{Condition: domain.Rule("age", ">", 120), Target: "ghost"},
			{Target: "adult", IsPage: true, IsDefault: true},
		},
	})
	add("intro", domain.Block{Type: "text", FieldName: "name"})
	add("minor", domain.Block{
		UUID: "guardian", Type: "text", FieldName: "guardian",
		NavigationRules: []domain.NavigationRule{{Target: domain.TargetSubmit, IsDefault: true}},
	})
	add("adult", domain.Block{UUID: "job", Type: "choice", FieldName: "job", Options: []string{"dev", "ops"}})
	return s
}

func edgesOf(g domain.FlowGraph, kind domain.EdgeKind) []domain.FlowEdge {
	var out []domain.FlowEdge
	for _, e := range g.Edges {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

type ruleEdge struct {
	source, target, cond string
	isDefault            bool
}

func conditionalSet(g domain.FlowGraph) []ruleEdge {
	var out []ruleEdge
	for _, e := range edgesOf(g, domain.EdgeConditional) {
		c := ""
		if e.Data.Condition != nil {
			c = e.Data.Condition.String()
		}
		out = append(out, ruleEdge{e.Source, e.Target, c, e.Data.IsDefault})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].source != out[j].source {
			return out[i].source < out[j].source
		}
		return out[i].target < out[j].target
	})
	return out
}

func TestToGraph_Structure(t *testing.T) {
	g := flow.ToGraph(sampleSurvey(t))

	require.NotNil(t, g.Node(domain.StartNodeID))
	require.NotNil(t, g.Node(domain.SubmitNodeID))
	require.NotNil(t, g.Node("intro-block-1"), "derived block id")
	assert.Equal(t, domain.NodePage, g.Node("minor").Kind)
	assert.Len(t, g.Nodes, 2+3+4)

	starts := edgesOf(g, domain.EdgeStartEntry)
	require.Len(t, starts, 1)
	assert.Equal(t, "intro", starts[0].Target)

	assert.Len(t, edgesOf(g, domain.EdgePageEntry), 3)
	assert.Len(t, edgesOf(g, domain.EdgePageToPage), 2)

	seq := edgesOf(g, domain.EdgeSequential)
	require.Len(t, seq, 4)
	var last domain.FlowEdge
	for _, e := range seq {
		if e.Source == "age" {
			assert.True(t, e.Data.Dashed, "source has rules")
		}
		if e.Source == "intro-block-1" {
			assert.False(t, e.Data.Dashed)
			assert.Equal(t, "guardian", e.Target, "crosses pages")
		}
		if e.Target == domain.SubmitNodeID {
			last = e
		}
	}
	assert.Equal(t, "job", last.Source)

	cond := edgesOf(g, domain.EdgeConditional)
	require.Len(t, cond, 3, "rule with unknown target is dropped")
	assert.Equal(t, "minor", cond[0].Target, "page names resolve to page ids")
	assert.Equal(t, "Minor", cond[0].Data.Target)
	assert.Equal(t, 2, g.Edge("e-rule-age-2").Data.RuleIndex)
	assert.Equal(t, domain.SubmitNodeID, g.Edge("e-rule-guardian-0").Target)
}

func TestToGraph_NoAliasing(t *testing.T) {
	s := sampleSurvey(t)
	g := flow.ToGraph(s)

	g.Edge("e-rule-age-0").Data.Condition.Expression = "mutated"
	g.Node("job").Data.Options[0] = "mutated"

	b, _ := s.Block("age")
	assert.Equal(t, "age < 18", b.NavigationRules[0].Condition.Expression)
	job, _ := s.Block("job")
	assert.Equal(t, "dev", job.Options[0])
}

func TestToGraph_EmptySurvey(t *testing.T) {
	g := flow.ToGraph(domain.NewSurvey("empty"))
	require.Len(t, g.Edges, 1)
	assert.Equal(t, domain.SubmitNodeID, g.Edges[0].Target)
}

func TestRoundTrip(t *testing.T) {
	s := sampleSurvey(t)
	g1 := flow.ToGraph(s)

	back, err := flow.FromGraph(g1)
	require.NoError(t, err)
	assert.Equal(t, s.Pages, back.Pages)
	assert.Equal(t, "root", back.UUID)

	p, _ := back.Page("intro")
	assert.Equal(t, []string{"age", "intro-block-1"}, p.Blocks)

	g2 := flow.ToGraph(back)
	assert.Equal(t, conditionalSet(g1), conditionalSet(g2))

	age, _ := back.Block("age")
	require.Len(t, age.NavigationRules, 2, "only rules with edges survive")
	assert.Equal(t, "Minor", age.NavigationRules[0].Target, "authored reference kept")
	assert.True(t, age.NavigationRules[0].IsPage)
	assert.True(t, age.NavigationRules[1].IsDefault)

	job, _ := back.Block("job")
	assert.Equal(t, []string{"dev", "ops"}, job.Options)
}

func TestFromGraph_RejectsPageRuleSource(t *testing.T) {
	g := flow.ToGraph(sampleSurvey(t))
	g.Edges = append(g.Edges, domain.FlowEdge{ID: "bad", Source: "intro", Target: "adult", Kind: domain.EdgeConditional})

	_, err := flow.FromGraph(g)
	assert.ErrorIs(t, err, domain.ErrInvalidRuleSource)
}

func TestFromGraph_EmptyConditionIsDefault(t *testing.T) {
	g := flow.ToGraph(sampleSurvey(t))
	g.Edges = append(g.Edges, domain.FlowEdge{
		ID: "new", Source: "job", Target: domain.SubmitNodeID, Kind: domain.EdgeConditional,
	})

	s, err := flow.FromGraph(g)
	require.NoError(t, err)
	job, _ := s.Block("job")
	require.Len(t, job.NavigationRules, 1)
	assert.True(t, job.NavigationRules[0].IsDefault)
	assert.Equal(t, domain.TargetSubmit, job.NavigationRules[0].Target)
}

func TestFromGraph_MembershipFollowsEdges(t *testing.T) {
	cond := domain.Expr("a > 1")
	g := domain.FlowGraph{
		Nodes: []domain.FlowNode{
			{ID: domain.StartNodeID, Kind: domain.NodeStart, Data: domain.NodeData{RefID: "drawn"}},
			{ID: "p1", Kind: domain.NodePage},
			{ID: "b1", Kind: domain.NodeBlock, Data: domain.NodeData{BlockType: "number", FieldName: "a"}},
			{ID: "b2", Kind: domain.NodeBlock, Data: domain.NodeData{BlockType: "text", FieldName: "b"}},
			{ID: "p2", Kind: domain.NodePage},
			{ID: "b3", Kind: domain.NodeBlock, Data: domain.NodeData{BlockType: "text", FieldName: "c"}},
			{ID: domain.SubmitNodeID, Kind: domain.NodeSubmit},
		},
		Edges: []domain.FlowEdge{
			{ID: "s", Source: domain.StartNodeID, Target: "p1", Kind: domain.EdgeStartEntry},
			{ID: "pp", Source: "p1", Target: "p2", Kind: domain.EdgePageToPage},
			{ID: "e1", Source: "p1", Target: "b1", Kind: domain.EdgePageEntry},
			{ID: "e2", Source: "p2", Target: "b3", Kind: domain.EdgePageEntry},
			{ID: "q1", Source: "b1", Target: "b2", Kind: domain.EdgeSequential},
			{ID: "q2", Source: "b2", Target: "b3", Kind: domain.EdgeSequential},
			{ID: "q3", Source: "b3", Target: domain.SubmitNodeID, Kind: domain.EdgeSequential},
			{ID: "r", Source: "b1", Target: domain.SubmitNodeID, Kind: domain.EdgeConditional, Data: domain.EdgeData{Condition: &cond}},
		},
	}

	s, err := flow.FromGraph(g)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, s.Pages)
	p1, _ := s.Page("p1")
	assert.Equal(t, []string{"b1", "b2"}, p1.Blocks)
	p2, _ := s.Page("p2")
	assert.Equal(t, []string{"b3"}, p2.Blocks)

	b1, _ := s.Block("b1")
	require.Len(t, b1.NavigationRules, 1)
	assert.Equal(t, domain.TargetSubmit, b1.NavigationRules[0].Target)
	assert.Equal(t, "a > 1", b1.NavigationRules[0].Condition.Expression)
}
