package layout_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/flow"
	"github.com/aretw0/surveyflow/pkg/layout"
)

func bigSurvey(t *testing.T, pages, blocks int) *domain.Survey {
	t.Helper()
	s := domain.NewSurvey("big")
	for p := 0; p < pages; p++ {
		pid := fmt.Sprintf("p%d", p)
		_, err := s.AddPage(pid, fmt.Sprintf("Page %d", p))
		require.NoError(t, err)
		for b := 0; b < blocks; b++ {
			blk := domain.Block{Type: "choice", Label: fmt.Sprintf("Question %d.%d", p, b), Options: []string{"yes", "no"}}
			if b == 0 && p+2 < pages {
				blk.NavigationRules = []domain.NavigationRule{
					{Condition: domain.Rule("x", "==", p), Target: fmt.Sprintf("p%d", p+2), IsPage: true},
					{Target: domain.TargetSubmit, IsDefault: true},
				}
			}
			_, err := s.AddBlock(pid, blk)
			require.NoError(t, err)
		}
	}
	return s
}

func TestLayout_NoOverlap(t *testing.T) {
	for _, dir := range []layout.Direction{layout.TopBottom, layout.LeftRight} {
		t.Run(string(dir), func(t *testing.T) {
			g := flow.ToGraph(bigSurvey(t, 8, 5))
			require.LessOrEqual(t, len(g.Nodes), 50)

			opts := layout.DefaultOptions()
			opts.Direction = dir
			out := layout.Layout(g, opts)

			require.Len(t, out.Nodes, len(g.Nodes))
			assert.Equal(t, g.Edges, out.Edges)
			assert.False(t, layout.HasOverlap(out, opts.Padding), "overlaps: %v", layout.Overlaps(out, opts.Padding))
			for _, n := range out.Nodes {
				assert.Positive(t, n.Size.Width, n.ID)
				assert.GreaterOrEqual(t, n.Position.X, 0.0, n.ID)
				assert.GreaterOrEqual(t, n.Position.Y, 0.0, n.ID)
			}
		})
	}
}

func TestLayout_DoesNotMutateInput(t *testing.T) {
	g := flow.ToGraph(bigSurvey(t, 2, 2))
	_ = layout.Layout(g, layout.Options{})
	for _, n := range g.Nodes {
		assert.Equal(t, domain.Position{}, n.Position)
	}
}

func TestLayout_RanksFollowDirection(t *testing.T) {
	g := flow.ToGraph(bigSurvey(t, 2, 1))

	tb := layout.Layout(g, layout.Options{Direction: layout.TopBottom})
	assert.Less(t, tb.Node(domain.StartNodeID).Position.Y, tb.Node("p0").Position.Y)

	lr := layout.Layout(g, layout.Options{Direction: layout.LeftRight})
	assert.Less(t, lr.Node(domain.StartNodeID).Position.X, lr.Node("p0").Position.X)
}

func TestRanks(t *testing.T) {
	g := domain.FlowGraph{
		Nodes: []domain.FlowNode{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "x"}, {ID: "y"}},
		Edges: []domain.FlowEdge{
			{Source: "a", Target: "b"}, {Source: "b", Target: "c"}, {Source: "a", Target: "c"},
			{Source: "x", Target: "y"}, {Source: "y", Target: "x"},
		},
	}
	ranks := layout.Ranks(g)
	require.GreaterOrEqual(t, len(ranks), 3)
	assert.Equal(t, []int{0}, ranks[0])
	assert.ElementsMatch(t, []int{1, 2}, ranks[1], "c is one hop from a")

	total := 0
	for _, r := range ranks {
		total += len(r)
	}
	assert.Equal(t, 5, total, "cycle-only nodes are still ranked")
}

func TestLayout_BranchSpacing(t *testing.T) {
	nodes := []domain.FlowNode{
		{ID: "a", Kind: domain.NodeBlock}, {ID: "b", Kind: domain.NodeBlock}, {ID: "c", Kind: domain.NodeBlock},
	}
	opts := layout.DefaultOptions()
	opts.DimensionAware = false

	plain := domain.FlowGraph{Nodes: nodes, Edges: []domain.FlowEdge{
		{ID: "1", Source: "a", Target: "b", Kind: domain.EdgeSequential},
		{ID: "2", Source: "a", Target: "c", Kind: domain.EdgeSequential},
	}}
	branching := domain.FlowGraph{Nodes: nodes, Edges: []domain.FlowEdge{
		{ID: "1", Source: "a", Target: "b", Kind: domain.EdgeConditional},
		{ID: "2", Source: "a", Target: "c", Kind: domain.EdgeConditional},
	}}

	p := layout.Layout(plain, opts)
	b := layout.Layout(branching, opts)
	plainGap := p.Node("c").Position.X - p.Node("b").Position.X
	branchGap := b.Node("c").Position.X - b.Node("b").Position.X
	assert.InDelta(t, opts.BranchSpacing, branchGap-plainGap, 0.001)
}

func TestEstimateSize(t *testing.T) {
	plain := layout.EstimateSize(domain.FlowNode{Kind: domain.NodeBlock, Data: domain.NodeData{Label: "Q"}})
	withOptions := layout.EstimateSize(domain.FlowNode{Kind: domain.NodeBlock, Data: domain.NodeData{Label: "Q", Options: []string{"a", "b", "c"}}})
	withRules := layout.EstimateSize(domain.FlowNode{Kind: domain.NodeBlock, Data: domain.NodeData{Label: "Q", HasRules: true}})
	long := layout.EstimateSize(domain.FlowNode{Kind: domain.NodeBlock, Data: domain.NodeData{Label: "What is the name of the company you currently work for?"}})

	assert.Greater(t, withOptions.Height, plain.Height)
	assert.Greater(t, withRules.Height, plain.Height)
	assert.Greater(t, long.Width, plain.Width)
	assert.LessOrEqual(t, long.Width, 320.0)
}

func TestResolveOverlaps(t *testing.T) {
	g := domain.FlowGraph{Nodes: []domain.FlowNode{
		{ID: "a", Size: domain.Size{Width: 100, Height: 50}},
		{ID: "b", Position: domain.Position{X: 20, Y: 5}, Size: domain.Size{Width: 100, Height: 50}},
		{ID: "c", Position: domain.Position{X: 40, Y: 300}, Size: domain.Size{Width: 100, Height: 50}},
	}}
	opts := layout.DefaultOptions()
	require.True(t, layout.HasOverlap(g, opts.Padding))

	out, ok := layout.ResolveOverlaps(g, opts)
	assert.True(t, ok)
	assert.False(t, layout.HasOverlap(out, opts.Padding))
	assert.Equal(t, domain.Position{X: 40, Y: 300}, out.Node("c").Position, "untouched node stays")
}

func TestResolveOverlaps_Bounded(t *testing.T) {
	var g domain.FlowGraph
	for i := 0; i < 40; i++ {
		g.Nodes = append(g.Nodes, domain.FlowNode{ID: fmt.Sprint(i), Size: domain.Size{Width: 100, Height: 50}})
	}
	opts := layout.DefaultOptions()
	opts.MaxIterations = 2

	out, _ := layout.ResolveOverlaps(g, opts)
	assert.Len(t, out.Nodes, 40)
}

func TestStabilize(t *testing.T) {
	s := bigSurvey(t, 3, 2)
	opts := layout.DefaultOptions()
	prev := layout.Layout(flow.ToGraph(s), opts)
	prev.Node("p0").Position.X += 5

	next := flow.ToGraph(s)
	kept := layout.Stabilize(prev, next, opts)
	assert.False(t, layout.NeedsRelayout(prev, next, opts))
	assert.Equal(t, prev.Node("p0").Position, kept.Node("p0").Position)

	_, err := s.AddBlock("p1", domain.Block{Type: "text", Label: "extra"})
	require.NoError(t, err)
	grown := flow.ToGraph(s)
	assert.True(t, layout.NeedsRelayout(prev, grown, opts))
	relaid := layout.Stabilize(prev, grown, opts)
	assert.False(t, layout.HasOverlap(relaid, opts.Padding))

	crowded := prev.Clone()
	crowded.Node("p1").Position = crowded.Node("p0").Position
	assert.True(t, layout.NeedsRelayout(crowded, next, opts), "overlap forces relayout")
}
