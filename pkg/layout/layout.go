package layout

import (
	"math"

	"github.com/aretw0/surveyflow/pkg/domain"
)

// Layout assigns positions and sizes to every node. Nodes are ranked by BFS
// distance from root-like nodes (those without incoming edges) and spread evenly
// inside their rank; ranks entered from a branching block get extra spacing.
// A bounded overlap pass runs last. The input graph is not modified.
func Layout(g domain.FlowGraph, opts Options) domain.FlowGraph {
	opts = opts.normalized()
	out := g.Clone()
	if len(out.Nodes) == 0 {
		return out
	}

	for i := range out.Nodes {
		switch {
		case opts.DimensionAware:
			out.Nodes[i].Size = EstimateSize(out.Nodes[i])
		case out.Nodes[i].Size.Width <= 0 || out.Nodes[i].Size.Height <= 0:
			out.Nodes[i].Size = opts.DefaultSize
		}
	}

	ranks := Ranks(out)
	branchy := branchRanks(out, ranks)
	place(out, ranks, branchy, opts)
	out, _ = ResolveOverlaps(out, opts)
	return out
}

// Ranks groups node indices by BFS distance from root-like nodes. Nodes that
// only sit on cycles start a new search after the reachable ones are placed.
func Ranks(g domain.FlowGraph) [][]int {
	index := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		index[n.ID] = i
	}
	adj := make([][]int, len(g.Nodes))
	indeg := make([]int, len(g.Nodes))
	for _, e := range g.Edges {
		s, ok1 := index[e.Source]
		t, ok2 := index[e.Target]
		if !ok1 || !ok2 || s == t {
			continue
		}
		adj[s] = append(adj[s], t)
		indeg[t]++
	}

	rank := make([]int, len(g.Nodes))
	for i := range rank {
		rank[i] = -1
	}

	var queue []int
	bfs := func() {
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, next := range adj[cur] {
				if rank[next] < 0 {
					rank[next] = rank[cur] + 1
					queue = append(queue, next)
				}
			}
		}
	}

	for i := range g.Nodes {
		if indeg[i] == 0 {
			rank[i] = 0
			queue = append(queue, i)
		}
	}
	bfs()

	for i := range g.Nodes {
		if rank[i] >= 0 {
			continue
		}
		deepest := 0
		for _, r := range rank {
			deepest = max(deepest, r)
		}
		rank[i] = deepest + 1
		queue = append(queue, i)
		bfs()
	}

	var layers [][]int
	for i, r := range rank {
		for len(layers) <= r {
			layers = append(layers, nil)
		}
		layers[r] = append(layers[r], i)
	}
	return layers
}

// branchRanks marks ranks holding a node entered from a block with two or more
// distinct conditional targets.
func branchRanks(g domain.FlowGraph, ranks [][]int) map[int]bool {
	targets := make(map[string]map[string]bool)
	for _, e := range g.Edges {
		if e.Kind != domain.EdgeConditional {
			continue
		}
		if targets[e.Source] == nil {
			targets[e.Source] = make(map[string]bool)
		}
		targets[e.Source][e.Target] = true
	}
	fromBranch := make(map[string]bool)
	for src, tgts := range targets {
		if len(tgts) < 2 {
			continue
		}
		for _, e := range g.Edges {
			if e.Source == src && e.Kind == domain.EdgeConditional {
				fromBranch[e.Target] = true
			}
		}
	}

	out := make(map[int]bool)
	for r, layer := range ranks {
		for _, i := range layer {
			if fromBranch[g.Nodes[i].ID] {
				out[r] = true
				break
			}
		}
	}
	return out
}

func place(g domain.FlowGraph, ranks [][]int, branchy map[int]bool, opts Options) {
	// main is the rank axis, cross the axis nodes spread along within a rank.
	mainExtent := func(s domain.Size) float64 {
		if opts.Direction == LeftRight {
			return s.Width
		}
		return s.Height
	}
	crossExtent := func(s domain.Size) float64 {
		if opts.Direction == LeftRight {
			return s.Height
		}
		return s.Width
	}

	type slot struct{ main, cross float64 }
	slots := make([]slot, len(g.Nodes))

	mainPos := 0.0
	for r, layer := range ranks {
		gap := opts.NodeSpacing
		if branchy[r] {
			gap += opts.BranchSpacing
		}
		total := 0.0
		thickest := 0.0
		for _, i := range layer {
			total += crossExtent(g.Nodes[i].Size)
			thickest = math.Max(thickest, mainExtent(g.Nodes[i].Size))
		}
		total += gap * float64(max(len(layer)-1, 0))

		cross := -total / 2
		for _, i := range layer {
			slots[i] = slot{main: mainPos, cross: cross}
			cross += crossExtent(g.Nodes[i].Size) + gap
		}
		mainPos += thickest + opts.RankSpacing
	}

	minCross := math.Inf(1)
	for _, s := range slots {
		minCross = math.Min(minCross, s.cross)
	}
	for i, s := range slots {
		c := s.cross - minCross + opts.Padding
		m := s.main + opts.Padding
		if opts.Direction == LeftRight {
			g.Nodes[i].Position = domain.Position{X: m, Y: c}
		} else {
			g.Nodes[i].Position = domain.Position{X: c, Y: m}
		}
	}
}
