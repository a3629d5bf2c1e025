package layout

import (
	"github.com/aretw0/surveyflow/pkg/domain"
)

type box struct{ x1, y1, x2, y2 float64 }

func boxOf(n domain.FlowNode, pad float64) box {
	return box{
		x1: n.Position.X - pad/2,
		y1: n.Position.Y - pad/2,
		x2: n.Position.X + n.Size.Width + pad/2,
		y2: n.Position.Y + n.Size.Height + pad/2,
	}
}

// overlap returns the penetration depth on each axis; both are positive only
// when the boxes intersect.
func overlap(a, b box) (float64, float64) {
	return min(a.x2, b.x2) - max(a.x1, b.x1), min(a.y2, b.y2) - max(a.y1, b.y1)
}

// Overlaps lists the id pairs of nodes whose boxes, grown by padding, intersect.
func Overlaps(g domain.FlowGraph, padding float64) [][2]string {
	var out [][2]string
	for i := 0; i < len(g.Nodes); i++ {
		a := boxOf(g.Nodes[i], padding)
		for j := i + 1; j < len(g.Nodes); j++ {
			ox, oy := overlap(a, boxOf(g.Nodes[j], padding))
			if ox > 0 && oy > 0 {
				out = append(out, [2]string{g.Nodes[i].ID, g.Nodes[j].ID})
			}
		}
	}
	return out
}

// HasOverlap reports whether any two nodes overlap.
func HasOverlap(g domain.FlowGraph, padding float64) bool {
	for i := 0; i < len(g.Nodes); i++ {
		a := boxOf(g.Nodes[i], padding)
		for j := i + 1; j < len(g.Nodes); j++ {
			ox, oy := overlap(a, boxOf(g.Nodes[j], padding))
			if ox > 0 && oy > 0 {
				return true
			}
		}
	}
	return false
}

// ResolveOverlaps nudges intersecting nodes apart along the axis with the
// smaller overlap until no pair intersects or MaxIterations passes have run.
// It reports whether the graph ended overlap-free.
func ResolveOverlaps(g domain.FlowGraph, opts Options) (domain.FlowGraph, bool) {
	opts = opts.normalized()
	out := g.Clone()

	for iter := 0; iter < opts.MaxIterations; iter++ {
		moved := false
		for i := 0; i < len(out.Nodes); i++ {
			for j := i + 1; j < len(out.Nodes); j++ {
				a, b := &out.Nodes[i], &out.Nodes[j]
				ox, oy := overlap(boxOf(*a, opts.Padding), boxOf(*b, opts.Padding))
				if ox <= 0 || oy <= 0 {
					continue
				}
				moved = true
				if ox <= oy {
					shift := ox/2 + 0.5
					if centerX(*a) <= centerX(*b) {
						a.Position.X -= shift
						b.Position.X += shift
					} else {
						a.Position.X += shift
						b.Position.X -= shift
					}
				} else {
					shift := oy/2 + 0.5
					if centerY(*a) <= centerY(*b) {
						a.Position.Y -= shift
						b.Position.Y += shift
					} else {
						a.Position.Y += shift
						b.Position.Y -= shift
					}
				}
			}
		}
		if !moved {
			return out, true
		}
	}
	return out, !HasOverlap(out, opts.Padding)
}

func centerX(n domain.FlowNode) float64 { return n.Position.X + n.Size.Width/2 }

func centerY(n domain.FlowNode) float64 { return n.Position.Y + n.Size.Height/2 }

// NeedsRelayout reports whether next must be laid out from scratch: the node
// count changed, a node has no previous position, or reusing the previous
// positions would produce an overlap.
func NeedsRelayout(prev, next domain.FlowGraph, opts Options) bool {
	opts = opts.normalized()
	if len(prev.Nodes) != len(next.Nodes) {
		return true
	}
	carried, ok := carryPositions(prev, next)
	if !ok {
		return true
	}
	return HasOverlap(carried, opts.Padding)
}

// Stabilize keeps the previous positions when the edit was small and lays the
// graph out again otherwise.
func Stabilize(prev, next domain.FlowGraph, opts Options) domain.FlowGraph {
	if NeedsRelayout(prev, next, opts) {
		return Layout(next, opts)
	}
	carried, _ := carryPositions(prev, next)
	return carried
}

func carryPositions(prev, next domain.FlowGraph) (domain.FlowGraph, bool) {
	old := make(map[string]domain.FlowNode, len(prev.Nodes))
	for _, n := range prev.Nodes {
		old[n.ID] = n
	}
	out := next.Clone()
	for i := range out.Nodes {
		p, ok := old[out.Nodes[i].ID]
		if !ok {
			return out, false
		}
		out.Nodes[i].Position = p.Position
		out.Nodes[i].Size = p.Size
	}
	return out, true
}
