package flow

import (
	"strings"

	"github.com/aretw0/surveyflow/pkg/domain"
)

// CycleSeparator joins node names in a rendered cycle.
const CycleSeparator = " → "

// FindCycles reports every cycle formed by conditional edges, rendered with node
// display names, e.g. "A → B → C → A". Each cycle is reported once.
// Structural edges never form cycles on their own and are ignored.
func FindCycles(g domain.FlowGraph) []string {
	names := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		names[n.ID] = n.DisplayName()
	}

	var out []string
	rendered := make(map[string]bool)
	for _, cycle := range CycleIDs(g) {
		parts := make([]string, 0, len(cycle)+1)
		for _, id := range cycle {
			parts = append(parts, nameOr(names, id))
		}
		parts = append(parts, nameOr(names, cycle[0]))
		line := strings.Join(parts, CycleSeparator)
		if !rendered[line] {
			rendered[line] = true
			out = append(out, line)
		}
	}
	return out
}

// CycleIDs returns the node ids of each conditional cycle, rotated so the
// smallest id comes first. The search restarts from every node with fresh
// visited and recursion-stack sets.
func CycleIDs(g domain.FlowGraph) [][]string {
	adj := make(map[string][]string)
	for _, e := range g.Edges {
		if e.Kind == domain.EdgeConditional {
			adj[e.Source] = append(adj[e.Source], e.Target)
		}
	}
	if len(adj) == 0 {
		return nil
	}

	var (
		out  [][]string
		seen = make(map[string]bool)
	)
	for _, n := range g.Nodes {
		visited := make(map[string]bool)
		onStack := make(map[string]bool)
		var stack []string

		var visit func(id string)
		visit = func(id string) {
			visited[id] = true
			onStack[id] = true
			stack = append(stack, id)

			for _, next := range adj[id] {
				if onStack[next] {
					cycle := rotate(stackFrom(stack, next))
					key := strings.Join(cycle, "\x00")
					if !seen[key] {
						seen[key] = true
						out = append(out, cycle)
					}
					continue
				}
				if !visited[next] {
					visit(next)
				}
			}

			stack = stack[:len(stack)-1]
			onStack[id] = false
		}
		visit(n.ID)
	}
	return out
}

func stackFrom(stack []string, id string) []string {
	for i, v := range stack {
		if v == id {
			return append([]string(nil), stack[i:]...)
		}
	}
	return nil
}

// rotate moves the smallest id to the front, preserving direction.
func rotate(cycle []string) []string {
	min := 0
	for i, id := range cycle {
		if id < cycle[min] {
			min = i
		}
	}
	out := make([]string, 0, len(cycle))
	out = append(out, cycle[min:]...)
	return append(out, cycle[:min]...)
}

func nameOr(names map[string]string, id string) string {
	if n, ok := names[id]; ok && n != "" {
		return n
	}
	return id
}
