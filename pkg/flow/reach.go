package flow

import (
	"github.com/aretw0/surveyflow/pkg/domain"
)

// Unreachable lists the blocks of s that no walk from the start node can land
// on, in survey order. A sequential edge leaving a block whose rules include an
// unconditional one is never taken, and page-to-page edges only order pages.
func Unreachable(s *domain.Survey, g domain.FlowGraph) []string {
	closed := make(map[string]bool)
	for _, b := range s.Blocks() {
		for _, r := range b.NavigationRules {
			if r.IsDefault || r.Condition.IsEmpty() {
				closed[b.UUID] = true
				break
			}
		}
	}

	out := make(map[string][]string)
	for _, e := range g.Edges {
		switch {
		case e.Kind == domain.EdgePageToPage:
			continue
		case e.Kind == domain.EdgeSequential && closed[e.Source]:
			continue
		}
		out[e.Source] = append(out[e.Source], e.Target)
	}

	visited := map[string]bool{domain.StartNodeID: true}
	queue := []string{domain.StartNodeID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range out[id] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	var unreachable []string
	for _, b := range s.Blocks() {
		if !visited[b.UUID] {
			unreachable = append(unreachable, b.UUID)
		}
	}
	return unreachable
}
