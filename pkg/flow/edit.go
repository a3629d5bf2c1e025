package flow

import (
	"fmt"

	"github.com/aretw0/surveyflow/pkg/domain"
)

// RetargetEdge points a conditional edge at another node and upserts the
// matching rule in the owning block. A rule with the same condition and default
// flag is replaced in place, so applying the same edit twice changes nothing.
// The inputs are not modified.
func RetargetEdge(g domain.FlowGraph, s *domain.Survey, edgeID, targetNodeID string) (domain.FlowGraph, *domain.Survey, error) {
	edge := g.Edge(edgeID)
	if edge == nil {
		return g, s, fmt.Errorf("%w: %s", domain.ErrEdgeNotFound, edgeID)
	}
	if edge.Kind != domain.EdgeConditional {
		return g, s, fmt.Errorf("%s: %w", edgeID, domain.ErrStructuralEdge)
	}
	var cond domain.Condition
	if edge.Data.Condition != nil {
		cond = *edge.Data.Condition
	}
	return upsert(g, s, edge.Source, targetNodeID, cond, edge.Data.IsDefault)
}

// ConnectEdge creates a conditional edge from a block and the rule behind it.
func ConnectEdge(g domain.FlowGraph, s *domain.Survey, sourceID, targetNodeID string, cond domain.Condition, isDefault bool) (domain.FlowGraph, *domain.Survey, error) {
	return upsert(g, s, sourceID, targetNodeID, cond, isDefault || cond.IsEmpty())
}

// RemoveEdge deletes a conditional edge and the rule it represents.
func RemoveEdge(g domain.FlowGraph, s *domain.Survey, edgeID string) (domain.FlowGraph, *domain.Survey, error) {
	edge := g.Edge(edgeID)
	if edge == nil {
		return g, s, fmt.Errorf("%w: %s", domain.ErrEdgeNotFound, edgeID)
	}
	if edge.Kind != domain.EdgeConditional {
		return g, s, fmt.Errorf("%s: %w", edgeID, domain.ErrStructuralEdge)
	}

	ns := s.Clone()
	b, ok := ns.Block(edge.Source)
	if !ok {
		return g, s, fmt.Errorf("%w: %s", domain.ErrBlockNotFound, edge.Source)
	}
	rules := b.NavigationRules
	idx := edge.Data.RuleIndex
	if idx < 0 || idx >= len(rules) || rules[idx].Signature() != edgeRule(edge).Signature() {
		idx = indexOfSignature(rules, edgeRule(edge).Signature())
	}
	if idx >= 0 {
		rules = append(rules[:idx:idx], rules[idx+1:]...)
	}
	if err := ns.SetRules(b.UUID, rules); err != nil {
		return g, s, err
	}
	return refreshBlock(g, ns, b.UUID), ns, nil
}

func upsert(g domain.FlowGraph, s *domain.Survey, sourceID, targetNodeID string, cond domain.Condition, isDefault bool) (domain.FlowGraph, *domain.Survey, error) {
	src := g.Node(sourceID)
	if src == nil {
		return g, s, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, sourceID)
	}
	if src.Kind != domain.NodeBlock {
		return g, s, fmt.Errorf("%s: %w", sourceID, domain.ErrInvalidRuleSource)
	}
	tgt := g.Node(targetNodeID)
	if tgt == nil {
		return g, s, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, targetNodeID)
	}

	rule := domain.NavigationRule{Condition: cond.Clone(), IsDefault: isDefault}
	switch tgt.Kind {
	case domain.NodeSubmit:
		rule.Target = domain.TargetSubmit
	case domain.NodePage:
		rule.Target, rule.IsPage = tgt.ID, true
	case domain.NodeBlock:
		rule.Target = tgt.ID
	default:
		return g, s, fmt.Errorf("%s: %w", targetNodeID, domain.ErrInvalidTarget)
	}

	ns := s.Clone()
	b, ok := ns.Block(sourceID)
	if !ok {
		return g, s, fmt.Errorf("%w: %s", domain.ErrBlockNotFound, sourceID)
	}
	rules := domain.CloneRules(b.NavigationRules)
	if idx := indexOfSignature(rules, rule.Signature()); idx >= 0 {
		rules[idx] = rule
	} else {
		rules = append(rules, rule)
	}
	if err := ns.SetRules(sourceID, rules); err != nil {
		return g, s, err
	}
	return refreshBlock(g, ns, sourceID), ns, nil
}

// refreshBlock regenerates the conditional edges of one block and the flags
// derived from its rules, keeping every other node and edge as it was.
func refreshBlock(g domain.FlowGraph, s *domain.Survey, blockID string) domain.FlowGraph {
	out := g.Clone()
	b, _ := s.Block(blockID)
	hasRules := len(b.NavigationRules) > 0

	edges := make([]domain.FlowEdge, 0, len(out.Edges))
	for _, e := range out.Edges {
		if e.Source == blockID && e.Kind == domain.EdgeConditional {
			continue
		}
		if e.Source == blockID && e.Kind == domain.EdgeSequential {
			e.Data.Dashed = hasRules
		}
		edges = append(edges, e)
	}
	out.Edges = append(edges, ruleEdges(s, b)...)

	if n := out.Node(blockID); n != nil {
		n.Data.HasRules = hasRules
	}
	return out
}

func edgeRule(e *domain.FlowEdge) domain.NavigationRule {
	r := domain.NavigationRule{IsDefault: e.Data.IsDefault}
	if e.Data.Condition != nil {
		r.Condition = *e.Data.Condition
	}
	return r
}

func indexOfSignature(rules []domain.NavigationRule, sig string) int {
	for i, r := range rules {
		if r.Signature() == sig {
			return i
		}
	}
	return -1
}
